package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"QuantLab/internal/chart"
	"QuantLab/internal/collector"
	"QuantLab/internal/model"
	"QuantLab/internal/report"
)

var (
	chartStart  string
	chartEnd    string
	chartOut    string
	chartFormat string
)

var chartCmd = &cobra.Command{
	Use:   "chart TICKER",
	Short: "Render the dashboard for one ticker",
	Long: `Run the pipeline once and write the result.

Formats:
  html  standalone page with the price and RSI charts
  text  summary and latest indicator values
  json  bars, indicators and summary

Example:
  quantlab chart AAPL --start 2023-01-01 --end 2024-01-01 --out aapl.html`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartStart, "start", "", "start date YYYY-MM-DD (default one year before end)")
	chartCmd.Flags().StringVar(&chartEnd, "end", "", "end date YYYY-MM-DD (default today)")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "output file (default stdout)")
	chartCmd.Flags().StringVar(&chartFormat, "format", "html", "output format: html, text or json")
	rootCmd.AddCommand(chartCmd)
}

// buildDashboard runs one pipeline invocation with the configured provider.
func buildDashboard(ctx context.Context, ticker, start, end string) (*model.Dashboard, error) {
	req, err := collector.NewRequest(ticker, start, end, time.Now())
	if err != nil {
		return nil, err
	}
	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFetcher()
	return collector.NewCollector(fetcher, nil).Build(ctx, req)
}

func runChart(cmd *cobra.Command, args []string) error {
	switch chartFormat {
	case "html", "text", "json":
	default:
		return fmt.Errorf("unknown format %q", chartFormat)
	}

	dash, err := buildDashboard(cmd.Context(), args[0], chartStart, chartEnd)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error { return writeDashboard(w, dash, chartFormat) }
	if chartOut == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(chartOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", chartOut, err)
	}
	if err := writeAndClose(f, write); err != nil {
		return fmt.Errorf("write %s: %w", chartOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bars)\n", chartOut, len(dash.Series.Bars))
	return nil
}

func writeDashboard(w io.Writer, dash *model.Dashboard, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, report.FormatDashboard(dash))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dash)
	default:
		return chart.Render(w, dash, chartOptions(cfg))
	}
}

// writeAndClose runs write against wc and always closes it. A close error
// is reported when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}
