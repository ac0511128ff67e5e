package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"QuantLab/internal/collector"
	"QuantLab/internal/metrics"
	"QuantLab/internal/server"
	"QuantLab/internal/snapshot"
)

var (
	snapStart string
	snapEnd   string
	snapOut   string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot TICKER",
	Short: "Save the dashboard as a PNG with headless Chrome",
	Long: `Serve the dashboard on a loopback port, open it in headless Chrome
and write a full-page PNG.

Example:
  quantlab snapshot AAPL --start 2023-01-01 --end 2024-01-01 --out aapl.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapStart, "start", "", "start date YYYY-MM-DD (default one year before end)")
	snapshotCmd.Flags().StringVar(&snapEnd, "end", "", "end date YYYY-MM-DD (default today)")
	snapshotCmd.Flags().StringVar(&snapOut, "out", "", "output PNG file")
	_ = snapshotCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	req, err := collector.NewRequest(args[0], snapStart, snapEnd, time.Now())
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	m := metrics.New()
	col := collector.NewCollector(fetcher, m)

	// Surface pipeline errors here rather than as a page message in the PNG.
	if _, err := col.Build(ctx, req); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: server.New(col, m, nil, chartOptions(cfg)).Handler()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("snapshot server", "error", err)
		}
	}()
	defer srv.Close()

	q := url.Values{}
	q.Set("ticker", req.Symbol)
	q.Set("start", req.Start.Format(time.DateOnly))
	q.Set("end", req.End.Format(time.DateOnly))
	pageURL := fmt.Sprintf("http://%s/?%s", ln.Addr(), q.Encode())

	start := time.Now()
	png, err := snapshot.Capture(ctx, pageURL, snapshotOptions(cfg))
	m.SnapshotDur.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if err := os.WriteFile(snapOut, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", snapOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", snapOut)
	return nil
}
