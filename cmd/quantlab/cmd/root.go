package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"QuantLab/internal/config"
	"QuantLab/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "quantlab",
	Short: "Interactive stock charting dashboard",
	Long: `Quant Lab fetches daily bars for a ticker and date range, derives
SMA 50, SMA 200, Bollinger Bands (20, 2) and RSI (14), and renders a
candlestick chart with overlays plus an RSI chart.

Run "quantlab serve" for the browser dashboard, or "quantlab chart" for a
one-shot render to a file or the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		path := cfgFile
		if !cmd.Flags().Changed("config") {
			if v := os.Getenv("CONFIG_PATH"); v != "" {
				path = v
			}
		}
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		cfg = c
		logger.Init("quantlab", logger.ParseLevel(cfg.LogLevel))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
