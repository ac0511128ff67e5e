package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"QuantLab/internal/collector"
	"QuantLab/internal/metrics"
	"QuantLab/internal/scheduler"
	"QuantLab/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Serve the Quant Lab dashboard on server.addr (override with --addr).

Routes:
  GET /                    dashboard page (?ticker=&start=&end=)
  GET /api/v1/dashboard    same pipeline as JSON
  GET /healthz             health and last provider probe
  GET /metrics             Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	slog.Info("quantlab starting", "addr", cfg.Server.Addr, "provider", cfg.DataSource.Provider)

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	health := metrics.NewHealthStatus(fetcher.Name())
	col := collector.NewCollector(fetcher, m)

	if cfg.Probe.Enabled {
		sched := scheduler.NewScheduler(ctx, fetcher, cfg.Probe.Symbol, health, m)
		if err := sched.Register(cfg.Probe.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		go sched.RunNow()
	}

	srv := server.New(col, m, health, chartOptions(cfg)).
		NewHTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	slog.Info("quantlab is running", "addr", cfg.Server.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("quantlab stopped")
	return nil
}
