package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"QuantLab/internal/collector"
	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
)

// probeLookback is how many calendar days each probe asks the provider for.
const probeLookback = 10

// Scheduler runs the provider liveness probe on a cron schedule.
type Scheduler struct {
	Cron    *cron.Cron
	Fetcher collector.Fetcher
	Symbol  string
	Health  *metrics.HealthStatus
	Metrics *metrics.Metrics
	Ctx     context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler. m may be nil.
func NewScheduler(ctx context.Context, f collector.Fetcher, symbol string, health *metrics.HealthStatus, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Fetcher: f,
		Symbol:  strings.ToUpper(strings.TrimSpace(symbol)),
		Health:  health,
		Metrics: m,
		Ctx:     ctx,
		now:     time.Now,
	}
}

// Register schedules the probe with a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.Probe() }); err != nil {
		return fmt.Errorf("register provider probe: %w", err)
	}
	if s.Health != nil {
		s.Health.SetProbeEnabled(true)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	slog.Info("scheduler started", "symbol", s.Symbol, "provider", s.Fetcher.Name())
}

// Stop stops the cron scheduler and waits for a running probe to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunNow executes the probe immediately.
func (s *Scheduler) RunNow() error {
	return s.Probe()
}

// Probe fetches the last few days of the probe symbol and records whether
// the provider answered. An empty answer counts as a failure.
func (s *Scheduler) Probe() error {
	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -probeLookback)

	began := time.Now()
	bars, err := s.Fetcher.FetchDailyBars(s.Ctx, s.Symbol, start, end)
	latency := time.Since(began)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("%s: %w", s.Symbol, model.ErrNoData)
	}

	if s.Health != nil {
		s.Health.RecordProbe(s.now(), latency, err)
	}
	if s.Metrics != nil {
		s.Metrics.ProbeLatency.Set(latency.Seconds())
		if err != nil {
			s.Metrics.ProbeUp.Set(0)
			s.Metrics.ProbeRuns.WithLabelValues("fail").Inc()
		} else {
			s.Metrics.ProbeUp.Set(1)
			s.Metrics.ProbeRuns.WithLabelValues("ok").Inc()
		}
	}

	if err != nil {
		slog.Warn("provider probe failed", "provider", s.Fetcher.Name(), "symbol", s.Symbol, "error", err)
		return err
	}
	slog.Debug("provider probe ok", "provider", s.Fetcher.Name(), "symbol", s.Symbol,
		"bars", len(bars), "latency", latency)
	return nil
}
