// Package server is the HTTP shell of the dashboard: the form page with the
// embedded charts, a JSON API over the same pipeline, health and metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"QuantLab/internal/chart"
	"QuantLab/internal/collector"
	"QuantLab/internal/logger"
	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
)

// Messages shown on the dashboard page.
const (
	MsgEnterTicker = "Please enter a stock ticker to start."
	MsgNoData      = "No data found for the given ticker and date range. Please try again."
	msgErrorPrefix = "An error occurred: "
)

// Server serves the dashboard over HTTP.
type Server struct {
	Collector *collector.Collector
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Chart     chart.Options

	now func() time.Time
}

// New creates a Server. m and health may be nil.
func New(col *collector.Collector, m *metrics.Metrics, health *metrics.HealthStatus, chartOpts chart.Options) *Server {
	if m == nil {
		m = metrics.New()
	}
	if health == nil {
		health = metrics.NewHealthStatus(col.Fetcher.Name())
	}
	return &Server{
		Collector: col,
		Metrics:   m,
		Health:    health,
		Chart:     chartOpts,
		now:       time.Now,
	}
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboardAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return s.withRequestLog(mux)
}

// NewHTTPServer wraps the handler with the configured timeouts.
func (s *Server) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// build runs the pipeline for one query and classifies its result.
func (s *Server) build(ctx context.Context, ticker, start, end string) (*model.Dashboard, string, error) {
	req, err := collector.NewRequest(ticker, start, end, s.now())
	if err != nil {
		return nil, metrics.OutcomeInvalid, err
	}
	dash, err := s.Collector.Build(ctx, req)
	if err != nil {
		outcome := classify(err)
		if outcome == metrics.OutcomeNoData {
			slog.Info("no data", append(logger.Attrs(ctx), "symbol", req.Symbol, "error", err)...)
		} else {
			slog.Error("dashboard failed", append(logger.Attrs(ctx), "symbol", req.Symbol, "error", err)...)
		}
		return nil, outcome, err
	}
	return dash, metrics.OutcomeOK, nil
}

func classify(err error) string {
	var pe *model.ProviderError
	switch {
	case errors.Is(err, model.ErrNoData):
		return metrics.OutcomeNoData
	case errors.Is(err, model.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.As(err, &pe):
		return metrics.OutcomeProviderError
	default:
		return metrics.OutcomeError
	}
}

// UserMessage maps a pipeline error to the single message shown to the user.
func UserMessage(err error) string {
	if errors.Is(err, model.ErrNoData) {
		return MsgNoData
	}
	return msgErrorPrefix + err.Error()
}

func (s *Server) count(route, outcome string) {
	s.Metrics.RequestsTotal.WithLabelValues(route, outcome).Inc()
}
