package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeEmpty         = "empty"
	OutcomeNoData        = "no_data"
	OutcomeInvalid       = "invalid"
	OutcomeProviderError = "provider_error"
	OutcomeError         = "error"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal *prometheus.CounterVec   // labels: route, outcome
	RequestDur    *prometheus.HistogramVec // labels: route
	FetchDur      *prometheus.HistogramVec // labels: provider
	BarsFetched   prometheus.Histogram
	ComputeDur    prometheus.Histogram
	RenderDur     prometheus.Histogram

	// Provider probe
	ProbeUp      prometheus.Gauge // 0=down, 1=up
	ProbeLatency prometheus.Gauge
	ProbeRuns    *prometheus.CounterVec // labels: result=ok|fail

	SnapshotDur prometheus.Histogram
}

// New creates the metrics and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantlab_requests_total",
			Help: "Dashboard requests by route and outcome",
		}, []string{"route", "outcome"}),
		RequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantlab_request_duration_seconds",
			Help:    "End-to-end request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantlab_fetch_duration_seconds",
			Help:    "Market data fetch latency by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		BarsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantlab_bars_fetched",
			Help:    "Number of daily bars returned per fetch",
			Buckets: []float64{1, 20, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantlab_indicator_compute_duration_seconds",
			Help:    "Indicator engine latency per series",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		RenderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantlab_chart_render_duration_seconds",
			Help:    "Chart rendering latency",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		ProbeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantlab_provider_up",
			Help: "Result of the last provider probe (0=down, 1=up)",
		}),
		ProbeLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantlab_provider_probe_latency_seconds",
			Help: "Latency of the last provider probe",
		}),
		ProbeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantlab_provider_probe_runs_total",
			Help: "Provider probe runs by result",
		}, []string{"result"}),

		SnapshotDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantlab_snapshot_duration_seconds",
			Help:    "Headless browser snapshot latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDur,
		m.FetchDur,
		m.BarsFetched,
		m.ComputeDur,
		m.RenderDur,
		m.ProbeUp,
		m.ProbeLatency,
		m.ProbeRuns,
		m.SnapshotDur,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// HealthStatus represents the service health served on /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	Provider       string    `json:"provider"`
	ProbeEnabled   bool      `json:"probe_enabled"`
	ProviderUp     bool      `json:"provider_up"`
	LastProbeAt    time.Time `json:"last_probe_at"`
	LastProbeError string    `json:"last_probe_error,omitempty"`
	ProbeLatencyMs float64   `json:"probe_latency_ms"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status for the given provider.
func NewHealthStatus(provider string) *HealthStatus {
	return &HealthStatus{
		Provider:  provider,
		StartedAt: time.Now(),
	}
}

// SetProbeEnabled records whether a probe is scheduled.
func (h *HealthStatus) SetProbeEnabled(v bool) {
	h.mu.Lock()
	h.ProbeEnabled = v
	h.mu.Unlock()
}

// RecordProbe stores the outcome of one provider probe.
func (h *HealthStatus) RecordProbe(at time.Time, latency time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastProbeAt = at
	h.ProbeLatencyMs = float64(latency.Microseconds()) / 1000
	h.ProviderUp = err == nil
	h.LastProbeError = ""
	if err != nil {
		h.LastProbeError = err.Error()
	}
}

// HealthSnapshot is a lock-free copy of HealthStatus for serialization.
type HealthSnapshot struct {
	Status         string    `json:"status"`
	Provider       string    `json:"provider"`
	ProbeEnabled   bool      `json:"probe_enabled"`
	ProviderUp     bool      `json:"provider_up"`
	LastProbeAt    time.Time `json:"last_probe_at"`
	LastProbeError string    `json:"last_probe_error,omitempty"`
	ProbeLatencyMs float64   `json:"probe_latency_ms"`
	UptimeSec      int64     `json:"uptime_sec"`
}

// Snapshot returns a copy of the current state. Status is "degraded" when a
// probe has run and failed, "ok" otherwise.
func (h *HealthStatus) Snapshot() HealthSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	status := "ok"
	if h.ProbeEnabled && !h.LastProbeAt.IsZero() && !h.ProviderUp {
		status = "degraded"
	}
	return HealthSnapshot{
		Status:         status,
		Provider:       h.Provider,
		ProbeEnabled:   h.ProbeEnabled,
		ProviderUp:     h.ProviderUp,
		LastProbeAt:    h.LastProbeAt,
		LastProbeError: h.LastProbeError,
		ProbeLatencyMs: h.ProbeLatencyMs,
		UptimeSec:      int64(time.Since(h.StartedAt).Seconds()),
	}
}
