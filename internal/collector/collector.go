package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"QuantLab/internal/calculator"
	"QuantLab/internal/logger"
	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.PriceBar // returned (filtered to the range) when set
	Err   error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many fetches have been made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, start, end time.Time) ([]model.PriceBar, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		var out []model.PriceBar
		for _, b := range m.Bars {
			if inRange(b.Date, start, end) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

// generateMockBars produces one bar per weekday in [start, end] following a
// slow sine wave around basePrice with a mild upward drift.
func generateMockBars(basePrice float64, start, end time.Time) []model.PriceBar {
	if basePrice <= 0 {
		basePrice = 100
	}
	var bars []model.PriceBar
	i := 0
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.08*math.Sin(float64(i)/15) + 0.0005*float64(i))
		bars = append(bars, model.PriceBar{
			Date:     d,
			Open:     p * 0.997,
			High:     p * 1.01,
			Low:      p * 0.99,
			Close:    p,
			AdjClose: p,
			Volume:   1000000,
		})
		i++
	}
	return bars
}

// Request is one dashboard query.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// NewRequest parses user input. Dates use YYYY-MM-DD; an empty end means
// today and an empty start means one year before end.
func NewRequest(symbol, start, end string, now time.Time) (Request, error) {
	req := Request{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
	if req.Symbol == "" {
		return req, fmt.Errorf("ticker is required: %w", model.ErrInvalidInput)
	}

	req.End = dateOnly(now)
	if s := strings.TrimSpace(end); s != "" {
		d, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return req, fmt.Errorf("end date %q: %w", s, model.ErrInvalidInput)
		}
		req.End = d
	}
	req.Start = req.End.AddDate(-1, 0, 0)
	if s := strings.TrimSpace(start); s != "" {
		d, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return req, fmt.Errorf("start date %q: %w", s, model.ErrInvalidInput)
		}
		req.Start = d
	}
	return req, req.Validate()
}

// Validate checks the ticker and that start precedes end.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("ticker is required: %w", model.ErrInvalidInput)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("start date %s must be before end date %s: %w",
			r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout), model.ErrInvalidInput)
	}
	return nil
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, m *metrics.Metrics) *Collector {
	return &Collector{Fetcher: fetcher, Metrics: m}
}

// Build fetches the bars for req and derives indicators and the summary.
// Errors are model.ErrInvalidInput, model.ErrNoData or *model.ProviderError.
func (c *Collector) Build(ctx context.Context, req Request) (*model.Dashboard, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, req.Symbol, req.Start, req.End)
	fetchDur := time.Since(start)
	if c.Metrics != nil {
		c.Metrics.FetchDur.WithLabelValues(c.Fetcher.Name()).Observe(fetchDur.Seconds())
	}
	if err != nil {
		var pe *model.ProviderError
		if !errors.Is(err, model.ErrNoData) && !errors.As(err, &pe) {
			err = &model.ProviderError{Provider: c.Fetcher.Name(), Symbol: req.Symbol, Err: err}
		}
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s..%s: %w", req.Symbol,
			req.Start.Format(model.DateLayout), req.End.Format(model.DateLayout), model.ErrNoData)
	}
	if c.Metrics != nil {
		c.Metrics.BarsFetched.Observe(float64(len(bars)))
	}

	series := &model.PriceSeries{
		Symbol:    req.Symbol,
		Provider:  c.Fetcher.Name(),
		Start:     req.Start,
		End:       req.End,
		Bars:      bars,
		FetchedAt: time.Now().UTC(),
	}

	start = time.Now()
	ind, err := calculator.ComputeSeries(series)
	if c.Metrics != nil {
		c.Metrics.ComputeDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	summary, err := calculator.Summarize(series)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	slog.Debug("dashboard built",
		append(logger.Attrs(ctx),
			slog.String("symbol", req.Symbol),
			slog.String("provider", series.Provider),
			slog.Int("bars", len(bars)),
			slog.Duration("fetch", fetchDur))...)

	return &model.Dashboard{Series: series, Indicators: ind, Summary: summary}, nil
}
