package collector

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"QuantLab/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
// start and end are calendar dates; end is inclusive.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)
	Name() string
}

// newHTTPClient builds the outbound client shared by the HTTP fetchers,
// with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// normalizeBars sorts bars ascending and drops repeated dates, keeping the
// last bar seen for a date.
func normalizeBars(bars []model.PriceBar) []model.PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// dateOnly truncates t to midnight UTC of its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inRange(d, start, end time.Time) bool {
	return !d.Before(dateOnly(start)) && !d.After(dateOnly(end))
}
