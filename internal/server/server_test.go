package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/chart"
	"QuantLab/internal/collector"
	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
)

func newTestServer(t *testing.T, f *collector.MockFetcher) *httptest.Server {
	t.Helper()
	m := metrics.New()
	s := New(collector.NewCollector(f, m), m, nil, chart.Options{AssetsHost: "/assets/"})
	s.now = func() time.Time { return time.Date(2024, 6, 28, 12, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndex_NoTicker(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{})
	resp, body := get(t, ts.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Contains(t, body, "<title>Quant Lab</title>")
	assert.Contains(t, body, "Trading Dashboard")
	assert.Contains(t, body, MsgEnterTicker)
	assert.Contains(t, body, `value="2023-06-28"`)
	assert.Contains(t, body, `value="2024-06-28"`)
	assert.NotContains(t, body, `class="chart-container"`)
	assert.NotContains(t, body, "echarts.init(")
}

func TestIndex_Charts(t *testing.T) {
	f := &collector.MockFetcher{Price: 120}
	ts := newTestServer(t, f)
	_, body := get(t, ts.URL+"/?ticker=aapl&start=2023-01-01&end=2024-01-01")

	assert.Equal(t, 1, f.Calls())
	assert.Contains(t, body, `value="AAPL"`)
	assert.Contains(t, body, "/assets/echarts.min.js")
	assert.Contains(t, body, `id="price"`)
	assert.Contains(t, body, `id="rsi"`)
	assert.Contains(t, body, "AAPL Chart")
	assert.Contains(t, body, "RSI (14)")
	assert.Contains(t, body, `class="chart-container"`)
	assert.Contains(t, body, "echarts.init(")
	assert.NotContains(t, body, MsgEnterTicker)
	assert.NotContains(t, body, `class="error"`)
}

func TestIndex_TickerMarkupIsEscaped(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{Price: 100})
	ticker := "</script><img src=x onerror=alert(1)>"
	_, body := get(t, ts.URL+"/?ticker="+url.QueryEscape(ticker)+"&start=2024-01-01&end=2024-03-01")

	assert.Contains(t, body, "echarts.init(")
	assert.NotContains(t, strings.ToLower(body), "</script><img")
	assert.NotContains(t, strings.ToLower(body), "<img src=x")
}

func TestIndex_NoData(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{Bars: []model.PriceBar{}})
	_, body := get(t, ts.URL+"/?ticker=ZZZZ&start=2024-01-01&end=2024-02-01")

	assert.Contains(t, body, MsgNoData)
	assert.NotContains(t, body, `class="chart-container"`)
	assert.NotContains(t, body, "echarts.init(")
}

func TestIndex_ProviderError(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{Err: errors.New("boom")})
	_, body := get(t, ts.URL+"/?ticker=acme&start=2024-01-01&end=2024-02-01")

	assert.Contains(t, body, "An error occurred: mock: fetch ACME: boom")
	assert.NotContains(t, body, MsgNoData)
	assert.NotContains(t, body, `class="chart-container"`)
	assert.NotContains(t, body, "echarts.init(")
}

func TestIndex_InvalidDates(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{})
	_, body := get(t, ts.URL+"/?ticker=acme&start=2024-03-01&end=2024-02-01")
	assert.Contains(t, body, "An error occurred: ")
	assert.Contains(t, body, "invalid input")
}

func TestAPI_Dashboard(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{Price: 80})
	resp, body := get(t, ts.URL+"/api/v1/dashboard?ticker=msft&start=2024-01-01&end=2024-03-29")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out struct {
		Symbol     string                       `json:"symbol"`
		Provider   string                       `json:"provider"`
		Start      string                       `json:"start"`
		Bars       []json.RawMessage            `json:"bars"`
		Indicators []map[string]json.RawMessage `json:"indicators"`
		Summary    model.Summary                `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "MSFT", out.Symbol)
	assert.Equal(t, "mock", out.Provider)
	assert.Equal(t, "2024-01-01", out.Start)
	require.NotEmpty(t, out.Indicators)
	assert.Len(t, out.Indicators, len(out.Bars))

	first := out.Indicators[0]
	assert.Equal(t, "null", string(first["sma20"]))
	assert.Equal(t, "null", string(first["rsi14"]))
	last := out.Indicators[len(out.Indicators)-1]
	assert.NotEqual(t, "null", string(last["sma20"]))
	assert.Equal(t, "null", string(last["sma200"]))
	assert.Equal(t, len(out.Bars), out.Summary.Bars)
}

func TestAPI_ErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		f      *collector.MockFetcher
		query  string
		status int
	}{
		{"blank ticker", &collector.MockFetcher{}, "?ticker=+", http.StatusBadRequest},
		{"bad date", &collector.MockFetcher{}, "?ticker=X&start=yesterday", http.StatusBadRequest},
		{"no data", &collector.MockFetcher{Bars: []model.PriceBar{}}, "?ticker=X", http.StatusNotFound},
		{"provider", &collector.MockFetcher{Err: errors.New("timeout")}, "?ticker=X", http.StatusBadGateway},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts := newTestServer(t, c.f)
			resp, body := get(t, ts.URL+"/api/v1/dashboard"+c.query)
			assert.Equal(t, c.status, resp.StatusCode)

			var out map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &out))
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{})

	resp, body := get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap metrics.HealthSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, "ok", snap.Status)
	assert.Equal(t, "mock", snap.Provider)

	get(t, ts.URL+"/?ticker=acme")
	_, body = get(t, ts.URL+"/metrics")
	assert.Contains(t, body, `quantlab_requests_total{outcome="ok",route="index"} 1`)
	assert.Contains(t, body, "quantlab_fetch_duration_seconds")
}

func TestUnknownPath(t *testing.T) {
	ts := newTestServer(t, &collector.MockFetcher{})
	resp, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, MsgNoData, UserMessage(model.ErrNoData))
	assert.Equal(t, "An error occurred: x", UserMessage(errors.New("x")))
}
