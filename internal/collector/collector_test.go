package collector

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
	"QuantLab/internal/store"
)

var now = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(" aapl ", "2024-01-01", "2024-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), req.End)
}

func TestNewRequest_Defaults(t *testing.T) {
	req, err := NewRequest("msft", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), req.End)
	assert.Equal(t, time.Date(2023, 6, 28, 0, 0, 0, 0, time.UTC), req.Start)
}

func TestNewRequest_Invalid(t *testing.T) {
	cases := []struct{ symbol, start, end string }{
		{"", "2024-01-01", "2024-02-01"},
		{"   ", "", ""},
		{"AAPL", "01/01/2024", ""},
		{"AAPL", "", "tomorrow"},
		{"AAPL", "2024-02-01", "2024-02-01"},
		{"AAPL", "2024-03-01", "2024-02-01"},
	}
	for _, c := range cases {
		_, err := NewRequest(c.symbol, c.start, c.end, now)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "%+v", c)
	}
}

func mustRequest(t *testing.T, start, end string) Request {
	t.Helper()
	req, err := NewRequest("ACME", start, end, now)
	require.NoError(t, err)
	return req
}

func TestBuild_WithMockFetcher(t *testing.T) {
	m := metrics.New()
	c := NewCollector(&MockFetcher{Price: 50}, m)

	dash, err := c.Build(context.Background(), mustRequest(t, "2023-01-01", "2024-01-01"))
	require.NoError(t, err)

	n := len(dash.Series.Bars)
	assert.Greater(t, n, 200)
	require.Len(t, dash.Indicators, n)
	for i := range dash.Indicators {
		assert.True(t, dash.Indicators[i].Date.Equal(dash.Series.Bars[i].Date))
	}
	assert.True(t, dash.Indicators[n-1].SMA200.Valid)
	assert.False(t, dash.Indicators[0].SMA20.Valid)
	assert.Equal(t, "mock", dash.Series.Provider)
	assert.Equal(t, "ACME", dash.Summary.Symbol)
	assert.Equal(t, n, dash.Summary.Bars)

	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDur))
}

func TestBuild_NoBarsIsNoData(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: []model.PriceBar{}}, nil)
	_, err := c.Build(context.Background(), mustRequest(t, "2024-01-01", "2024-02-01"))
	assert.ErrorIs(t, err, model.ErrNoData)
}

func TestBuild_ProviderNoData(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: model.ErrNoData}, nil)
	_, err := c.Build(context.Background(), mustRequest(t, "2024-01-01", "2024-02-01"))
	assert.ErrorIs(t, err, model.ErrNoData)
}

func TestBuild_PlainErrorBecomesProviderError(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("connection reset")}, nil)
	_, err := c.Build(context.Background(), mustRequest(t, "2024-01-01", "2024-02-01"))

	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "mock", pe.Provider)
	assert.Equal(t, "ACME", pe.Symbol)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBuild_InvalidRequestSkipsFetch(t *testing.T) {
	f := &MockFetcher{}
	c := NewCollector(f, nil)
	_, err := c.Build(context.Background(), Request{Symbol: "ACME", Start: now, End: now})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Zero(t, f.Calls())
}

func TestBuild_FixedBarsFilteredToRange(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []model.PriceBar
	for i := 0; i < 40; i++ {
		bars = append(bars, model.PriceBar{Date: day.AddDate(0, 0, i), High: 11, Low: 9, Close: 10, AdjClose: 10})
	}
	c := NewCollector(&MockFetcher{Bars: bars}, nil)

	dash, err := c.Build(context.Background(), mustRequest(t, "2024-01-11", "2024-01-30"))
	require.NoError(t, err)
	assert.Len(t, dash.Series.Bars, 20)
	assert.Equal(t, 10.0, dash.Indicators[19].SMA20.Float64)
	assert.Equal(t, 10.0, dash.Indicators[19].UpperBand.Float64)
}

func TestSQLiteFetcher(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ImportCSV(context.Background(), "ACME", strings.NewReader(
		"Date,Open,High,Low,Close,Adj Close,Volume\n"+
			"2024-01-02,1,2,0.5,1.5,1.4,10\n"+
			"2024-01-03,1.5,2.5,1,2,1.9,11\n"))
	require.NoError(t, err)

	c := NewCollector(NewSQLiteFetcher(s), nil)
	dash, err := c.Build(context.Background(), mustRequest(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, dash.Series.Bars, 2)
	assert.Equal(t, "sqlite", dash.Series.Provider)
	assert.Equal(t, 1.9, dash.Summary.LastClose)

	_, err = c.Build(context.Background(), Request{Symbol: "NOPE", Start: now.AddDate(0, -1, 0), End: now})
	assert.ErrorIs(t, err, model.ErrNoData)
}

func TestMockFetcher_ConcurrentCalls(t *testing.T) {
	f := &MockFetcher{Price: 10}
	c := NewCollector(f, metrics.New())
	req := mustRequest(t, "2024-01-01", "2024-03-01")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Build(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, f.Calls())
}
