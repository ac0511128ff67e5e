package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"QuantLab/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage
// TIME_SERIES_DAILY_ADJUSTED endpoint.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a new fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &AlphaVantageFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avDaily is the expected JSON shape of a daily adjusted response. Alpha
// Vantage reports every number as a string.
type avDaily struct {
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
	Series       map[string]avDailyBar `json:"Time Series (Daily)"`
}

type avDailyBar struct {
	Open     string `json:"1. open"`
	High     string `json:"2. high"`
	Low      string `json:"3. low"`
	Close    string `json:"4. close"`
	AdjClose string `json:"5. adjusted close"`
	Volume   string `json:"6. volume"`
}

func (f *AlphaVantageFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", symbol)
	q.Set("outputsize", outputSize(start))
	q.Set("apikey", f.APIKey)
	endpoint := fmt.Sprintf("%s/query?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, f.fail(symbol, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, f.fail(symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fail(symbol, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, f.fail(symbol, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200)))
	}

	var daily avDaily
	if err := json.Unmarshal(body, &daily); err != nil {
		return nil, f.fail(symbol, fmt.Errorf("decode: %w", err))
	}
	switch {
	case daily.ErrorMessage != "":
		// Alpha Vantage answers unknown symbols with an error message.
		return nil, fmt.Errorf("alphavantage %s: %s: %w", symbol, daily.ErrorMessage, model.ErrNoData)
	case daily.Note != "":
		return nil, f.fail(symbol, fmt.Errorf("rate limited: %s", daily.Note))
	case daily.Information != "":
		return nil, f.fail(symbol, fmt.Errorf("api information: %s", daily.Information))
	}

	bars := make([]model.PriceBar, 0, len(daily.Series))
	for date, row := range daily.Series {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, f.fail(symbol, fmt.Errorf("bad date %q: %w", date, err))
		}
		if !inRange(d, start, end) {
			continue
		}
		b, err := row.bar(d)
		if err != nil {
			return nil, f.fail(symbol, fmt.Errorf("%s: %w", date, err))
		}
		bars = append(bars, b)
	}

	return normalizeBars(bars), nil
}

func (r avDailyBar) bar(d time.Time) (model.PriceBar, error) {
	b := model.PriceBar{Date: d}
	for _, f := range []struct {
		src string
		dst *float64
	}{
		{r.Open, &b.Open},
		{r.High, &b.High},
		{r.Low, &b.Low},
		{r.Close, &b.Close},
		{r.AdjClose, &b.AdjClose},
		{r.Volume, &b.Volume},
	} {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return b, fmt.Errorf("parse %q: %w", f.src, err)
		}
		*f.dst = v
	}
	return b, nil
}

// outputSize picks "compact" (latest 100 sessions) when the range starts
// recently enough to be covered by it.
func outputSize(start time.Time) string {
	if time.Since(start) < 120*24*time.Hour {
		return "compact"
	}
	return "full"
}

func (f *AlphaVantageFetcher) fail(symbol string, err error) error {
	return &model.ProviderError{Provider: f.Name(), Symbol: symbol, Err: err}
}
