package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"QuantLab/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps user-facing symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration, symbolMap map[string]string) *YahooFetcher {
	m := map[string]string{
		"SPX500": "^GSPC",
		"SPX":    "^GSPC",
		"SP500":  "^GSPC",
	}
	for k, v := range symbolMap {
		m[strings.ToUpper(k)] = v
	}
	return &YahooFetcher{
		BaseURL:   yahooBaseURL,
		Client:    newHTTPClient(proxyURL, timeout),
		SymbolMap: m,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
// Prices are pointers because Yahoo reports holidays and halts as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// FetchDailyBars downloads daily bars between start and end inclusive.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(dateOnly(start).Unix(), 10))
	// period2 is exclusive; extend by a day so end is included.
	q.Set("period2", strconv.FormatInt(dateOnly(end).AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, f.fail(symbol, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, f.fail(symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fail(symbol, fmt.Errorf("read body: %w", err))
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, model.ErrNoData)
		}
		return nil, f.fail(symbol, fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, f.fail(symbol, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200)))
	}
	if decodeErr != nil {
		return nil, f.fail(symbol, fmt.Errorf("decode: %w", decodeErr))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue // null bar (holiday, halt)
		}
		a, ok := at(adj, i)
		if !ok {
			a = c
		}
		v, _ := at(quote.Volume, i)

		d := dateOnly(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if !inRange(d, start, end) {
			continue
		}
		bars = append(bars, model.PriceBar{
			Date:     d,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			AdjClose: a,
			Volume:   v,
		})
	}

	return normalizeBars(bars), nil
}

func (f *YahooFetcher) fail(symbol string, err error) error {
	return &model.ProviderError{Provider: f.Name(), Symbol: symbol, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
