package cmd

import (
	"fmt"
	"log/slog"

	"QuantLab/internal/chart"
	"QuantLab/internal/collector"
	"QuantLab/internal/config"
	"QuantLab/internal/snapshot"
	"QuantLab/internal/store"
)

// newFetcher builds the configured market data provider. The returned close
// func releases the bar store when the provider reads from it.
func newFetcher(c *config.Config) (collector.Fetcher, func() error, error) {
	noop := func() error { return nil }
	var f collector.Fetcher
	switch c.DataSource.Provider {
	case config.ProviderYahoo:
		yf := collector.NewYahooFetcher(c.Proxy, c.DataSource.Timeout, c.DataSource.SymbolMap)
		if c.DataSource.BaseURL != "" {
			yf.BaseURL = c.DataSource.BaseURL
		}
		f = yf
	case config.ProviderAlphaVantage:
		f = collector.NewAlphaVantageFetcher(c.DataSource.BaseURL, c.DataSource.APIKey, c.Proxy, c.DataSource.Timeout)
	case config.ProviderSQLite:
		s, err := store.Open(c.Database.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open bar store: %w", err)
		}
		slog.Info("data source", "provider", config.ProviderSQLite, "path", c.Database.SQLitePath)
		return collector.NewSQLiteFetcher(s), s.Close, nil
	case config.ProviderMock:
		f = &collector.MockFetcher{}
	default:
		return nil, noop, fmt.Errorf("unsupported provider %q", c.DataSource.Provider)
	}
	slog.Info("data source", "provider", f.Name())
	return f, noop, nil
}

func chartOptions(c *config.Config) chart.Options {
	return chart.Options{
		Width:       c.Chart.Width,
		PriceHeight: c.Chart.PriceHeight,
		RSIHeight:   c.Chart.RSIHeight,
		AssetsHost:  c.Chart.AssetsHost,
	}
}

func snapshotOptions(c *config.Config) snapshot.Options {
	return snapshot.Options{
		Headless: c.Snapshot.Headless,
		Timeout:  c.Snapshot.Timeout,
		Width:    c.Snapshot.Width,
		Height:   c.Snapshot.Height,
	}
}
