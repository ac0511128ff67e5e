package collector

import (
	"context"
	"time"

	"QuantLab/internal/model"
	"QuantLab/internal/store"
)

// SQLiteFetcher serves bars from the offline bar store.
type SQLiteFetcher struct {
	Store *store.BarStore
}

// NewSQLiteFetcher wraps an opened bar store.
func NewSQLiteFetcher(s *store.BarStore) *SQLiteFetcher {
	return &SQLiteFetcher{Store: s}
}

func (f *SQLiteFetcher) Name() string { return "sqlite" }

func (f *SQLiteFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	bars, err := f.Store.Bars(ctx, symbol, dateOnly(start), dateOnly(end))
	if err != nil {
		return nil, &model.ProviderError{Provider: f.Name(), Symbol: symbol, Err: err}
	}
	return bars, nil
}
