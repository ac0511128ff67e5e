package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"QuantLab/internal/model"
)

// ParseCSV reads daily bars in the Yahoo Finance download layout:
// Date,Open,High,Low,Close,Adj Close,Volume. Column order is taken from the
// header; "Adj Close" is optional and falls back to Close. Rows carrying
// "null" prices are skipped. The result is sorted by date with duplicate
// dates collapsed to the last occurrence.
func ParseCSV(r io.Reader) ([]model.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header: %w", model.ErrInvalidInput)
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[need]; !ok {
			return nil, fmt.Errorf("csv: missing column %q: %w", need, model.ErrInvalidInput)
		}
	}
	adjCol, hasAdj := cols["adj close"]
	volCol, hasVol := cols["volume"]

	byDate := make(map[string]model.PriceBar)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		date, err := time.Parse(model.DateLayout, strings.TrimSpace(rec[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad date: %w", line, model.ErrInvalidInput)
		}

		var b model.PriceBar
		b.Date = date
		fields := []struct {
			col int
			dst *float64
		}{
			{cols["open"], &b.Open},
			{cols["high"], &b.High},
			{cols["low"], &b.Low},
			{cols["close"], &b.Close},
		}
		skip := false
		for _, f := range fields {
			v, ok, err := parseField(rec[f.col])
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
			if !ok {
				skip = true
				break
			}
			*f.dst = v
		}
		if skip {
			continue
		}

		b.AdjClose = b.Close
		if hasAdj {
			if v, ok, err := parseField(rec[adjCol]); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			} else if ok {
				b.AdjClose = v
			}
		}
		if hasVol {
			if v, ok, err := parseField(rec[volCol]); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			} else if ok {
				b.Volume = v
			}
		}
		byDate[date.Format(model.DateLayout)] = b
	}

	bars := make([]model.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseField(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad number %q: %w", s, model.ErrInvalidInput)
	}
	return v, true, nil
}

// ImportCSV parses r and upserts the bars under symbol.
func (s *BarStore) ImportCSV(ctx context.Context, symbol string, r io.Reader) (int, error) {
	bars, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("import %s: %w", normalize(symbol), model.ErrNoData)
	}
	return s.UpsertBars(ctx, symbol, bars)
}
