// Package calculator derives technical indicator columns from a price series.
//
// Every function is pure: it reads an already-fetched series and returns new
// slices aligned index-for-index with the input. Values whose lookback window
// is not yet filled are returned as invalid null.Float, never 0 or NaN.
package calculator

import (
	"fmt"
	"math"

	"QuantLab/internal/model"
)

// Standard windows used by the dashboard.
const (
	FastSMAPeriod    = 50
	SlowSMAPeriod    = 200
	BollingerPeriod  = 20
	BollingerStdMult = 2.0
	RSIPeriod        = 14
)

// Compute derives the full IndicatorSet from ordered adjusted-close points.
// It fails with model.ErrInvalidInput when points is empty or its dates are
// not strictly increasing, or a value is not finite. Short input is not an error.
func Compute(points []model.Point) (model.IndicatorSet, error) {
	if err := validate(points); err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	sma50 := SMA(values, FastSMAPeriod)
	sma200 := SMA(values, SlowSMAPeriod)
	sma20, upper, lower := Bollinger(values, BollingerPeriod, BollingerStdMult)
	rsi := RSI(values, RSIPeriod)

	set := make(model.IndicatorSet, len(points))
	for i, p := range points {
		set[i] = model.IndicatorRow{
			Date:      p.Date,
			SMA50:     sma50[i],
			SMA200:    sma200[i],
			SMA20:     sma20[i],
			UpperBand: upper[i],
			LowerBand: lower[i],
			RSI14:     rsi[i],
		}
	}
	return set, nil
}

// ComputeSeries is Compute over the adjusted closes of a PriceSeries.
func ComputeSeries(series *model.PriceSeries) (model.IndicatorSet, error) {
	if series == nil {
		return nil, fmt.Errorf("nil series: %w", model.ErrInvalidInput)
	}
	return Compute(series.Points())
}

func validate(points []model.Point) error {
	if len(points) == 0 {
		return fmt.Errorf("empty price series: %w", model.ErrInvalidInput)
	}
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("non-finite value at index %d: %w", i, model.ErrInvalidInput)
		}
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			return fmt.Errorf("date %s at index %d does not follow %s: %w",
				points[i].Date.Format(model.DateLayout), i,
				points[i-1].Date.Format(model.DateLayout), model.ErrInvalidInput)
		}
	}
	return nil
}
