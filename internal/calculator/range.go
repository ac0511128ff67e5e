package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"QuantLab/internal/model"
)

// Summarize scans the series for the period high and low and the change in
// adjusted close from the first to the last bar. Display values are rounded
// to cents, percentages to two decimals.
func Summarize(series *model.PriceSeries) (model.Summary, error) {
	if series == nil || len(series.Bars) == 0 {
		return model.Summary{}, fmt.Errorf("summarize: %w", model.ErrNoData)
	}
	bars := series.Bars

	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	first := decimal.NewFromFloat(bars[0].AdjClose)
	last := decimal.NewFromFloat(bars[len(bars)-1].AdjClose)
	change := last.Sub(first)
	pct := decimal.Zero
	if !first.IsZero() {
		pct = change.Div(first).Mul(decimal.NewFromInt(100))
	}

	return model.Summary{
		Symbol:     series.Symbol,
		Bars:       len(bars),
		FirstClose: round(first, 2),
		LastClose:  round(last, 2),
		Change:     round(change, 2),
		ChangePct:  round(pct, 2),
		PeriodHigh: round(decimal.NewFromFloat(high), 2),
		PeriodLow:  round(decimal.NewFromFloat(low), 2),
	}, nil
}

func round(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}
