package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Indicator names as shown in charts and reports.
const (
	IndicatorSMA50     = "SMA 50"
	IndicatorSMA200    = "SMA 200"
	IndicatorSMA20     = "SMA 20"
	IndicatorUpperBand = "Upper Band"
	IndicatorLowerBand = "Lower Band"
	IndicatorRSI14     = "RSI (14)"
)

// IndicatorRow holds the derived values for one bar date.
// An invalid null.Float means the lookback window is not yet filled.
type IndicatorRow struct {
	Date      time.Time  `json:"date"`
	SMA50     null.Float `json:"sma50"`
	SMA200    null.Float `json:"sma200"`
	SMA20     null.Float `json:"sma20"`
	UpperBand null.Float `json:"upper_band"`
	LowerBand null.Float `json:"lower_band"`
	RSI14     null.Float `json:"rsi14"`
}

// IndicatorSet is aligned index-for-index with the PriceSeries it was derived from.
type IndicatorSet []IndicatorRow

// Summary is the headline block shown above the charts.
type Summary struct {
	Symbol     string  `json:"symbol"`
	Bars       int     `json:"bars"`
	FirstClose float64 `json:"first_close"`
	LastClose  float64 `json:"last_close"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	PeriodHigh float64 `json:"period_high"`
	PeriodLow  float64 `json:"period_low"`
}

// Dashboard is everything one pipeline run produces.
type Dashboard struct {
	Series     *PriceSeries `json:"series"`
	Indicators IndicatorSet `json:"indicators"`
	Summary    Summary      `json:"summary"`
}
