package report

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"QuantLab/internal/model"
)

func sampleDashboard(rsi null.Float) *model.Dashboard {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &model.Dashboard{
		Series: &model.PriceSeries{
			Symbol:   "AAPL",
			Provider: "mock",
			Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:      d,
		},
		Indicators: model.IndicatorSet{{
			Date:      d,
			SMA20:     null.FloatFrom(180.123),
			UpperBand: null.FloatFrom(190),
			LowerBand: null.FloatFrom(170),
			RSI14:     rsi,
		}},
		Summary: model.Summary{
			Symbol: "AAPL", Bars: 42, FirstClose: 170, LastClose: 180.5,
			Change: 10.5, ChangePct: 6.18, PeriodHigh: 190.2, PeriodLow: 165.1,
		},
	}
}

func TestFormatDashboard(t *testing.T) {
	out := FormatDashboard(sampleDashboard(null.FloatFrom(55)))

	assert.Contains(t, out, "AAPL | 2024-01-01 → 2024-03-01 | mock")
	assert.Contains(t, out, "Last close:  180.50 (+10.50, +6.18%)")
	assert.Contains(t, out, "Range:       165.10 - 190.20")
	assert.Contains(t, out, "Bars:        42")
	assert.Contains(t, out, "Indicators on 2024-03-01:")
	assert.Contains(t, out, "SMA 20:     180.12")
	assert.Contains(t, out, "SMA 200:    n/a")
	assert.Contains(t, out, "RSI (14):   55.00")
	assert.NotContains(t, out, "overbought")
}

func TestFormatDashboard_RSIZones(t *testing.T) {
	assert.Contains(t, FormatDashboard(sampleDashboard(null.FloatFrom(82))), "overbought")
	assert.Contains(t, FormatDashboard(sampleDashboard(null.FloatFrom(12))), "oversold")
	assert.NotContains(t, FormatDashboard(sampleDashboard(null.Float{})), "zone")
}

func TestFormatDashboard_NoIndicators(t *testing.T) {
	dash := sampleDashboard(null.Float{})
	dash.Indicators = nil
	out := FormatDashboard(dash)
	assert.Contains(t, out, "Bars:        42")
	assert.NotContains(t, out, "Indicators on")
}
