// Package report formats a dashboard as plain text for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"QuantLab/internal/model"
)

// FormatDashboard renders the summary block and the latest indicator values.
func FormatDashboard(dash *model.Dashboard) string {
	var b strings.Builder
	s := dash.Summary
	series := dash.Series

	b.WriteString(fmt.Sprintf("%s | %s → %s | %s\n\n", s.Symbol,
		series.Start.Format(model.DateLayout), series.End.Format(model.DateLayout), series.Provider))

	// Price over the range
	b.WriteString(fmt.Sprintf("Last close:  %.2f (%+.2f, %+.2f%%)\n", s.LastClose, s.Change, s.ChangePct))
	b.WriteString(fmt.Sprintf("First close: %.2f\n", s.FirstClose))
	b.WriteString(fmt.Sprintf("Range:       %.2f - %.2f\n", s.PeriodLow, s.PeriodHigh))
	b.WriteString(fmt.Sprintf("Bars:        %d\n", s.Bars))

	if len(dash.Indicators) == 0 {
		return b.String()
	}
	last := dash.Indicators[len(dash.Indicators)-1]

	b.WriteString(fmt.Sprintf("\nIndicators on %s:\n", last.Date.Format(model.DateLayout)))
	rows := []struct {
		name string
		v    null.Float
	}{
		{model.IndicatorSMA50, last.SMA50},
		{model.IndicatorSMA200, last.SMA200},
		{model.IndicatorSMA20, last.SMA20},
		{model.IndicatorUpperBand, last.UpperBand},
		{model.IndicatorLowerBand, last.LowerBand},
		{model.IndicatorRSI14, last.RSI14},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-11s %s\n", r.name+":", formatValue(r.v)))
	}

	if last.RSI14.Valid {
		switch {
		case last.RSI14.Float64 >= 70:
			b.WriteString("\nRSI is above 70 (overbought zone)\n")
		case last.RSI14.Float64 <= 30:
			b.WriteString("\nRSI is below 30 (oversold zone)\n")
		}
	}
	return b.String()
}

func formatValue(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}
