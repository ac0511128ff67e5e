package calculator

import (
	"math"

	"github.com/guregu/null/v6"
)

// StdDev computes the sample standard deviation (divisor period-1) of the
// trailing period values. It shares the undefined region of SMA(period).
func StdDev(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 1 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		m := mean(window)
		ss := 0.0
		for _, v := range window {
			d := v - m
			ss += d * d
		}
		out[i] = null.FloatFrom(math.Sqrt(ss / float64(period-1)))
	}
	return out
}

// Bollinger returns the middle band (SMA), upper band and lower band at
// k sample standard deviations around it.
func Bollinger(values []float64, period int, k float64) (mid, upper, lower []null.Float) {
	mid = SMA(values, period)
	sd := StdDev(values, period)
	upper = make([]null.Float, len(values))
	lower = make([]null.Float, len(values))
	for i := range values {
		if !mid[i].Valid || !sd[i].Valid {
			continue
		}
		upper[i] = null.FloatFrom(mid[i].Float64 + k*sd[i].Float64)
		lower[i] = null.FloatFrom(mid[i].Float64 - k*sd[i].Float64)
	}
	return mid, upper, lower
}
