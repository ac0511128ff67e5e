package calculator

import (
	"github.com/guregu/null/v6"
)

// SMA computes the simple moving average of values over a trailing window.
// The result is aligned with values; entries before the window fills are invalid.
func SMA(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = null.FloatFrom(mean(values[i-period+1 : i+1]))
	}
	return out
}

func mean(window []float64) float64 {
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}
