package calculator

import (
	"github.com/guregu/null/v6"
)

// RSI computes the Relative Strength Index with simple trailing means of
// gains and losses over period deltas. The first value is defined at index
// period. A window with no losses and some gains reads 100; a flat window
// (no gains, no losses) reads 50.
func RSI(values []float64, period int) []null.Float {
	out := make([]null.Float, len(values))
	if period <= 0 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := period; i < len(values); i++ {
		avgGain := mean(gains[i-period+1 : i+1])
		avgLoss := mean(losses[i-period+1 : i+1])
		out[i] = null.FloatFrom(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
