package calculator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantLab/internal/model"
)

func points(values []float64) []model.Point {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]model.Point, len(values))
	for i, v := range values {
		pts[i] = model.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	return pts
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		p += r.NormFloat64()
		if p < 1 {
			p = 1
		}
		out[i] = p
	}
	return out
}

func TestSMA_UndefinedUntilWindowFills(t *testing.T) {
	got := SMA(ramp(10), 3)
	require.Len(t, got, 10)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	for i := 2; i < 10; i++ {
		require.True(t, got[i].Valid, "index %d", i)
		// mean of (i-1, i, i+1) is i
		assert.Equal(t, float64(i), got[i].Float64)
	}
}

func TestSMA_ExactTrailingMean(t *testing.T) {
	values := randomWalk(120, 7)
	got := SMA(values, 50)
	for i, v := range got {
		if i < 49 {
			assert.False(t, v.Valid, "index %d", i)
			continue
		}
		sum := 0.0
		for _, x := range values[i-49 : i+1] {
			sum += x
		}
		assert.InDelta(t, sum/50, v.Float64, 1e-9)
	}
}

func TestSMA_NonPositivePeriod(t *testing.T) {
	for _, v := range SMA(ramp(5), 0) {
		assert.False(t, v.Valid)
	}
}

func TestStdDev_SampleFixture(t *testing.T) {
	// Sample variance of 1..20 is n(n+1)/12 = 35.
	got := StdDev(ramp(20), 20)
	require.True(t, got[19].Valid)
	assert.InDelta(t, math.Sqrt(35), got[19].Float64, 1e-12)
	assert.False(t, got[18].Valid)
}

func TestBollinger_ConstantSeries(t *testing.T) {
	mid, upper, lower := Bollinger(constant(30, 100), 20, 2)
	for i := 0; i < 30; i++ {
		if i < 19 {
			assert.False(t, mid[i].Valid)
			assert.False(t, upper[i].Valid)
			assert.False(t, lower[i].Valid)
			continue
		}
		assert.Equal(t, 100.0, mid[i].Float64)
		assert.Equal(t, mid[i].Float64, upper[i].Float64)
		assert.Equal(t, mid[i].Float64, lower[i].Float64)
	}
}

func TestBollinger_WidthIsFourStdDev(t *testing.T) {
	values := randomWalk(200, 42)
	_, upper, lower := Bollinger(values, 20, 2)
	sd := StdDev(values, 20)
	for i := range values {
		if !upper[i].Valid {
			continue
		}
		width := upper[i].Float64 - lower[i].Float64
		assert.GreaterOrEqual(t, width, 0.0)
		assert.InDelta(t, 4*sd[i].Float64, width, 1e-9)
	}
}

func TestRSI_KnownValue(t *testing.T) {
	// gains [_,1,0] losses [_,0,0.5] -> avg 0.5 / 0.25 -> RS 2
	got := RSI([]float64{10, 11, 10.5}, 2)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	require.True(t, got[2].Valid)
	assert.InDelta(t, 100-100.0/3, got[2].Float64, 1e-9)
}

func TestRSI_MonotonicIncreaseIs100(t *testing.T) {
	got := RSI(ramp(50), 14)
	for i, v := range got {
		if i < 14 {
			assert.False(t, v.Valid, "index %d", i)
			continue
		}
		assert.Equal(t, 100.0, v.Float64, "index %d", i)
	}
}

func TestRSI_MonotonicDecreaseIsZero(t *testing.T) {
	values := ramp(30)
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	got := RSI(values, 14)
	for i := 14; i < len(got); i++ {
		assert.Equal(t, 0.0, got[i].Float64)
	}
}

func TestRSI_FlatIs50(t *testing.T) {
	got := RSI(constant(30, 42), 14)
	for i := 14; i < 30; i++ {
		assert.Equal(t, 50.0, got[i].Float64)
	}
}

func TestRSI_AlwaysInRange(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		for i, v := range RSI(randomWalk(300, seed), 14) {
			if !v.Valid {
				continue
			}
			assert.False(t, math.IsNaN(v.Float64), "seed %d index %d", seed, i)
			assert.GreaterOrEqual(t, v.Float64, 0.0)
			assert.LessOrEqual(t, v.Float64, 100.0)
		}
	}
}

func TestCompute_AlignedLength(t *testing.T) {
	for _, n := range []int{1, 13, 14, 15, 49, 50, 199, 200, 250} {
		pts := points(randomWalk(n, int64(n)))
		set, err := Compute(pts)
		require.NoError(t, err)
		require.Len(t, set, n)
		for i := range set {
			assert.True(t, set[i].Date.Equal(pts[i].Date))
		}
	}
}

func TestCompute_LookbackRegions(t *testing.T) {
	set, err := Compute(points(randomWalk(250, 3)))
	require.NoError(t, err)

	firstValid := func(get func(model.IndicatorRow) bool) int {
		for i, row := range set {
			if get(row) {
				return i
			}
		}
		return -1
	}
	assert.Equal(t, 49, firstValid(func(r model.IndicatorRow) bool { return r.SMA50.Valid }))
	assert.Equal(t, 199, firstValid(func(r model.IndicatorRow) bool { return r.SMA200.Valid }))
	assert.Equal(t, 19, firstValid(func(r model.IndicatorRow) bool { return r.SMA20.Valid }))
	assert.Equal(t, 19, firstValid(func(r model.IndicatorRow) bool { return r.UpperBand.Valid }))
	assert.Equal(t, 19, firstValid(func(r model.IndicatorRow) bool { return r.LowerBand.Valid }))
	assert.Equal(t, 14, firstValid(func(r model.IndicatorRow) bool { return r.RSI14.Valid }))
}

func TestCompute_ConstantScenario(t *testing.T) {
	set, err := Compute(points(constant(30, 25)))
	require.NoError(t, err)
	for i, row := range set {
		assert.False(t, row.SMA50.Valid)
		assert.False(t, row.SMA200.Valid)
		if i >= 19 {
			assert.Equal(t, 25.0, row.SMA20.Float64)
			assert.Equal(t, row.SMA20.Float64, row.UpperBand.Float64)
			assert.Equal(t, row.SMA20.Float64, row.LowerBand.Float64)
		} else {
			assert.False(t, row.SMA20.Valid)
		}
		if i >= 14 {
			assert.Equal(t, 50.0, row.RSI14.Float64)
		} else {
			assert.False(t, row.RSI14.Valid)
		}
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	dup := points(ramp(5))
	dup[3].Date = dup[2].Date
	_, err = Compute(dup)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	backwards := points(ramp(5))
	backwards[4].Date = backwards[0].Date.AddDate(0, 0, -1)
	_, err = Compute(backwards)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	nan := points(ramp(5))
	nan[2].Value = math.NaN()
	_, err = Compute(nan)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = ComputeSeries(nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCompute_PrefixDeterminism(t *testing.T) {
	values := randomWalk(260, 11)
	full, err := Compute(points(values))
	require.NoError(t, err)
	prefix, err := Compute(points(values[:230]))
	require.NoError(t, err)
	for i := range prefix {
		assert.Equal(t, full[i], prefix[i], "index %d", i)
	}
}
