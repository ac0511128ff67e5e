package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("build dashboard: %w", &ProviderError{Provider: "yahoo", Symbol: "AAPL", Err: cause})

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "yahoo", pe.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "build dashboard: yahoo: fetch AAPL: dial tcp: timeout", err.Error())
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestSeriesAccessors(t *testing.T) {
	s := &PriceSeries{Bars: []PriceBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10, AdjClose: 9.5},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 11, AdjClose: 10.5},
	}}
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, s.Dates())
	pts := s.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, 10.5, pts[1].Value)
}
