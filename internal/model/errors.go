package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the provider returned no bars for the ticker and range.
	ErrNoData = errors.New("no data found")

	// ErrInvalidInput means a request or a date sequence is malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderError wraps a network or lookup failure from a market data provider.
type ProviderError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
