package quote

import (
	"errors"
	"time"
)

// ErrUnavailable indicates that no configured source could produce a usable
// price for the requested symbol.
var ErrUnavailable = errors.New("quote unavailable")

// ErrYieldUnavailable indicates that the benchmark yield feed could not
// produce a usable value.
var ErrYieldUnavailable = errors.New("reference yield unavailable")

// Quote represents a resolved bond price observation.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency,omitempty"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// ReferenceYield represents a benchmark treasury yield in percent.
type ReferenceYield struct {
	Symbol     string    `json:"symbol"`
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}
