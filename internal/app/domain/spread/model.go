package spread

import (
	"errors"
	"time"
)

// ErrInvalidInput indicates that a numeric input was missing, non-finite or
// outside the domain of the estimator.
var ErrInvalidInput = errors.New("invalid numeric input")

// Observation captures one derived country-risk measurement. Observations
// are immutable once recorded.
type Observation struct {
	ID             string    `json:"id"`
	BondSymbol     string    `json:"bond_symbol"`
	YieldSymbol    string    `json:"yield_symbol"`
	BondPrice      float64   `json:"bond_price"`
	ReferenceYield float64   `json:"reference_yield"`
	ApproxYield    float64   `json:"approx_yield"`
	SpreadBps      float64   `json:"spread_bps"`
	Level          Level     `json:"level"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Level buckets a spread into coarse risk bands for display and alerting.
type Level string

const (
	LevelLow      Level = "low"
	LevelElevated Level = "elevated"
	LevelHigh     Level = "high"
)
