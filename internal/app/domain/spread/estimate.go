package spread

import (
	"fmt"
	"math"
	"time"
)

// Band boundaries in basis points.
const (
	lowBandCeiling      = 1500.0
	elevatedBandCeiling = 2500.0
)

// ImpliedYield derives a coarse dollar yield in percent from a hard-dollar
// bond price. The approximation treats the bond as a ten-cashflow par
// instrument: (100 / price) * 10, floored at zero. It deliberately ignores
// coupon schedules and amortisation.
func ImpliedYield(price float64) (float64, error) {
	if !isFinite(price) {
		return 0, fmt.Errorf("bond price %v: %w", price, ErrInvalidInput)
	}
	if price <= 0 {
		return 0, fmt.Errorf("bond price must be positive: %w", ErrInvalidInput)
	}
	yield := (100 / price) * 10
	return math.Max(0, yield), nil
}

// Bps returns the spread between an approximate sovereign yield and the
// benchmark yield, expressed in basis points. Negative spreads are valid;
// non-finite inputs are not.
func Bps(approxYield, referenceYield float64) (float64, error) {
	if !isFinite(approxYield) {
		return 0, fmt.Errorf("approx yield %v: %w", approxYield, ErrInvalidInput)
	}
	if !isFinite(referenceYield) {
		return 0, fmt.Errorf("reference yield %v: %w", referenceYield, ErrInvalidInput)
	}
	return (approxYield - referenceYield) * 100, nil
}

// Estimate derives a full observation from a bond price and a benchmark
// yield. The caller supplies provenance and the observation timestamp.
func Estimate(bondSymbol, yieldSymbol string, price, referenceYield float64, observedAt time.Time) (Observation, error) {
	approx, err := ImpliedYield(price)
	if err != nil {
		return Observation{}, err
	}
	bps, err := Bps(approx, referenceYield)
	if err != nil {
		return Observation{}, err
	}
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	return Observation{
		BondSymbol:     bondSymbol,
		YieldSymbol:    yieldSymbol,
		BondPrice:      price,
		ReferenceYield: referenceYield,
		ApproxYield:    approx,
		SpreadBps:      bps,
		Level:          Classify(bps),
		ObservedAt:     observedAt.UTC(),
	}, nil
}

// Classify buckets a spread into the display bands used by the dashboard.
func Classify(spreadBps float64) Level {
	switch {
	case spreadBps < lowBandCeiling:
		return LevelLow
	case spreadBps < elevatedBandCeiling:
		return LevelElevated
	default:
		return LevelHigh
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
