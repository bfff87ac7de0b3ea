package history

import "time"

// DailyPoint is one day of the joined bond/benchmark history. MA7 and MA30
// are nil until the trailing window is fully populated.
type DailyPoint struct {
	Date           time.Time `json:"date"`
	BondPrice      float64   `json:"bond_price"`
	ReferenceYield float64   `json:"reference_yield"`
	ApproxYield    float64   `json:"approx_yield"`
	SpreadBps      float64   `json:"spread_bps"`
	MA7            *float64  `json:"ma7,omitempty"`
	MA30           *float64  `json:"ma30,omitempty"`
}

// Month identifies a calendar month present in the history series.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Bar is a single daily close as returned by an upstream chart source.
type Bar struct {
	Date  time.Time
	Close float64
}
