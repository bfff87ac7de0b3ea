package alert

import "time"

// Kind distinguishes alert transitions.
type Kind string

const (
	KindFired   Kind = "fired"
	KindCleared Kind = "cleared"
)

// Event records a single threshold crossing.
type Event struct {
	At        time.Time `json:"at"`
	Kind      Kind      `json:"kind"`
	SpreadBps float64   `json:"spread_bps"`
	Threshold float64   `json:"threshold"`
}

// State is the current alert posture derived from the most recent
// observation.
type State struct {
	Threshold     float64   `json:"threshold"`
	Firing        bool      `json:"firing"`
	Since         time.Time `json:"since,omitempty"`
	LastSpreadBps float64   `json:"last_spread_bps"`
	EvaluatedAt   time.Time `json:"evaluated_at,omitempty"`
}
