// Package alerts tracks threshold crossings of the country-risk spread.
package alerts

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/alert"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// DefaultThreshold is the spread level, in basis points, above which the
// alert fires.
const DefaultThreshold = 2500.0

// maxEvents bounds the in-memory transition history.
const maxEvents = 200

// Service evaluates observations against a configurable threshold and keeps
// a bounded log of fired/cleared transitions.
type Service struct {
	log *logger.Logger

	mu          sync.Mutex
	threshold   float64
	firing      bool
	since       time.Time
	lastSpread  float64
	evaluatedAt time.Time
	events      []alert.Event
}

// New constructs an alert service. A non-positive threshold selects the
// default.
func New(threshold float64, log *logger.Logger) *Service {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = logger.NewDefault("alerts")
	}
	return &Service{log: log, threshold: threshold}
}

// Evaluate folds one observation into the alert state. It returns the
// transition event and true when the observation crossed the threshold in
// either direction.
func (s *Service) Evaluate(obs spread.Observation) (alert.Event, bool) {
	at := obs.ObservedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSpread = obs.SpreadBps
	s.evaluatedAt = at

	shouldFire := obs.SpreadBps >= s.threshold
	if shouldFire == s.firing {
		return alert.Event{}, false
	}

	kind := alert.KindCleared
	if shouldFire {
		kind = alert.KindFired
		s.since = at
	} else {
		s.since = time.Time{}
	}
	s.firing = shouldFire

	event := alert.Event{
		At:        at,
		Kind:      kind,
		SpreadBps: obs.SpreadBps,
		Threshold: s.threshold,
	}
	s.events = append(s.events, event)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}

	metrics.RecordAlertTransition(string(kind))
	s.log.WithField("spread_bps", obs.SpreadBps).
		WithField("threshold", s.threshold).
		Warnf("alert %s", kind)
	return event, true
}

// State snapshots the current alert posture.
func (s *Service) State() alert.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return alert.State{
		Threshold:     s.threshold,
		Firing:        s.firing,
		Since:         s.since,
		LastSpreadBps: s.lastSpread,
		EvaluatedAt:   s.evaluatedAt,
	}
}

// Threshold returns the active threshold in basis points.
func (s *Service) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// SetThreshold replaces the threshold. The new value applies from the next
// evaluation; it does not rewrite past transitions.
func (s *Service) SetThreshold(threshold float64) error {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return fmt.Errorf("alert threshold must be a positive number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if threshold != s.threshold {
		s.log.WithField("threshold", threshold).Info("alert threshold updated")
	}
	s.threshold = threshold
	return nil
}

// Events returns up to limit most recent transitions, oldest first. A
// non-positive or oversized limit returns the whole retained window.
func (s *Service) Events(limit int) []alert.Event {
	if limit <= 0 || limit > maxEvents {
		limit = maxEvents
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]alert.Event, len(events))
	copy(out, events)
	return out
}
