package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use. Observations only live for the duration of the process,
// which matches the single-session lifecycle of the monitor.
type Store struct {
	mu           sync.RWMutex
	observations []spread.Observation
	history      []history.DailyPoint
	builtAt      time.Time
}

var _ storage.ObservationStore = (*Store)(nil)
var _ storage.HistoryStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// ObservationStore implementation ---------------------------------------------

func (s *Store) AppendObservation(_ context.Context, obs spread.Observation) (spread.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	} else {
		obs.ObservedAt = obs.ObservedAt.UTC()
	}

	// Insert keeping the slice ordered by observation time. Ties preserve
	// insertion order.
	idx := sort.Search(len(s.observations), func(i int) bool {
		return s.observations[i].ObservedAt.After(obs.ObservedAt)
	})
	s.observations = append(s.observations, spread.Observation{})
	copy(s.observations[idx+1:], s.observations[idx:])
	s.observations[idx] = obs

	return obs, nil
}

func (s *Store) ListObservations(_ context.Context) ([]spread.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]spread.Observation, len(s.observations))
	copy(result, s.observations)
	return result, nil
}

func (s *Store) LatestObservation(_ context.Context) (spread.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.observations) == 0 {
		return spread.Observation{}, storage.ErrNoObservations
	}
	return s.observations[len(s.observations)-1], nil
}

func (s *Store) CountObservations(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations), nil
}

// HistoryStore implementation -------------------------------------------------

func (s *Store) ReplaceHistory(_ context.Context, points []history.DailyPoint) error {
	cloned := make([]history.DailyPoint, len(points))
	for i, p := range points {
		cloned[i] = cloneDailyPoint(p)
	}
	sort.SliceStable(cloned, func(i, j int) bool {
		return cloned[i].Date.Before(cloned[j].Date)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = cloned
	s.builtAt = time.Now().UTC()
	return nil
}

func (s *Store) ListHistory(_ context.Context) ([]history.DailyPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]history.DailyPoint, len(s.history))
	for i, p := range s.history {
		result[i] = cloneDailyPoint(p)
	}
	return result, nil
}

func (s *Store) HistoryForMonth(_ context.Context, year int, month time.Month) ([]history.DailyPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []history.DailyPoint
	for _, p := range s.history {
		if p.Date.Year() == year && p.Date.Month() == month {
			result = append(result, cloneDailyPoint(p))
		}
	}
	return result, nil
}

func (s *Store) HistoryMonths(_ context.Context) ([]history.Month, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[history.Month]struct{})
	var result []history.Month
	for _, p := range s.history {
		m := history.Month{Year: p.Date.Year(), Month: p.Date.Month()}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (s *Store) HistoryBuiltAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt, nil
}

func cloneDailyPoint(p history.DailyPoint) history.DailyPoint {
	out := p
	if p.MA7 != nil {
		v := *p.MA7
		out.MA7 = &v
	}
	if p.MA30 != nil {
		v := *p.MA30
		out.MA30 = &v
	}
	return out
}
