// Package recorder maintains the append-only series of observations made
// during the current monitoring session and exports it as CSV.
package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// csvHeader is the stable export column order.
var csvHeader = []string{"timestamp", "price", "reference_yield", "approx_yield", "spread_bps"}

// Service records observations into the session store.
type Service struct {
	store     storage.ObservationStore
	log       *logger.Logger
	sessionID string
}

// New constructs a recorder bound to the given store.
func New(store storage.ObservationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("recorder")
	}
	return &Service{
		store:     store,
		log:       log,
		sessionID: uuid.NewString(),
	}
}

// SessionID identifies this monitoring session. It names the CSV export so
// downloads from different sessions do not collide.
func (s *Service) SessionID() string { return s.sessionID }

// Record appends one observation and updates the spread gauges.
func (s *Service) Record(ctx context.Context, obs spread.Observation) (spread.Observation, error) {
	if obs.BondPrice <= 0 {
		return spread.Observation{}, fmt.Errorf("observation price must be positive")
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}

	recorded, err := s.store.AppendObservation(ctx, obs)
	if err != nil {
		return spread.Observation{}, fmt.Errorf("append observation: %w", err)
	}

	metrics.SetCurrentSpread(recorded.SpreadBps, recorded.BondPrice, recorded.ReferenceYield)
	s.log.WithField("spread_bps", recorded.SpreadBps).
		WithField("level", string(recorded.Level)).
		Info("observation recorded")
	return recorded, nil
}

// List returns all observations ordered by observation time.
func (s *Service) List(ctx context.Context) ([]spread.Observation, error) {
	return s.store.ListObservations(ctx)
}

// Latest returns the most recent observation.
func (s *Service) Latest(ctx context.Context) (spread.Observation, error) {
	return s.store.LatestObservation(ctx)
}

// Count reports how many observations the session holds.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountObservations(ctx)
}

// WriteCSV streams the session series as CSV, header first.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	observations, err := s.store.ListObservations(ctx)
	if err != nil {
		return fmt.Errorf("list observations: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, obs := range observations {
		record := []string{
			obs.ObservedAt.UTC().Format(time.RFC3339),
			formatFloat(obs.BondPrice),
			formatFloat(obs.ReferenceYield),
			formatFloat(obs.ApproxYield),
			formatFloat(obs.SpreadBps),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
