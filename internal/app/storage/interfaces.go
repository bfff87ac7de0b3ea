package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
)

// ErrNoObservations is returned when a read requires at least one recorded
// observation and none exist yet.
var ErrNoObservations = errors.New("no observations recorded")

// ObservationStore persists the spread observations recorded during the
// current monitoring session. Observations are append-only and reads return
// them ordered by observation time.
type ObservationStore interface {
	AppendObservation(ctx context.Context, obs spread.Observation) (spread.Observation, error)
	ListObservations(ctx context.Context) ([]spread.Observation, error)
	LatestObservation(ctx context.Context) (spread.Observation, error)
	CountObservations(ctx context.Context) (int, error)
}

// HistoryStore holds the most recently rebuilt daily history series.
type HistoryStore interface {
	ReplaceHistory(ctx context.Context, points []history.DailyPoint) error
	ListHistory(ctx context.Context) ([]history.DailyPoint, error)
	HistoryForMonth(ctx context.Context, year int, month time.Month) ([]history.DailyPoint, error)
	HistoryMonths(ctx context.Context) ([]history.Month, error)
	HistoryBuiltAt(ctx context.Context) (time.Time, error)
}
