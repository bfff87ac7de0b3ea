// Package history rebuilds the multi-year daily spread series from upstream
// chart data and serves month slices of it.
package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// Defaults for the aggregation: five years of history, considered stale
// after ten minutes.
const (
	DefaultSpanYears  = 5
	DefaultStaleAfter = 10 * time.Minute
)

const (
	defaultBondSymbol  = "AL30D.BA"
	defaultYieldSymbol = "^TNX"
)

// csvHeader is the month export column order.
var csvHeader = []string{"date", "price", "reference_yield", "approx_yield", "spread_bps", "ma7", "ma30"}

// Service owns the daily history series: it rebuilds it from the chart
// source and answers month-sliced reads from the store.
type Service struct {
	source ChartSource
	store  storage.HistoryStore
	log    *logger.Logger

	mu          sync.Mutex
	bondSymbol  string
	yieldSymbol string
	spanYears   int
	staleAfter  time.Duration

	rebuildMu sync.Mutex
}

// New constructs a history service over the default instrument pair.
func New(source ChartSource, store storage.HistoryStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("history")
	}
	return &Service{
		source:      source,
		store:       store,
		log:         log,
		bondSymbol:  defaultBondSymbol,
		yieldSymbol: defaultYieldSymbol,
		spanYears:   DefaultSpanYears,
		staleAfter:  DefaultStaleAfter,
	}
}

// WithSymbols overrides the instrument pair. Blank values keep the current
// symbols.
func (s *Service) WithSymbols(bondSymbol, yieldSymbol string) {
	s.mu.Lock()
	if v := strings.TrimSpace(bondSymbol); v != "" {
		s.bondSymbol = v
	}
	if v := strings.TrimSpace(yieldSymbol); v != "" {
		s.yieldSymbol = v
	}
	s.mu.Unlock()
}

// WithSpan overrides how many years of history a rebuild covers.
func (s *Service) WithSpan(years int) {
	if years <= 0 {
		return
	}
	s.mu.Lock()
	s.spanYears = years
	s.mu.Unlock()
}

// WithStaleAfter overrides the age at which EnsureFresh triggers a rebuild.
func (s *Service) WithStaleAfter(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.staleAfter = d
	s.mu.Unlock()
}

// Rebuild fetches both daily series, joins them, and replaces the stored
// history. Only one rebuild runs at a time; concurrent callers queue.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	s.mu.Lock()
	bondSymbol, yieldSymbol, spanYears := s.bondSymbol, s.yieldSymbol, s.spanYears
	s.mu.Unlock()

	started := time.Now()
	end := time.Now()
	start := end.AddDate(-spanYears, 0, 0)

	bondBars, err := s.source.DailyBars(ctx, bondSymbol, start, end)
	if err != nil {
		metrics.RecordHistoryRebuild("error", 0)
		return fmt.Errorf("load bond history: %w", err)
	}
	yieldBars, err := s.source.DailyBars(ctx, yieldSymbol, start, end)
	if err != nil {
		metrics.RecordHistoryRebuild("error", 0)
		return fmt.Errorf("load yield history: %w", err)
	}

	points := BuildDaily(bondBars, yieldBars)
	if len(points) == 0 {
		metrics.RecordHistoryRebuild("empty", 0)
		return fmt.Errorf("bond and yield histories share no days")
	}

	if err := s.store.ReplaceHistory(ctx, points); err != nil {
		metrics.RecordHistoryRebuild("error", 0)
		return fmt.Errorf("replace history: %w", err)
	}

	metrics.RecordHistoryRebuild("ok", len(points))
	s.log.WithField("points", len(points)).
		WithField("took", time.Since(started).Round(time.Millisecond).String()).
		Info("history rebuilt")
	return nil
}

// EnsureFresh rebuilds when the stored series is missing or older than the
// staleness window.
func (s *Service) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	staleAfter := s.staleAfter
	s.mu.Unlock()

	builtAt, err := s.store.HistoryBuiltAt(ctx)
	if err == nil && !builtAt.IsZero() && time.Since(builtAt) < staleAfter {
		return nil
	}
	return s.Rebuild(ctx)
}

// List returns the full stored series in date order.
func (s *Service) List(ctx context.Context) ([]domain.DailyPoint, error) {
	return s.store.ListHistory(ctx)
}

// ForMonth returns the slice of the series falling in the given month.
func (s *Service) ForMonth(ctx context.Context, year int, month time.Month) ([]domain.DailyPoint, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d out of range", month)
	}
	return s.store.HistoryForMonth(ctx, year, month)
}

// Months lists the (year, month) pairs present in the series, oldest first.
func (s *Service) Months(ctx context.Context) ([]domain.Month, error) {
	return s.store.HistoryMonths(ctx)
}

// BuiltAt reports when the stored series was last rebuilt.
func (s *Service) BuiltAt(ctx context.Context) (time.Time, error) {
	return s.store.HistoryBuiltAt(ctx)
}

// CSVFilename names a month export the way the series has always been
// published, with an unpadded month.
func CSVFilename(year int, month time.Month) string {
	return fmt.Sprintf("riesgo_pais_%d_%d.csv", year, int(month))
}

// WriteMonthCSV streams one month of the series as CSV. Moving-average
// cells stay empty until their window is populated.
func (s *Service) WriteMonthCSV(ctx context.Context, w io.Writer, year int, month time.Month) error {
	points, err := s.ForMonth(ctx, year, month)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range points {
		record := []string{
			p.Date.UTC().Format("2006-01-02"),
			formatFloat(p.BondPrice),
			formatFloat(p.ReferenceYield),
			formatFloat(p.ApproxYield),
			formatFloat(p.SpreadBps),
			formatMean(p.MA7),
			formatMean(p.MA30),
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

func formatMean(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
