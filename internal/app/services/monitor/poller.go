// Package monitor drives the periodic observation cycle: resolve the bond
// quote and the benchmark yield, estimate the spread, record it, and update
// the alert state.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/services/alerts"
	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
	"github.com/pampa-analytics/riskfeed/internal/app/services/recorder"
	"github.com/pampa-analytics/riskfeed/internal/app/services/treasury"
	"github.com/pampa-analytics/riskfeed/internal/app/system"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// Poll interval bounds. Requests outside the band are clamped, not rejected.
const (
	MinInterval     = 30 * time.Second
	MaxInterval     = 10 * time.Minute
	DefaultInterval = time.Minute
)

// Default instrument pair: an ARS-settled sovereign bond priced in USD and
// the 10Y US treasury yield index.
const (
	DefaultBondSymbol  = "AL30D.BA"
	DefaultYieldSymbol = "^TNX"
)

// cycleTimeout bounds one full observation cycle, both fetches included.
const cycleTimeout = 15 * time.Second

// Cycle outcomes, used as the metrics status label.
const (
	StatusOK               = "ok"
	StatusQuoteUnavailable = "quote_unavailable"
	StatusYieldUnavailable = "yield_unavailable"
	StatusInvalidInput     = "invalid_input"
	StatusRecordFailed     = "record_failed"
)

var _ system.Service = (*Poller)(nil)

// Poller runs the observation cycle on a fixed schedule. A failed cycle is
// logged and counted but records nothing; the loop keeps running and the
// previously recorded observation stays current.
type Poller struct {
	quotes   *quotes.Service
	treasury *treasury.Service
	recorder *recorder.Service
	alerts   *alerts.Service
	log      *logger.Logger

	bondSymbol  string
	yieldSymbol string

	bump chan struct{}

	mu          sync.Mutex
	interval    time.Duration
	lastStatus  string
	lastCycleAt time.Time
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
}

// New creates a poller over the default instrument pair at the default
// interval. Symbols and interval are adjusted with the setters.
func New(q *quotes.Service, t *treasury.Service, r *recorder.Service, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.NewDefault("monitor")
	}
	return &Poller{
		quotes:      q,
		treasury:    t,
		recorder:    r,
		log:         log,
		bondSymbol:  DefaultBondSymbol,
		yieldSymbol: DefaultYieldSymbol,
		bump:        make(chan struct{}, 1),
		interval:    DefaultInterval,
	}
}

// WithAlerts attaches the alert evaluator invoked after each recorded
// observation.
func (p *Poller) WithAlerts(a *alerts.Service) {
	p.mu.Lock()
	p.alerts = a
	p.mu.Unlock()
}

// WithSymbols overrides the monitored instrument pair. Blank values keep the
// current symbols.
func (p *Poller) WithSymbols(bondSymbol, yieldSymbol string) {
	p.mu.Lock()
	if s := strings.TrimSpace(bondSymbol); s != "" {
		p.bondSymbol = s
	}
	if s := strings.TrimSpace(yieldSymbol); s != "" {
		p.yieldSymbol = s
	}
	p.mu.Unlock()
}

// ClampInterval normalizes a requested poll interval to the supported band.
// Non-positive values select the default.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	default:
		return d
	}
}

// Interval reports the active poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// SetInterval applies a new poll interval, clamped to the supported band,
// and returns the applied value. A running loop re-arms immediately.
func (p *Poller) SetInterval(d time.Duration) time.Duration {
	applied := ClampInterval(d)
	p.mu.Lock()
	changed := applied != p.interval
	p.interval = applied
	p.mu.Unlock()

	if changed {
		p.log.WithField("interval", applied.String()).Info("poll interval updated")
		select {
		case p.bump <- struct{}{}:
		default:
		}
	}
	return applied
}

// Symbols reports the monitored bond and yield symbols.
func (p *Poller) Symbols() (bondSymbol, yieldSymbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bondSymbol, p.yieldSymbol
}

// LastCycle reports the outcome and completion time of the most recent
// cycle. The status is empty before the first cycle finishes.
func (p *Poller) LastCycle() (status string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStatus, p.lastCycleAt
}

func (p *Poller) Name() string { return "risk-monitor" }

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// First observation lands right away rather than one interval in.
		p.cycle(runCtx)

		for {
			timer := time.NewTimer(p.Interval())
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-p.bump:
				timer.Stop()
			case <-timer.C:
				p.cycle(runCtx)
			}
		}
	}()

	p.log.WithField("interval", p.Interval().String()).Info("risk monitor started")
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.log.Info("risk monitor stopped")
	return nil
}

// RunOnce executes a single observation cycle and returns the recorded
// observation. Callers outside the poll loop (manual refresh, tests) get the
// same semantics as a scheduled cycle.
func (p *Poller) RunOnce(ctx context.Context) (spread.Observation, error) {
	bondSymbol, yieldSymbol := p.Symbols()

	q, err := p.quotes.Resolve(ctx, bondSymbol)
	if err != nil {
		return spread.Observation{}, fmt.Errorf("resolve bond quote: %w", err)
	}
	y, err := p.treasury.Resolve(ctx, yieldSymbol)
	if err != nil {
		return spread.Observation{}, fmt.Errorf("resolve reference yield: %w", err)
	}

	obs, err := spread.Estimate(q.Symbol, y.Symbol, q.Price, y.Value, q.ObservedAt)
	if err != nil {
		return spread.Observation{}, fmt.Errorf("estimate spread: %w", err)
	}

	recorded, err := p.recorder.Record(ctx, obs)
	if err != nil {
		return spread.Observation{}, fmt.Errorf("record observation: %w", err)
	}

	p.mu.Lock()
	evaluator := p.alerts
	p.mu.Unlock()
	if evaluator != nil {
		evaluator.Evaluate(recorded)
	}
	return recorded, nil
}

func (p *Poller) cycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	started := time.Now()
	obs, err := p.RunOnce(ctx)
	status := StatusOK
	if err != nil {
		status = classifyCycleError(err)
		p.log.WithError(err).WithField("status", status).Warn("observation cycle failed")
	} else {
		p.log.WithField("spread_bps", obs.SpreadBps).
			WithField("level", string(obs.Level)).
			Debug("observation cycle completed")
	}
	metrics.RecordPollCycle(status, time.Since(started))

	p.mu.Lock()
	p.lastStatus = status
	p.lastCycleAt = time.Now().UTC()
	p.mu.Unlock()
}

func classifyCycleError(err error) string {
	switch {
	case errors.Is(err, quote.ErrYieldUnavailable):
		return StatusYieldUnavailable
	case errors.Is(err, quote.ErrUnavailable):
		return StatusQuoteUnavailable
	case errors.Is(err, spread.ErrInvalidInput):
		return StatusInvalidInput
	default:
		return StatusRecordFailed
	}
}
