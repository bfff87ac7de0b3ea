package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pampa-analytics/riskfeed/internal/app/system"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// DefaultSchedule matches the staleness window of the stored series.
const DefaultSchedule = "@every 10m"

// rebuildTimeout bounds one background rebuild, both chart downloads
// included.
const rebuildTimeout = 2 * time.Minute

var _ system.Service = (*Refresher)(nil)

// Refresher keeps the history series fresh on a cron schedule. The first
// build runs immediately at startup; the schedule only renews it.
type Refresher struct {
	service  *Service
	log      *logger.Logger
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	wg      sync.WaitGroup
	running bool
}

// NewRefresher creates a lifecycle-managed history refresher.
func NewRefresher(service *Service, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("history-runner")
	}
	return &Refresher{
		service:  service,
		log:      log,
		schedule: DefaultSchedule,
	}
}

// WithSchedule overrides the rebuild schedule. Blank keeps the default.
func (r *Refresher) WithSchedule(schedule string) {
	if strings.TrimSpace(schedule) == "" {
		return
	}
	r.mu.Lock()
	r.schedule = schedule
	r.mu.Unlock()
}

func (r *Refresher) Name() string { return "history-refresher" }

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	schedule := r.schedule
	c := cron.New()
	if _, err := c.AddFunc(schedule, r.rebuild); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("history schedule %q: %w", schedule, err)
	}
	r.cron = c
	r.running = true
	r.mu.Unlock()

	c.Start()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.rebuild()
	}()

	r.log.WithField("schedule", schedule).Info("history refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
		if c != nil {
			<-c.Stop().Done()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("history refresher stopped")
	return nil
}

func (r *Refresher) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()
	if err := r.service.Rebuild(ctx); err != nil {
		r.log.WithError(err).Warn("history rebuild failed")
	}
}
