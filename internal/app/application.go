package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/services/alerts"
	historysvc "github.com/pampa-analytics/riskfeed/internal/app/services/history"
	"github.com/pampa-analytics/riskfeed/internal/app/services/monitor"
	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
	"github.com/pampa-analytics/riskfeed/internal/app/services/recorder"
	"github.com/pampa-analytics/riskfeed/internal/app/services/treasury"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
	"github.com/pampa-analytics/riskfeed/internal/app/storage/memory"
	"github.com/pampa-analytics/riskfeed/internal/app/storage/quotecache"
	"github.com/pampa-analytics/riskfeed/internal/app/system"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Observations storage.ObservationStore
	History      storage.HistoryStore
	QuoteCache   quotecache.Cache
}

// Options tunes the monitoring pipeline. Zero values select the defaults
// baked into each service.
type Options struct {
	BondSymbol     string
	YieldSymbol    string
	PollInterval   time.Duration
	AlertThreshold float64

	// QuoteSource selects auto, primary_api, or manual_url.
	QuoteSource     string
	ManualURL       string
	ManualJSONPaths []string

	QuoteTTL time.Duration
	YieldTTL time.Duration

	HistorySpanYears int
	HistorySchedule  string
	HistoryStale     time.Duration

	// StaticPrice and StaticYield replace the upstream fetchers with fixed
	// values for offline development.
	StaticPrice float64
	StaticYield float64
}

// Application ties the monitoring services together and manages their
// lifecycle.
type Application struct {
	manager   *system.Manager
	log       *logger.Logger
	startedAt time.Time

	Quotes   *quotes.Service
	Treasury *treasury.Service
	Recorder *recorder.Service
	Alerts   *alerts.Service
	Monitor  *monitor.Poller
	History  *historysvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.NewStore()
	if stores.Observations == nil {
		stores.Observations = mem
	}
	if stores.History == nil {
		stores.History = mem
	}
	if stores.QuoteCache == nil {
		stores.QuoteCache = quotecache.NewMemory()
	}

	manager := system.NewManager()

	var bondFetcher quotes.Fetcher
	if opts.StaticPrice > 0 {
		log.Warn("static bond price configured; upstream quotes disabled")
		bondFetcher = quotes.StaticFetcher{Price: opts.StaticPrice, Currency: "USD"}
	} else {
		bondFetcher = quotes.NewYahooFetcher(log)
	}

	quoteService := quotes.New(bondFetcher, stores.QuoteCache, log)
	if opts.QuoteTTL > 0 {
		quoteService.WithTTL(opts.QuoteTTL)
	}
	if url := strings.TrimSpace(opts.ManualURL); url != "" {
		manual, err := quotes.NewManualURLFetcher(nil, url, log)
		if err != nil {
			return nil, fmt.Errorf("configure manual quote url: %w", err)
		}
		manual.WithPaths(opts.ManualJSONPaths...)
		quoteService.WithManual(manual)
	}
	if source := strings.TrimSpace(opts.QuoteSource); source != "" {
		if err := quoteService.SetSource(source); err != nil {
			return nil, fmt.Errorf("configure quote source: %w", err)
		}
	}

	var yieldFetcher quotes.Fetcher
	if opts.StaticYield > 0 {
		log.Warn("static reference yield configured; upstream treasury feed disabled")
		yieldFetcher = quotes.StaticFetcher{Price: opts.StaticYield}
	} else {
		yieldFetcher = quotes.NewYahooFetcher(log)
	}
	treasuryService := treasury.New(yieldFetcher, stores.QuoteCache, log)
	if opts.YieldTTL > 0 {
		treasuryService.WithTTL(opts.YieldTTL)
	}

	recorderService := recorder.New(stores.Observations, log)
	alertService := alerts.New(opts.AlertThreshold, log)

	poller := monitor.New(quoteService, treasuryService, recorderService, log)
	poller.WithAlerts(alertService)
	poller.WithSymbols(opts.BondSymbol, opts.YieldSymbol)
	poller.SetInterval(opts.PollInterval)

	var chartSource historysvc.ChartSource
	if opts.StaticPrice > 0 || opts.StaticYield > 0 {
		chartSource = staticChartSource(opts.StaticPrice, opts.StaticYield)
	} else {
		chartSource = historysvc.NewYahooChartSource(log)
	}
	historyService := historysvc.New(chartSource, stores.History, log)
	historyService.WithSymbols(opts.BondSymbol, opts.YieldSymbol)
	historyService.WithSpan(opts.HistorySpanYears)
	historyService.WithStaleAfter(opts.HistoryStale)

	for _, name := range []string{"quotes", "treasury", "recorder", "alerts"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	historyRunner := historysvc.NewRefresher(historyService, log)
	historyRunner.WithSchedule(opts.HistorySchedule)

	for _, svc := range []system.Service{poller, historyRunner} {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		startedAt: time.Now().UTC(),
		Quotes:    quoteService,
		Treasury:  treasuryService,
		Recorder:  recorderService,
		Alerts:    alertService,
		Monitor:   poller,
		History:   historyService,
	}, nil
}

// staticChartSource serves a flat synthetic series so offline runs can
// exercise the history pipeline.
func staticChartSource(price, yield float64) historysvc.ChartSource {
	if price <= 0 {
		price = 50
	}
	if yield <= 0 {
		yield = 4
	}
	return historysvc.ChartSourceFunc(func(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
		value := price
		if strings.HasPrefix(symbol, "^") {
			value = yield
		}
		if now := time.Now(); end.After(now) {
			end = now
		}
		from := end.AddDate(0, 0, -60)
		if from.Before(start) {
			from = start
		}
		var bars []domain.Bar
		for d := from; !d.After(end); d = d.AddDate(0, 0, 1) {
			bars = append(bars, domain.Bar{Date: d.UTC(), Close: value})
		}
		return bars, nil
	})
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	a.startedAt = time.Now().UTC()
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

// Uptime reports how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startedAt)
}
