// Package main runs the country-risk spread monitor: a polling pipeline
// deriving an approximate sovereign spread from hard-dollar bond prices and
// a benchmark treasury yield, plus the HTTP API that serves it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/pampa-analytics/riskfeed/internal/app"
	"github.com/pampa-analytics/riskfeed/internal/app/httpapi"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/storage/quotecache"
	"github.com/pampa-analytics/riskfeed/internal/config"
	"github.com/pampa-analytics/riskfeed/internal/middleware"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

func main() {
	var (
		envFile     = flag.String("env", "", "Path to optional .env file")
		monitorFile = flag.String("monitor-config", "", "Path to monitor YAML (default: config/monitor.yaml when present)")
	)
	flag.Parse()

	cfg, err := config.LoadWithEnvFile(*envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *monitorFile != "" {
		file, err := config.LoadMonitorConfigFromPath(*monitorFile)
		if err != nil {
			log.Fatalf("load monitor config: %v", err)
		}
		file.Apply(&cfg.Monitor)
	} else if file, err := config.LoadMonitorConfig(); err == nil {
		file.Apply(&cfg.Monitor)
	}

	logg := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	stores := app.Stores{}
	if cfg.Redis.Enabled {
		cache, err := quotecache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logg.Fatalf("connect redis at %s: %v", cfg.Redis.Addr, err)
		}
		stores.QuoteCache = cache
		logg.Infof("quote cache backed by redis at %s", cfg.Redis.Addr)
	}

	application, err := app.New(stores, app.Options{
		BondSymbol:       cfg.Monitor.BondSymbol,
		YieldSymbol:      cfg.Monitor.YieldSymbol,
		PollInterval:     cfg.Monitor.PollInterval,
		AlertThreshold:   cfg.Monitor.AlertThresholdBps,
		QuoteSource:      cfg.Monitor.QuoteSource,
		ManualURL:        cfg.Monitor.ManualURL,
		ManualJSONPaths:  cfg.Monitor.ManualJSONPaths,
		QuoteTTL:         cfg.Monitor.QuoteTTL,
		YieldTTL:         cfg.Monitor.YieldTTL,
		HistorySpanYears: cfg.Monitor.HistorySpanYears,
		HistorySchedule:  cfg.Monitor.HistorySchedule,
		HistoryStale:     cfg.Monitor.HistoryStaleAfter,
		StaticPrice:      cfg.Monitor.StaticPrice,
		StaticYield:      cfg.Monitor.StaticYield,
	}, logg)
	if err != nil {
		logg.Fatalf("build application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logg.Fatalf("start application: %v", err)
	}
	logg.Infof("monitoring %s against %s every %s", cfg.Monitor.BondSymbol, cfg.Monitor.YieldSymbol, application.Monitor.Interval())

	rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitPerSecond, cfg.HTTP.RateLimitBurst, logg)
	cors := middleware.NewCORSMiddleware(cfg.HTTP.CORSOrigins)
	handler := metrics.InstrumentHandler(rateLimiter.Handler(cors.Handler(httpapi.NewHandler(application))))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logg.Infof("risk feed API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logg.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logg.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Warnf("server shutdown: %v", err)
	}
	if err := application.Stop(shutdownCtx); err != nil {
		logg.Warnf("application stop: %v", err)
	}
	logg.Info("shutdown complete")
}
