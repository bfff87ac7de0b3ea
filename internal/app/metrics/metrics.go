package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "riskfeed",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskfeed",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskfeed",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	pollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskfeed",
			Subsystem: "monitor",
			Name:      "poll_cycles_total",
			Help:      "Total number of polling cycles by outcome.",
		},
		[]string{"status"},
	)

	pollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskfeed",
			Subsystem: "monitor",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of polling cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"status"},
	)

	fetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskfeed",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total number of upstream fetch attempts by source and outcome.",
		},
		[]string{"source", "success"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskfeed",
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream fetch attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"source"},
	)

	spreadBps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "riskfeed",
			Subsystem: "spread",
			Name:      "current_bps",
			Help:      "Most recently derived country-risk spread in basis points.",
		},
	)

	bondPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "riskfeed",
			Subsystem: "spread",
			Name:      "bond_price",
			Help:      "Most recently observed bond price.",
		},
	)

	referenceYield = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "riskfeed",
			Subsystem: "spread",
			Name:      "reference_yield_percent",
			Help:      "Most recently observed benchmark yield in percent.",
		},
	)

	alertTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskfeed",
			Subsystem: "alerts",
			Name:      "transitions_total",
			Help:      "Total number of alert state transitions.",
		},
		[]string{"kind"},
	)

	historyRebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskfeed",
			Subsystem: "history",
			Name:      "rebuilds_total",
			Help:      "Total number of history rebuilds by outcome.",
		},
		[]string{"status"},
	)

	historyPoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "riskfeed",
			Subsystem: "history",
			Name:      "points",
			Help:      "Number of daily points in the current history series.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		pollCycles,
		pollDuration,
		fetchRequests,
		fetchDuration,
		spreadBps,
		bondPrice,
		referenceYield,
		alertTransitions,
		historyRebuilds,
		historyPoints,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordPollCycle records the outcome of one polling cycle.
func RecordPollCycle(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	pollCycles.WithLabelValues(status).Inc()
	pollDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFetch records one upstream fetch attempt.
func RecordFetch(source string, duration time.Duration, success bool) {
	if source == "" {
		source = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := "false"
	if success {
		result = "true"
	}
	fetchRequests.WithLabelValues(source, result).Inc()
	fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SetCurrentSpread updates the gauges reflecting the latest observation.
func SetCurrentSpread(bps, price, refYield float64) {
	spreadBps.Set(bps)
	bondPrice.Set(price)
	referenceYield.Set(refYield)
}

// RecordAlertTransition records a fired or cleared alert transition.
func RecordAlertTransition(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	alertTransitions.WithLabelValues(kind).Inc()
}

// RecordHistoryRebuild records the outcome of a history rebuild pass.
func RecordHistoryRebuild(status string, points int) {
	if status == "" {
		status = "unknown"
	}
	historyRebuilds.WithLabelValues(status).Inc()
	if points >= 0 {
		historyPoints.Set(float64(points))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "risk" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/risk"
	}
	return "/risk/" + parts[1]
}
