// Package httpapi exposes the monitoring pipeline over REST.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	app "github.com/pampa-analytics/riskfeed/internal/app"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/alert"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/services/history"
	"github.com/pampa-analytics/riskfeed/internal/app/services/monitor"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
)

// handler bundles HTTP endpoints for the monitoring services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the risk API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/risk/current", h.current)
	mux.HandleFunc("/risk/observations", h.observations)
	mux.HandleFunc("/risk/observations.csv", h.observationsCSV)
	mux.HandleFunc("/risk/history", h.history)
	mux.HandleFunc("/risk/history.csv", h.historyCSV)
	mux.HandleFunc("/risk/history/months", h.historyMonths)
	mux.HandleFunc("/risk/alerts", h.alerts)
	mux.HandleFunc("/risk/config", h.config)
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

type currentResponse struct {
	HasData         bool                `json:"has_data"`
	Observation     *spread.Observation `json:"observation,omitempty"`
	Alert           alert.State         `json:"alert"`
	LastCycleStatus string              `json:"last_cycle_status,omitempty"`
	LastCycleAt     *time.Time          `json:"last_cycle_at,omitempty"`
}

func (h *handler) current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := currentResponse{Alert: h.app.Alerts.State()}
	if status, at := h.app.Monitor.LastCycle(); status != "" {
		resp.LastCycleStatus = status
		resp.LastCycleAt = &at
	}

	obs, err := h.app.Recorder.Latest(r.Context())
	switch {
	case err == nil:
		resp.HasData = true
		resp.Observation = &obs
	case errors.Is(err, storage.ErrNoObservations):
		// No successful cycle yet; has_data stays false.
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) observations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	observations, err := h.app.Recorder.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, observations)
}

func (h *handler) observationsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filename := fmt.Sprintf("riskfeed_observations_%s.csv", shortID(h.app.Recorder.SessionID()))
	writeCSVAttachment(w, filename, func(dst io.Writer) error {
		return h.app.Recorder.WriteCSV(r.Context(), dst)
	})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month, present, err := monthQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.freshHistory(r); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	var points interface{}
	if present {
		slice, err := h.app.History.ForMonth(r.Context(), year, month)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		points = slice
	} else {
		all, err := h.app.History.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		points = all
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *handler) historyCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month, present, err := monthQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !present {
		writeError(w, http.StatusBadRequest, fmt.Errorf("year and month are required"))
		return
	}

	if err := h.freshHistory(r); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeCSVAttachment(w, history.CSVFilename(year, month), func(dst io.Writer) error {
		return h.app.History.WriteMonthCSV(r.Context(), dst, year, month)
	})
}

func (h *handler) historyMonths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := h.freshHistory(r); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	months, err := h.app.History.Months(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// freshHistory triggers a rebuild when the series is stale. A failed rebuild
// is only an error when the store has nothing to serve instead.
func (h *handler) freshHistory(r *http.Request) error {
	err := h.app.History.EnsureFresh(r.Context())
	if err == nil {
		return nil
	}
	points, listErr := h.app.History.List(r.Context())
	if listErr != nil || len(points) == 0 {
		return fmt.Errorf("history unavailable: %v", err)
	}
	return nil
}

type alertsResponse struct {
	State  alert.State   `json:"state"`
	Events []alert.Event `json:"events"`
}

func (h *handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, alertsResponse{
		State:  h.app.Alerts.State(),
		Events: h.app.Alerts.Events(limit),
	})
}

type configResponse struct {
	BondSymbol          string  `json:"bond_symbol"`
	YieldSymbol         string  `json:"yield_symbol"`
	Source              string  `json:"source"`
	PollIntervalSeconds int     `json:"poll_interval_seconds"`
	AlertThresholdBps   float64 `json:"alert_threshold_bps"`
	SessionID           string  `json:"session_id"`
}

func (h *handler) config(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.configPayload())

	case http.MethodPatch:
		var payload struct {
			PollIntervalSeconds *int     `json:"poll_interval_seconds"`
			AlertThresholdBps   *float64 `json:"alert_threshold_bps"`
			Source              *string  `json:"source"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.PollIntervalSeconds == nil && payload.AlertThresholdBps == nil && payload.Source == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("no settings provided"))
			return
		}

		if payload.Source != nil {
			if err := h.app.Quotes.SetSource(*payload.Source); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if payload.AlertThresholdBps != nil {
			if err := h.app.Alerts.SetThreshold(*payload.AlertThresholdBps); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if payload.PollIntervalSeconds != nil {
			h.app.Monitor.SetInterval(time.Duration(*payload.PollIntervalSeconds) * time.Second)
		}

		writeJSON(w, http.StatusOK, h.configPayload())

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) configPayload() configResponse {
	bondSymbol, yieldSymbol := h.app.Monitor.Symbols()
	return configResponse{
		BondSymbol:          bondSymbol,
		YieldSymbol:         yieldSymbol,
		Source:              h.app.Quotes.Source(),
		PollIntervalSeconds: int(h.app.Monitor.Interval() / time.Second),
		AlertThresholdBps:   h.app.Alerts.Threshold(),
		SessionID:           h.app.Recorder.SessionID(),
	}
}

type processInfo struct {
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	RSSBytes   uint64 `json:"rss_bytes,omitempty"`
}

type healthResponse struct {
	Status          string      `json:"status"`
	SessionID       string      `json:"session_id"`
	UptimeSeconds   int64       `json:"uptime_seconds"`
	Observations    int         `json:"observations"`
	HistoryPoints   int         `json:"history_points"`
	LastCycleStatus string      `json:"last_cycle_status,omitempty"`
	LastCycleAt     *time.Time  `json:"last_cycle_at,omitempty"`
	Process         processInfo `json:"process"`
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:        "ok",
		SessionID:     h.app.Recorder.SessionID(),
		UptimeSeconds: int64(h.app.Uptime().Seconds()),
		Process: processInfo{
			Goroutines: runtime.NumGoroutine(),
			CPUs:       runtime.NumCPU(),
		},
	}

	if count, err := h.app.Recorder.Count(r.Context()); err == nil {
		resp.Observations = count
	}
	if points, err := h.app.History.List(r.Context()); err == nil {
		resp.HistoryPoints = len(points)
	}
	if status, at := h.app.Monitor.LastCycle(); status != "" {
		resp.LastCycleStatus = status
		resp.LastCycleAt = &at
		if status != monitor.StatusOK {
			resp.Status = "degraded"
		}
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			resp.Process.RSSBytes = memInfo.RSS
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// monthQuery parses the optional year/month pair. Both must be given
// together.
func monthQuery(r *http.Request) (int, time.Month, bool, error) {
	rawYear := strings.TrimSpace(r.URL.Query().Get("year"))
	rawMonth := strings.TrimSpace(r.URL.Query().Get("month"))
	if rawYear == "" && rawMonth == "" {
		return 0, 0, false, nil
	}
	if rawYear == "" || rawMonth == "" {
		return 0, 0, false, fmt.Errorf("year and month must be provided together")
	}

	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1900 || year > 9999 {
		return 0, 0, false, fmt.Errorf("invalid year %q", rawYear)
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false, fmt.Errorf("invalid month %q", rawMonth)
	}
	return year, time.Month(month), true, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// writeCSVAttachment buffers the export so a failed build can still produce
// a JSON error response.
func writeCSVAttachment(w http.ResponseWriter, filename string, build func(io.Writer) error) {
	var buf bytes.Buffer
	if err := build(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
