package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
)

// MonitorFileConfig mirrors config/monitor.yaml. Operators who prefer a
// checked-in file over environment variables set the pipeline here; any
// field left at its zero value keeps the environment-derived setting.
type MonitorFileConfig struct {
	Monitor MonitorSettings `yaml:"monitor"`
	History HistorySettings `yaml:"history"`
}

// MonitorSettings configures the polling pipeline.
type MonitorSettings struct {
	BondSymbol          string   `yaml:"bond_symbol"`
	YieldSymbol         string   `yaml:"yield_symbol"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	AlertThresholdBps   float64  `yaml:"alert_threshold_bps"`
	Source              string   `yaml:"source"`
	ManualURL           string   `yaml:"manual_url"`
	ManualJSONPaths     []string `yaml:"manual_json_paths"`
}

// HistorySettings configures the daily history builder.
type HistorySettings struct {
	SpanYears int    `yaml:"span_years"`
	Schedule  string `yaml:"schedule"`
}

// LoadMonitorConfig loads the monitor configuration from config/monitor.yaml
func LoadMonitorConfig() (*MonitorFileConfig, error) {
	return LoadMonitorConfigFromPath(filepath.Join("config", "monitor.yaml"))
}

// LoadMonitorConfigFromPath loads the monitor configuration from a specific path
func LoadMonitorConfigFromPath(path string) (*MonitorFileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read monitor config: %w", err)
	}

	var cfg MonitorFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse monitor config: %w", err)
	}

	if cfg.Monitor.PollIntervalSeconds < 0 {
		return nil, fmt.Errorf("monitor: poll_interval_seconds must not be negative")
	}
	if cfg.Monitor.AlertThresholdBps < 0 {
		return nil, fmt.Errorf("monitor: alert_threshold_bps must not be negative")
	}
	if cfg.History.SpanYears < 0 {
		return nil, fmt.Errorf("history: span_years must not be negative")
	}
	if source := strings.ToLower(strings.TrimSpace(cfg.Monitor.Source)); source != "" {
		switch source {
		case quotes.SourceAuto, quotes.SourcePrimary, quotes.SourceManualURL:
		default:
			return nil, fmt.Errorf("monitor: unsupported source %q", cfg.Monitor.Source)
		}
	}

	return &cfg, nil
}

// LoadMonitorConfigOrDefault loads the monitor config or returns the default
// if the file is not found
func LoadMonitorConfigOrDefault() *MonitorFileConfig {
	cfg, err := LoadMonitorConfig()
	if err != nil {
		return DefaultMonitorConfig()
	}
	return cfg
}

// DefaultMonitorConfig returns the default monitor configuration
func DefaultMonitorConfig() *MonitorFileConfig {
	return &MonitorFileConfig{
		Monitor: MonitorSettings{
			BondSymbol:          "AL30D.BA",
			YieldSymbol:         "^TNX",
			PollIntervalSeconds: 60,
			AlertThresholdBps:   2500,
			Source:              quotes.SourceAuto,
		},
		History: HistorySettings{
			SpanYears: 5,
			Schedule:  "@every 10m",
		},
	}
}

// Apply overlays the non-zero file settings onto the environment-derived
// monitor configuration.
func (f *MonitorFileConfig) Apply(cfg *MonitorConfig) {
	if f == nil || cfg == nil {
		return
	}
	if s := strings.TrimSpace(f.Monitor.BondSymbol); s != "" {
		cfg.BondSymbol = s
	}
	if s := strings.TrimSpace(f.Monitor.YieldSymbol); s != "" {
		cfg.YieldSymbol = s
	}
	if f.Monitor.PollIntervalSeconds > 0 {
		cfg.PollInterval = time.Duration(f.Monitor.PollIntervalSeconds) * time.Second
	}
	if f.Monitor.AlertThresholdBps > 0 {
		cfg.AlertThresholdBps = f.Monitor.AlertThresholdBps
	}
	if s := strings.TrimSpace(f.Monitor.Source); s != "" {
		cfg.QuoteSource = s
	}
	if s := strings.TrimSpace(f.Monitor.ManualURL); s != "" {
		cfg.ManualURL = s
	}
	if len(f.Monitor.ManualJSONPaths) > 0 {
		cfg.ManualJSONPaths = f.Monitor.ManualJSONPaths
	}
	if f.History.SpanYears > 0 {
		cfg.HistorySpanYears = f.History.SpanYears
	}
	if s := strings.TrimSpace(f.History.Schedule); s != "" {
		cfg.HistorySchedule = s
	}
}
