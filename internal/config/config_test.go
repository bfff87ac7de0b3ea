package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "AL30D.BA", cfg.Monitor.BondSymbol)
	assert.Equal(t, "^TNX", cfg.Monitor.YieldSymbol)
	assert.Equal(t, 60*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 2500.0, cfg.Monitor.AlertThresholdBps)
	assert.Equal(t, "auto", cfg.Monitor.QuoteSource)
	assert.Equal(t, 5, cfg.Monitor.HistorySpanYears)
	assert.Equal(t, "@every 10m", cfg.Monitor.HistorySchedule)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RISKFEED_PORT", "9090")
	t.Setenv("RISKFEED_BOND_SYMBOL", "GD30D.BA")
	t.Setenv("RISKFEED_POLL_INTERVAL", "90s")
	t.Setenv("RISKFEED_CORS_ORIGINS", "https://a.example;https://b.example")
	t.Setenv("RISKFEED_STATIC_PRICE", "52.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "GD30D.BA", cfg.Monitor.BondSymbol)
	assert.Equal(t, 90*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 52.5, cfg.Monitor.StaticPrice)
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Setenv("RISKFEED_QUOTE_SOURCE", "carrier-pigeon")
	_, err := Load()
	require.Error(t, err)
}

func TestManualSourceRequiresURL(t *testing.T) {
	t.Setenv("RISKFEED_QUOTE_SOURCE", "manual_url")
	t.Setenv("RISKFEED_MANUAL_QUOTE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RISKFEED_MANUAL_QUOTE_URL", "https://example.com/bonds/al30d")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "manual_url", cfg.Monitor.QuoteSource)
}

func TestLoadWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riskfeed.env")
	require.NoError(t, os.WriteFile(path, []byte("RISKFEED_ALERT_THRESHOLD_BPS=1800\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RISKFEED_ALERT_THRESHOLD_BPS") })

	cfg, err := LoadWithEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1800.0, cfg.Monitor.AlertThresholdBps)

	_, err = LoadWithEnvFile(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}

func TestLoadMonitorConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.yaml")
	data := `monitor:
  bond_symbol: GD35D.BA
  poll_interval_seconds: 120
  alert_threshold_bps: 2000
history:
  span_years: 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadMonitorConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "GD35D.BA", cfg.Monitor.BondSymbol)
	assert.Equal(t, 120, cfg.Monitor.PollIntervalSeconds)
	assert.Equal(t, 2000.0, cfg.Monitor.AlertThresholdBps)
	assert.Equal(t, 3, cfg.History.SpanYears)
}

func TestLoadMonitorConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "source.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  source: webscrape\n"), 0o600))
	_, err := LoadMonitorConfigFromPath(path)
	require.Error(t, err)

	path = filepath.Join(dir, "interval.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  poll_interval_seconds: -5\n"), 0o600))
	_, err = LoadMonitorConfigFromPath(path)
	require.Error(t, err)

	_, err = LoadMonitorConfigFromPath(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestMonitorFileApply(t *testing.T) {
	base := MonitorConfig{
		BondSymbol:        "AL30D.BA",
		YieldSymbol:       "^TNX",
		PollInterval:      60 * time.Second,
		AlertThresholdBps: 2500,
		HistorySpanYears:  5,
		HistorySchedule:   "@every 10m",
	}

	file := &MonitorFileConfig{}
	file.Monitor.BondSymbol = "GD30D.BA"
	file.Monitor.PollIntervalSeconds = 300
	file.History.Schedule = "@every 30m"
	file.Apply(&base)

	assert.Equal(t, "GD30D.BA", base.BondSymbol)
	assert.Equal(t, "^TNX", base.YieldSymbol)
	assert.Equal(t, 5*time.Minute, base.PollInterval)
	assert.Equal(t, 2500.0, base.AlertThresholdBps)
	assert.Equal(t, 5, base.HistorySpanYears)
	assert.Equal(t, "@every 30m", base.HistorySchedule)
}

func TestDefaultMonitorConfig(t *testing.T) {
	cfg := DefaultMonitorConfig()
	assert.Equal(t, "AL30D.BA", cfg.Monitor.BondSymbol)
	assert.Equal(t, "^TNX", cfg.Monitor.YieldSymbol)
	assert.Equal(t, 2500.0, cfg.Monitor.AlertThresholdBps)
	assert.Equal(t, "@every 10m", cfg.History.Schedule)
}
