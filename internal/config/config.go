// Package config loads runtime configuration from the environment and an
// optional YAML monitor definition file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `env:"RISKFEED_HOST,default=0.0.0.0"`
	Port int    `env:"RISKFEED_PORT,default=8080"`

	ReadTimeout     time.Duration `env:"RISKFEED_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"RISKFEED_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"RISKFEED_SHUTDOWN_TIMEOUT,default=10s"`
}

// LoggingConfig mirrors the pkg/logger settings.
type LoggingConfig struct {
	Level      string `env:"RISKFEED_LOG_LEVEL,default=info"`
	Format     string `env:"RISKFEED_LOG_FORMAT,default=text"`
	Output     string `env:"RISKFEED_LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"RISKFEED_LOG_FILE_PREFIX,default=riskfeed"`
}

// MonitorConfig tunes the polling pipeline. The YAML monitor file, when
// present, overlays these values.
type MonitorConfig struct {
	BondSymbol        string        `env:"RISKFEED_BOND_SYMBOL,default=AL30D.BA"`
	YieldSymbol       string        `env:"RISKFEED_YIELD_SYMBOL,default=^TNX"`
	PollInterval      time.Duration `env:"RISKFEED_POLL_INTERVAL,default=60s"`
	AlertThresholdBps float64       `env:"RISKFEED_ALERT_THRESHOLD_BPS,default=2500"`

	// QuoteSource selects auto, primary_api, or manual_url. Manual JSON
	// paths are semicolon separated.
	QuoteSource     string   `env:"RISKFEED_QUOTE_SOURCE,default=auto"`
	ManualURL       string   `env:"RISKFEED_MANUAL_QUOTE_URL"`
	ManualJSONPaths []string `env:"RISKFEED_MANUAL_JSON_PATHS"`

	QuoteTTL time.Duration `env:"RISKFEED_QUOTE_TTL,default=60s"`
	YieldTTL time.Duration `env:"RISKFEED_YIELD_TTL,default=60s"`

	HistorySpanYears  int           `env:"RISKFEED_HISTORY_SPAN_YEARS,default=5"`
	HistorySchedule   string        `env:"RISKFEED_HISTORY_SCHEDULE,default=@every 10m"`
	HistoryStaleAfter time.Duration `env:"RISKFEED_HISTORY_STALE_AFTER,default=10m"`

	// StaticPrice and StaticYield switch the pipeline to fixed offline
	// values when positive.
	StaticPrice float64 `env:"RISKFEED_STATIC_PRICE"`
	StaticYield float64 `env:"RISKFEED_STATIC_YIELD"`
}

// RedisConfig enables the shared quote cache. Disabled by default; the
// in-memory cache is used instead.
type RedisConfig struct {
	Enabled  bool   `env:"RISKFEED_REDIS_ENABLED,default=false"`
	Addr     string `env:"RISKFEED_REDIS_ADDR,default=localhost:6379"`
	Password string `env:"RISKFEED_REDIS_PASSWORD"`
	DB       int    `env:"RISKFEED_REDIS_DB,default=0"`
}

// HTTPConfig tunes the middleware wrapped around the API. CORS origins are
// semicolon separated; "*" allows any origin.
type HTTPConfig struct {
	RateLimitPerSecond int      `env:"RISKFEED_RATE_LIMIT_RPS,default=10"`
	RateLimitBurst     int      `env:"RISKFEED_RATE_LIMIT_BURST,default=20"`
	CORSOrigins        []string `env:"RISKFEED_CORS_ORIGINS,default=*"`
}

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Monitor MonitorConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvFile reads KEY=VALUE pairs from path into the environment
// before decoding. Variables already set in the real environment win.
func LoadWithEnvFile(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.HTTP.RateLimitPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.HTTP.RateLimitPerSecond)
	}
	if c.Monitor.AlertThresholdBps <= 0 {
		return fmt.Errorf("alert threshold must be positive, got %v", c.Monitor.AlertThresholdBps)
	}
	if c.Monitor.HistorySpanYears <= 0 {
		return fmt.Errorf("history span must be positive, got %d", c.Monitor.HistorySpanYears)
	}
	return c.Monitor.validateSource()
}

func (m *MonitorConfig) validateSource() error {
	source := strings.ToLower(strings.TrimSpace(m.QuoteSource))
	switch source {
	case "", quotes.SourceAuto, quotes.SourcePrimary:
	case quotes.SourceManualURL:
		if strings.TrimSpace(m.ManualURL) == "" {
			return fmt.Errorf("quote source %s requires RISKFEED_MANUAL_QUOTE_URL", source)
		}
	default:
		return fmt.Errorf("unsupported quote source %q", m.QuoteSource)
	}
	return nil
}
