// Package logger wraps logrus with the small configuration surface the
// application needs: level/format selection, stdout/stderr/file outputs and a
// component field stamped on every entry.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls how a Logger is built.
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	FilePrefix string
}

// Logger is a thin wrapper around logrus.Logger that carries an optional
// component name.
type Logger struct {
	*logrus.Logger
	component string
}

// New constructs a logger from the provided configuration. Unknown values
// fall back to info level, text format and stdout.
func New(cfg LoggingConfig) *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	base.SetOutput(resolveOutput(cfg))

	return &Logger{Logger: base}
}

// NewDefault returns an info-level text logger on stdout that tags every
// entry with the given component name. Each call owns its own underlying
// logrus instance, so components never bleed between loggers.
func NewDefault(component string) *Logger {
	log := New(LoggingConfig{Level: "info", Format: "text", Output: "stdout"})
	log.component = strings.TrimSpace(component)
	if log.component != "" {
		log.Logger.AddHook(componentHook{component: log.component})
	}
	return log
}

// Component reports the component name assigned via NewDefault.
func (l *Logger) Component() string { return l.component }

// WithField returns an entry carrying the component plus the given field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.baseEntry().WithField(key, value)
}

// WithFields returns an entry carrying the component plus the given fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.baseEntry().WithFields(fields)
}

// WithError returns an entry carrying the component and the error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.baseEntry().WithError(err)
}

func (l *Logger) baseEntry() *logrus.Entry {
	entry := logrus.NewEntry(l.Logger)
	if l.component != "" {
		entry = entry.WithField("component", l.component)
	}
	return entry
}

type componentHook struct {
	component string
}

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["component"]; !ok {
		entry.Data["component"] = h.component
	}
	return nil
}

func resolveOutput(cfg LoggingConfig) io.Writer {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		if w, err := openLogFile(cfg.FilePrefix); err == nil {
			return w
		}
		return os.Stdout
	default:
		return os.Stdout
	}
}

func openLogFile(prefix string) (io.Writer, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "app"
	}
	name := fmt.Sprintf("%s-%s.log", prefix, time.Now().UTC().Format("2006-01-02"))
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}
