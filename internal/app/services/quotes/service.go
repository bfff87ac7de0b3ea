package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/internal/app/metrics"
	"github.com/pampa-analytics/riskfeed/internal/app/storage/quotecache"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// defaultQuoteTTL bounds how often upstream sources are hit for the same
// symbol; repeated resolves within the window are served from cache.
const defaultQuoteTTL = 60 * time.Second

// Service resolves bond quotes according to the configured source mode.
type Service struct {
	primary Fetcher
	cache   quotecache.Cache
	ttl     time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	manual Fetcher
	source string
}

// New constructs a quote service using the primary fetcher and the auto
// source mode.
func New(primary Fetcher, cache quotecache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("quotes")
	}
	if cache == nil {
		cache = quotecache.NewMemory()
	}
	return &Service{
		primary: primary,
		cache:   cache,
		ttl:     defaultQuoteTTL,
		log:     log,
		source:  SourceAuto,
	}
}

// WithManual assigns the fetcher used for the manual_url source.
func (s *Service) WithManual(fetcher Fetcher) {
	s.mu.Lock()
	s.manual = fetcher
	s.mu.Unlock()
}

// WithTTL overrides the cache lifetime for resolved quotes.
func (s *Service) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// SetSource switches the active source mode.
func (s *Service) SetSource(source string) error {
	source = strings.ToLower(strings.TrimSpace(source))
	switch source {
	case SourceAuto, SourcePrimary, SourceManualURL:
	default:
		return fmt.Errorf("unsupported quote source %q", source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if source == SourceManualURL && s.manual == nil {
		return fmt.Errorf("manual quote url not configured")
	}
	if s.source != source {
		s.log.WithField("source", source).Info("quote source changed")
	}
	s.source = source
	return nil
}

// Source reports the active source mode.
func (s *Service) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Resolve produces a quote for the symbol via the active source, serving
// repeated calls within the TTL from cache.
func (s *Service) Resolve(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return domain.Quote{}, fmt.Errorf("symbol is required")
	}

	s.mu.RLock()
	source := s.source
	manual := s.manual
	s.mu.RUnlock()

	key := source + "/" + symbol
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.log.WithError(err).Warn("quote cache read failed")
	}

	q, err := s.fetch(ctx, source, manual, symbol)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return domain.Quote{}, err
		}
		return domain.Quote{}, fmt.Errorf("resolve quote %s: %v: %w", symbol, err, domain.ErrUnavailable)
	}

	if err := s.cache.Set(ctx, key, q, s.ttl); err != nil {
		s.log.WithError(err).Warn("quote cache write failed")
	}
	return q, nil
}

func (s *Service) fetch(ctx context.Context, source string, manual Fetcher, symbol string) (domain.Quote, error) {
	switch source {
	case SourcePrimary:
		return timedFetch(ctx, s.primary, symbol, SourcePrimary)

	case SourceManualURL:
		if manual == nil {
			return domain.Quote{}, fmt.Errorf("manual quote url not configured: %w", domain.ErrUnavailable)
		}
		return timedFetch(ctx, manual, symbol, SourceManualURL)

	default: // SourceAuto
		q, err := timedFetch(ctx, s.primary, symbol, SourcePrimary)
		if err == nil {
			return q, nil
		}
		if manual == nil {
			return domain.Quote{}, err
		}
		s.log.WithError(err).WithField("symbol", symbol).Warn("primary source failed; trying manual url")
		return timedFetch(ctx, manual, symbol, SourceManualURL)
	}
}

func timedFetch(ctx context.Context, fetcher Fetcher, symbol, label string) (domain.Quote, error) {
	start := time.Now()
	q, err := fetcher.Fetch(ctx, symbol)
	metrics.RecordFetch(label, time.Since(start), err == nil)
	return q, err
}
