// Package treasury resolves the benchmark treasury yield used as the
// risk-free leg of the spread.
package treasury

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
	"github.com/pampa-analytics/riskfeed/internal/app/storage/quotecache"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

const defaultYieldTTL = 60 * time.Second

// Yield values outside this band indicate a unit mixup or a broken feed,
// not a market move.
const (
	minPlausibleYield = 0.0
	maxPlausibleYield = 100.0
)

// Service resolves the benchmark yield through a quote fetcher. The yield
// index quotes its value directly in percent.
type Service struct {
	fetcher quotes.Fetcher
	cache   quotecache.Cache
	ttl     time.Duration
	log     *logger.Logger
}

// New constructs a treasury yield service.
func New(fetcher quotes.Fetcher, cache quotecache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("treasury")
	}
	if cache == nil {
		cache = quotecache.NewMemory()
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		ttl:     defaultYieldTTL,
		log:     log,
	}
}

// WithTTL overrides the cache lifetime for resolved yields.
func (s *Service) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// Resolve produces the current benchmark yield in percent.
func (s *Service) Resolve(ctx context.Context, symbol string) (domain.ReferenceYield, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return domain.ReferenceYield{}, fmt.Errorf("yield symbol is required")
	}

	key := "yield/" + symbol
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return yieldFromQuote(cached), nil
	} else if err != nil {
		s.log.WithError(err).Warn("yield cache read failed")
	}

	q, err := s.fetcher.Fetch(ctx, symbol)
	if err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Warn("yield fetch failed")
		return domain.ReferenceYield{}, fmt.Errorf("resolve yield %s: %w", symbol, domain.ErrYieldUnavailable)
	}

	if q.Price <= minPlausibleYield || q.Price >= maxPlausibleYield {
		s.log.WithField("symbol", symbol).
			WithField("value", q.Price).
			Warn("yield outside plausible band")
		return domain.ReferenceYield{}, fmt.Errorf("yield %v out of range: %w", q.Price, domain.ErrYieldUnavailable)
	}

	if err := s.cache.Set(ctx, key, q, s.ttl); err != nil {
		s.log.WithError(err).Warn("yield cache write failed")
	}
	return yieldFromQuote(q), nil
}

func yieldFromQuote(q domain.Quote) domain.ReferenceYield {
	return domain.ReferenceYield{
		Symbol:     q.Symbol,
		Value:      q.Price,
		Source:     q.Source,
		ObservedAt: q.ObservedAt,
	}
}
