// Package quotecache memoizes resolved quotes and yields so repeated reads
// within a TTL do not hammer the upstream sources.
package quotecache

import (
	"context"
	"sync"
	"time"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
)

// Cache stores quotes under a caller-chosen key for a bounded lifetime.
type Cache interface {
	Get(ctx context.Context, key string) (quote.Quote, bool, error)
	Set(ctx context.Context, key string, q quote.Quote, ttl time.Duration) error
}

type entry struct {
	quote     quote.Quote
	expiresAt time.Time
}

// Memory is a process-local Cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (quote.Quote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return quote.Quote{}, false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return quote.Quote{}, false, nil
	}
	return e.quote, true, nil
}

func (m *Memory) Set(_ context.Context, key string, q quote.Quote, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{quote: q, expiresAt: m.now().Add(ttl)}
	return nil
}
