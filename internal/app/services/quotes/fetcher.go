package quotes

import (
	"context"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
)

// Source names accepted by the quote service.
const (
	SourceAuto      = "auto"
	SourcePrimary   = "primary_api"
	SourceManualURL = "manual_url"
)

// Fetcher retrieves a price quote for a symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (domain.Quote, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, symbol string) (domain.Quote, error)

func (f FetcherFunc) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	if f == nil {
		return domain.Quote{}, domain.ErrUnavailable
	}
	return f(ctx, symbol)
}

// StaticFetcher always returns the same price. It exists for local
// development and tests where upstream access is unavailable.
type StaticFetcher struct {
	Price    float64
	Currency string
}

func (f StaticFetcher) Fetch(_ context.Context, symbol string) (domain.Quote, error) {
	if f.Price <= 0 {
		return domain.Quote{}, domain.ErrUnavailable
	}
	return domain.Quote{
		Symbol:     symbol,
		Price:      f.Price,
		Currency:   f.Currency,
		Source:     "static",
		ObservedAt: time.Now().UTC(),
	}, nil
}
