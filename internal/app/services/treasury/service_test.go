package treasury

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/internal/app/services/quotes"
)

func yieldFetcher(value float64) quotes.FetcherFunc {
	return func(_ context.Context, symbol string) (domain.Quote, error) {
		return domain.Quote{Symbol: symbol, Price: value, Source: "primary_api", ObservedAt: time.Now().UTC()}, nil
	}
}

func TestResolve_ReturnsYield(t *testing.T) {
	svc := New(yieldFetcher(4.3), nil, nil)

	y, err := svc.Resolve(context.Background(), "^TNX")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if y.Value != 4.3 {
		t.Errorf("Value = %v, want 4.3", y.Value)
	}
	if y.Symbol != "^TNX" {
		t.Errorf("Symbol = %s, want ^TNX", y.Symbol)
	}
}

func TestResolve_FetchFailure(t *testing.T) {
	svc := New(quotes.FetcherFunc(func(context.Context, string) (domain.Quote, error) {
		return domain.Quote{}, domain.ErrUnavailable
	}), nil, nil)

	_, err := svc.Resolve(context.Background(), "^TNX")
	if !errors.Is(err, domain.ErrYieldUnavailable) {
		t.Errorf("error = %v, want ErrYieldUnavailable", err)
	}
}

func TestResolve_RejectsImplausibleValues(t *testing.T) {
	for _, value := range []float64{0, -1, 100, 430} {
		svc := New(yieldFetcher(value), nil, nil)
		if _, err := svc.Resolve(context.Background(), "^TNX"); !errors.Is(err, domain.ErrYieldUnavailable) {
			t.Errorf("Resolve() with value %v error = %v, want ErrYieldUnavailable", value, err)
		}
	}
}

func TestResolve_CachesWithinTTL(t *testing.T) {
	calls := 0
	svc := New(quotes.FetcherFunc(func(_ context.Context, symbol string) (domain.Quote, error) {
		calls++
		return domain.Quote{Symbol: symbol, Price: 4.3, ObservedAt: time.Now().UTC()}, nil
	}), nil, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Resolve(ctx, "^TNX"); err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (cached)", calls)
	}
}

func TestResolve_RequiresSymbol(t *testing.T) {
	svc := New(yieldFetcher(4.3), nil, nil)
	if _, err := svc.Resolve(context.Background(), ""); err == nil {
		t.Error("Resolve() should reject empty symbol")
	}
}
