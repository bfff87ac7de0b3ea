package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
)

func staticQuote(price float64, source string) FetcherFunc {
	return func(_ context.Context, symbol string) (domain.Quote, error) {
		return domain.Quote{Symbol: symbol, Price: price, Source: source, ObservedAt: time.Now().UTC()}, nil
	}
}

func failingFetcher() FetcherFunc {
	return func(context.Context, string) (domain.Quote, error) {
		return domain.Quote{}, domain.ErrUnavailable
	}
}

func TestResolve_PrimarySource(t *testing.T) {
	svc := New(staticQuote(50.25, SourcePrimary), nil, nil)
	if err := svc.SetSource(SourcePrimary); err != nil {
		t.Fatalf("SetSource() error = %v", err)
	}

	q, err := svc.Resolve(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if q.Price != 50.25 || q.Source != SourcePrimary {
		t.Errorf("quote = %+v, want primary 50.25", q)
	}
}

func TestResolve_AutoFallsBackToManual(t *testing.T) {
	svc := New(failingFetcher(), nil, nil)
	svc.WithManual(staticQuote(49.8, SourceManualURL))

	q, err := svc.Resolve(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if q.Source != SourceManualURL {
		t.Errorf("source = %s, want %s after fallback", q.Source, SourceManualURL)
	}
	if q.Price != 49.8 {
		t.Errorf("price = %v, want 49.8", q.Price)
	}
}

func TestResolve_AutoWithoutManualPropagatesError(t *testing.T) {
	svc := New(failingFetcher(), nil, nil)

	_, err := svc.Resolve(context.Background(), "AL30D.BA")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestResolve_ManualSourceWithoutFetcher(t *testing.T) {
	svc := New(staticQuote(50, SourcePrimary), nil, nil)

	if err := svc.SetSource(SourceManualURL); err == nil {
		t.Fatal("SetSource(manual_url) should fail without a manual fetcher")
	}
}

func TestResolve_CachesWithinTTL(t *testing.T) {
	calls := 0
	fetcher := FetcherFunc(func(_ context.Context, symbol string) (domain.Quote, error) {
		calls++
		return domain.Quote{Symbol: symbol, Price: 50, Source: SourcePrimary, ObservedAt: time.Now().UTC()}, nil
	})

	svc := New(fetcher, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Resolve(ctx, "AL30D.BA"); err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (cached)", calls)
	}
}

func TestResolve_RequiresSymbol(t *testing.T) {
	svc := New(staticQuote(50, SourcePrimary), nil, nil)
	if _, err := svc.Resolve(context.Background(), "  "); err == nil {
		t.Error("Resolve() should reject empty symbol")
	}
}

func TestSetSource_Validation(t *testing.T) {
	svc := New(staticQuote(50, SourcePrimary), nil, nil)

	if err := svc.SetSource("bloomberg"); err == nil {
		t.Error("SetSource() should reject unknown source")
	}
	if err := svc.SetSource("  PRIMARY_API "); err != nil {
		t.Errorf("SetSource() should normalise case/space, got %v", err)
	}
	if got := svc.Source(); got != SourcePrimary {
		t.Errorf("Source() = %s, want %s", got, SourcePrimary)
	}
}

func TestStaticFetcher(t *testing.T) {
	q, err := StaticFetcher{Price: 42.5, Currency: "USD"}.Fetch(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if q.Price != 42.5 || q.Source != "static" {
		t.Errorf("quote = %+v, want static 42.5", q)
	}

	if _, err := (StaticFetcher{}).Fetch(context.Background(), "AL30D.BA"); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("zero-price fetcher error = %v, want ErrUnavailable", err)
	}
}
