package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// quoteLookbackDays bounds the chart fallback window. A calendar week covers
// the five most recent trading sessions.
const quoteLookbackDays = 7

// YahooFetcher resolves quotes through the Yahoo Finance API. When the live
// quote endpoint returns nothing usable, typically outside market hours, it
// falls back to the most recent daily close.
type YahooFetcher struct {
	log *logger.Logger
}

// NewYahooFetcher constructs the primary quote fetcher.
func NewYahooFetcher(log *logger.Logger) *YahooFetcher {
	if log == nil {
		log = logger.NewDefault("quotes-yahoo")
	}
	return &YahooFetcher{log: log}
}

func (f *YahooFetcher) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return domain.Quote{}, fmt.Errorf("symbol required: %w", domain.ErrUnavailable)
	}

	q, err := quote.Get(symbol)
	if err != nil {
		f.log.WithError(err).WithField("symbol", symbol).Warn("live quote lookup failed")
	}
	if err == nil && q != nil && q.RegularMarketPrice > 0 {
		observed := time.Now().UTC()
		if q.RegularMarketTime > 0 {
			observed = time.Unix(int64(q.RegularMarketTime), 0).UTC()
		}
		return domain.Quote{
			Symbol:     symbol,
			Price:      q.RegularMarketPrice,
			Currency:   q.CurrencyID,
			Source:     SourcePrimary,
			ObservedAt: observed,
		}, nil
	}

	price, observed, err := f.lastDailyClose(ctx, symbol)
	if err != nil {
		f.log.WithError(err).WithField("symbol", symbol).Warn("daily close fallback failed")
		return domain.Quote{}, fmt.Errorf("fetch %s: %w", symbol, domain.ErrUnavailable)
	}
	return domain.Quote{
		Symbol:     symbol,
		Price:      price,
		Source:     SourcePrimary,
		ObservedAt: observed,
	}, nil
}

func (f *YahooFetcher) lastDailyClose(ctx context.Context, symbol string) (float64, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -quoteLookbackDays)

	iter := chart.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var (
		price float64
		ts    int
	)
	for iter.Next() {
		bar := iter.Bar()
		if closePrice, _ := bar.Close.Float64(); closePrice > 0 {
			price = closePrice
			ts = bar.Timestamp
		}
	}
	if err := iter.Err(); err != nil {
		return 0, time.Time{}, fmt.Errorf("chart lookup: %w", err)
	}
	if price <= 0 {
		return 0, time.Time{}, fmt.Errorf("no recent close for %s", symbol)
	}

	observed := time.Now().UTC()
	if ts > 0 {
		observed = time.Unix(int64(ts), 0).UTC()
	}
	return price, observed, nil
}
