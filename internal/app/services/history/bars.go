package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// ChartSource loads daily closing bars for a symbol over a date range.
type ChartSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// ChartSourceFunc adapts a function to the ChartSource interface.
type ChartSourceFunc func(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

func (f ChartSourceFunc) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if f == nil {
		return nil, fmt.Errorf("chart source not configured")
	}
	return f(ctx, symbol, start, end)
}

// YahooChartSource loads bars from the Yahoo Finance chart API.
type YahooChartSource struct {
	log *logger.Logger
}

// NewYahooChartSource constructs the default chart source.
func NewYahooChartSource(log *logger.Logger) *YahooChartSource {
	if log == nil {
		log = logger.NewDefault("history-chart")
	}
	return &YahooChartSource{log: log}
}

func (s *YahooChartSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	iter := chart.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []domain.Bar
	for iter.Next() {
		bar := iter.Bar()
		closePrice, _ := bar.Close.Float64()
		if closePrice <= 0 || bar.Timestamp <= 0 {
			continue
		}
		bars = append(bars, domain.Bar{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			Close: closePrice,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no daily bars for %s", symbol)
	}

	s.log.WithField("symbol", symbol).
		WithField("bars", len(bars)).
		Debug("daily bars loaded")
	return bars, nil
}
