package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
	"github.com/pampa-analytics/riskfeed/internal/app/storage"
)

func obsAt(t time.Time, bps float64) spread.Observation {
	return spread.Observation{
		BondSymbol:     "AL30D.BA",
		YieldSymbol:    "^TNX",
		BondPrice:      50,
		ReferenceYield: 4.3,
		ApproxYield:    20,
		SpreadBps:      bps,
		Level:          spread.Classify(bps),
		ObservedAt:     t,
	}
}

func TestAppendObservation_AssignsIDAndOrders(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)

	// Insert out of order; reads must come back sorted by observation time.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		obs, err := store.AppendObservation(ctx, obsAt(base.Add(offset), 1570))
		if err != nil {
			t.Fatalf("AppendObservation() error = %v", err)
		}
		if obs.ID == "" {
			t.Error("AppendObservation() should assign an ID")
		}
	}

	list, err := store.ListObservations(ctx)
	if err != nil {
		t.Fatalf("ListObservations() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ObservedAt.Before(list[i-1].ObservedAt) {
			t.Errorf("observations out of order at %d: %v before %v", i, list[i].ObservedAt, list[i-1].ObservedAt)
		}
	}
}

func TestLatestObservation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.LatestObservation(ctx); !errors.Is(err, storage.ErrNoObservations) {
		t.Fatalf("LatestObservation() error = %v, want ErrNoObservations", err)
	}

	base := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	if _, err := store.AppendObservation(ctx, obsAt(base.Add(time.Minute), 1570)); err != nil {
		t.Fatalf("AppendObservation() error = %v", err)
	}
	if _, err := store.AppendObservation(ctx, obsAt(base, 1400)); err != nil {
		t.Fatalf("AppendObservation() error = %v", err)
	}

	latest, err := store.LatestObservation(ctx)
	if err != nil {
		t.Fatalf("LatestObservation() error = %v", err)
	}
	if latest.SpreadBps != 1570 {
		t.Errorf("latest.SpreadBps = %v, want 1570 (newest by observation time)", latest.SpreadBps)
	}

	count, err := store.CountObservations(ctx)
	if err != nil {
		t.Fatalf("CountObservations() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestReplaceHistory_SortsAndClones(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	ma := 1500.0
	points := []history.DailyPoint{
		{Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), SpreadBps: 1600, MA7: &ma},
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), SpreadBps: 1550},
	}
	if err := store.ReplaceHistory(ctx, points); err != nil {
		t.Fatalf("ReplaceHistory() error = %v", err)
	}

	// Mutating the caller's pointer must not leak into the store.
	ma = 9999

	list, err := store.ListHistory(ctx)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if !list[0].Date.Before(list[1].Date) {
		t.Error("history should be sorted by date")
	}
	if list[1].MA7 == nil || *list[1].MA7 != 1500 {
		t.Errorf("MA7 = %v, want isolated copy of 1500", list[1].MA7)
	}

	builtAt, err := store.HistoryBuiltAt(ctx)
	if err != nil {
		t.Fatalf("HistoryBuiltAt() error = %v", err)
	}
	if builtAt.IsZero() {
		t.Error("HistoryBuiltAt() should be set after ReplaceHistory")
	}
}

func TestHistoryForMonth(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	points := []history.DailyPoint{
		{Date: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), SpreadBps: 1500},
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), SpreadBps: 1550},
		{Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), SpreadBps: 1600},
	}
	if err := store.ReplaceHistory(ctx, points); err != nil {
		t.Fatalf("ReplaceHistory() error = %v", err)
	}

	may, err := store.HistoryForMonth(ctx, 2024, time.May)
	if err != nil {
		t.Fatalf("HistoryForMonth() error = %v", err)
	}
	if len(may) != 2 {
		t.Errorf("len(may) = %d, want 2", len(may))
	}

	empty, err := store.HistoryForMonth(ctx, 2023, time.January)
	if err != nil {
		t.Fatalf("HistoryForMonth() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len(empty) = %d, want 0", len(empty))
	}

	months, err := store.HistoryMonths(ctx)
	if err != nil {
		t.Fatalf("HistoryMonths() error = %v", err)
	}
	want := []history.Month{
		{Year: 2024, Month: time.April},
		{Year: 2024, Month: time.May},
	}
	if len(months) != len(want) {
		t.Fatalf("months = %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("months[%d] = %v, want %v", i, months[i], want[i])
		}
	}
}
