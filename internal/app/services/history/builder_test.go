package history

import (
	"testing"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/history"
)

func almostEqual(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}

// dailyBars builds one bar per consecutive day starting at start.
func dailyBars(start time.Time, closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, domain.Bar{Date: start.AddDate(0, 0, i), Close: c})
	}
	return bars
}

func TestBuildDailyJoinsByDay(t *testing.T) {
	start := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)

	bond := dailyBars(start, 50, 50, 50)
	// Benchmark series is missing the middle day.
	yield := []domain.Bar{
		{Date: start, Close: 4.3},
		{Date: start.AddDate(0, 0, 2), Close: 4.3},
	}

	points := BuildDaily(bond, yield)
	if len(points) != 2 {
		t.Fatalf("expected 2 joined days, got %d", len(points))
	}
	for _, p := range points {
		if !almostEqual(p.ApproxYield, 20) {
			t.Fatalf("expected approx yield 20, got %v", p.ApproxYield)
		}
		if !almostEqual(p.SpreadBps, 1570) {
			t.Fatalf("expected spread 1570, got %v", p.SpreadBps)
		}
		if p.Date.Hour() != 0 || p.Date.Location() != time.UTC {
			t.Fatalf("expected dates truncated to midnight UTC, got %v", p.Date)
		}
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Fatal("expected points in date order")
	}
}

func TestBuildDailyTrailingMeans(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	// Alternate 50/40 so the spread alternates 1600/2100 against a flat 4%.
	closes := make([]float64, 35)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 50
		} else {
			closes[i] = 40
		}
	}
	yields := make([]float64, 35)
	for i := range yields {
		yields[i] = 4
	}

	points := BuildDaily(dailyBars(start, closes...), dailyBars(start, yields...))
	if len(points) != 35 {
		t.Fatalf("expected 35 points, got %d", len(points))
	}

	for i := 0; i < shortWindow-1; i++ {
		if points[i].MA7 != nil {
			t.Fatalf("expected nil MA7 before the window fills, got %v at %d", *points[i].MA7, i)
		}
	}
	if points[shortWindow-1].MA7 == nil {
		t.Fatal("expected MA7 once the window is full")
	}
	// First 7 days: four at 1600, three at 2100.
	want := (4*1600.0 + 3*2100.0) / 7
	if got := *points[shortWindow-1].MA7; !almostEqual(got, want) {
		t.Fatalf("expected MA7 %v, got %v", want, got)
	}

	for i := 0; i < longWindow-1; i++ {
		if points[i].MA30 != nil {
			t.Fatalf("expected nil MA30 before the window fills, got %v at %d", *points[i].MA30, i)
		}
	}
	if points[longWindow-1].MA30 == nil {
		t.Fatal("expected MA30 once the window is full")
	}
	// First 30 days: fifteen at each level.
	if got := *points[longWindow-1].MA30; !almostEqual(got, (1600.0+2100.0)/2) {
		t.Fatalf("expected MA30 1850, got %v", got)
	}
}

func TestBuildDailySkipsUnusablePrices(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	bond := dailyBars(start, 50, 0, 50)
	yield := dailyBars(start, 4.3, 4.3, 4.3)

	points := BuildDaily(bond, yield)
	if len(points) != 2 {
		t.Fatalf("expected zero-price day dropped, got %d points", len(points))
	}
}

func TestBuildDailyOrdersUnorderedInput(t *testing.T) {
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)

	bond := []domain.Bar{{Date: d3, Close: 40}, {Date: d1, Close: 50}, {Date: d2, Close: 45}}
	yield := []domain.Bar{{Date: d2, Close: 4}, {Date: d3, Close: 4}, {Date: d1, Close: 4}}

	points := BuildDaily(bond, yield)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Fatalf("expected ascending dates, got %v before %v", points[i-1].Date, points[i].Date)
		}
	}
	if points[0].BondPrice != 50 || points[2].BondPrice != 40 {
		t.Fatalf("unexpected price order: %v / %v", points[0].BondPrice, points[2].BondPrice)
	}
}

func TestBuildDailyDuplicateDayLastWins(t *testing.T) {
	d := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	bond := []domain.Bar{{Date: d, Close: 50}, {Date: d.Add(2 * time.Hour), Close: 48}}
	yield := []domain.Bar{{Date: d, Close: 4.3}}

	points := BuildDaily(bond, yield)
	if len(points) != 1 {
		t.Fatalf("expected a single point for the day, got %d", len(points))
	}
	if points[0].BondPrice != 48 {
		t.Fatalf("expected the later bar to win, got price %v", points[0].BondPrice)
	}
}
