package history

import (
	"sort"
	"time"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/history"
	"github.com/pampa-analytics/riskfeed/internal/app/domain/spread"
)

// Trailing mean window sizes, in trading days.
const (
	shortWindow = 7
	longWindow  = 30
)

// BuildDaily joins bond and benchmark bars by calendar day (UTC), keeping
// only days present in both series, and derives the daily spread plus the
// 7- and 30-day trailing means. A mean is attached only once its window is
// fully populated. Days with an unusable bond price are dropped.
func BuildDaily(bondBars, yieldBars []domain.Bar) []domain.DailyPoint {
	yields := make(map[string]float64, len(yieldBars))
	for _, bar := range yieldBars {
		yields[dayKey(bar.Date)] = bar.Close
	}

	// Last bar of a day wins when the upstream reports duplicates.
	bonds := make(map[string]domain.Bar, len(bondBars))
	for _, bar := range bondBars {
		bonds[dayKey(bar.Date)] = bar
	}

	points := make([]domain.DailyPoint, 0, len(bonds))
	for key, bar := range bonds {
		refYield, ok := yields[key]
		if !ok {
			continue
		}
		approx, err := spread.ImpliedYield(bar.Close)
		if err != nil {
			continue
		}
		bps, err := spread.Bps(approx, refYield)
		if err != nil {
			continue
		}
		points = append(points, domain.DailyPoint{
			Date:           day(bar.Date),
			BondPrice:      bar.Close,
			ReferenceYield: refYield,
			ApproxYield:    approx,
			SpreadBps:      bps,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	attachTrailingMeans(points)
	return points
}

func attachTrailingMeans(points []domain.DailyPoint) {
	for i := range points {
		if i >= shortWindow-1 {
			mean := windowMean(points, i, shortWindow)
			points[i].MA7 = &mean
		}
		if i >= longWindow-1 {
			mean := windowMean(points, i, longWindow)
			points[i].MA30 = &mean
		}
	}
}

// windowMean averages SpreadBps over the window of the given size ending at
// index end inclusive.
func windowMean(points []domain.DailyPoint, end, size int) float64 {
	var sum float64
	for _, p := range points[end-size+1 : end+1] {
		sum += p.SpreadBps
	}
	return sum / float64(size)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// day truncates a timestamp to midnight UTC.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
