package analytics

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Timeframe selects the sales chart granularity.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ChartPoint is one bucket of the sales chart.
type ChartPoint struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Total float64   `json:"total"`
}

// ParseTimeframe validates a timeframe, defaulting to daily.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch Timeframe(raw) {
	case "":
		return TimeframeDaily, nil
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return Timeframe(raw), nil
	default:
		return "", shared.Invalid("unknown timeframe %q", raw)
	}
}

// SalesChart buckets sale totals ending at now: the last 7 days, the last 4
// Sunday-started weeks, or the last 6 calendar months.
func SalesChart(list []sales.Sale, tf Timeframe, now time.Time, loc *time.Location) []ChartPoint {
	if loc == nil {
		loc = time.UTC
	}
	today, _ := shared.DayRange(now, loc)

	var starts []time.Time
	var next func(time.Time) time.Time
	var label func(time.Time) string
	switch tf {
	case TimeframeWeekly:
		week := today.AddDate(0, 0, -int(today.Weekday()))
		for i := 3; i >= 0; i-- {
			starts = append(starts, week.AddDate(0, 0, -7*i))
		}
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
		label = func(t time.Time) string { return fmt.Sprintf("Wk %02d", t.Day()) }
	case TimeframeMonthly:
		month, _ := shared.MonthRange(now, loc)
		for i := 5; i >= 0; i-- {
			starts = append(starts, month.AddDate(0, -i, 0))
		}
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
		label = func(t time.Time) string { return t.Format("Jan") }
	default:
		for i := 6; i >= 0; i-- {
			starts = append(starts, today.AddDate(0, 0, -i))
		}
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
		label = func(t time.Time) string { return t.Format("Jan 2") }
	}

	points := make([]ChartPoint, len(starts))
	for i, start := range starts {
		points[i] = ChartPoint{Label: label(start), Start: start}
	}
	for _, s := range list {
		for i, start := range starts {
			if within(s.OccurredAt, start, next(start)) {
				points[i].Total += s.TotalAmount
				break
			}
		}
	}
	return points
}
