// Package daterange resolves symbolic date keywords ("last_week",
// "indian_fy") into concrete calendar windows relative to a reference
// instant.
package daterange

import "time"

// Range is an inclusive calendar window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Supported keywords.
const (
	ThisWeek      = "this_week"
	LastWeek      = "last_week"
	LastTwoWeeks  = "last_two_weeks"
	LastThreeDays = "last_three_days"
	ThisMonth     = "this_month"
	LastMonth     = "last_month"
	ThisQuarter   = "this_quarter"
	IndianFY      = "indian_fy"
)

// Resolve maps a keyword to a concrete range relative to now. The week
// starts on the local-calendar Sunday. An unknown keyword returns
// ok=false, which callers must treat as "no date constraint", not as an
// error.
func Resolve(keyword string, now time.Time) (Range, bool) {
	switch keyword {
	case ThisWeek:
		return Range{Start: startOfWeek(now), End: now}, true

	case LastWeek:
		end := startOfWeek(now).AddDate(0, 0, -1)
		return Range{Start: end.AddDate(0, 0, -6), End: end}, true

	case LastTwoWeeks:
		return Range{Start: now.AddDate(0, 0, -14), End: now}, true

	case LastThreeDays:
		return Range{Start: now.AddDate(0, 0, -3), End: now}, true

	case ThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{Start: start, End: now}, true

	case LastMonth:
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location())
		return Range{Start: start, End: end}, true

	case ThisQuarter:
		qMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), qMonth, 1, 0, 0, 0, 0, now.Location())
		return Range{Start: start, End: now}, true

	case IndianFY:
		// Fiscal year runs April 1 through March 31.
		startYear := now.Year()
		if now.Month() < time.April {
			startYear--
		}
		start := time.Date(startYear, time.April, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(startYear+1, time.March, 31, 23, 59, 59, 0, now.Location())
		return Range{Start: start, End: end}, true

	default:
		return Range{}, false
	}
}

// startOfWeek truncates to midnight of the most recent Sunday.
func startOfWeek(t time.Time) time.Time {
	d := t.AddDate(0, 0, -int(t.Weekday()))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}
