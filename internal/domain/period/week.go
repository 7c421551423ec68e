// Package period defines the weekly competition calendar. Weeks start on
// Monday 00:00 UTC.
package period

import "time"

const (
	Week = 7 * 24 * time.Hour

	// DistributionOffset is how long after the week boundary the weekly reward
	// run is scheduled.
	DistributionOffset = time.Minute
)

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the most recent Monday 00:00 UTC at or before now.
func WeekStart(now time.Time) time.Time {
	day := Day(now)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -sinceMonday)
}

// WeekEnd returns the exclusive end of the week containing now.
func WeekEnd(now time.Time) time.Time {
	return WeekStart(now).AddDate(0, 0, 7)
}

// NextDistribution returns the next Monday 00:01 UTC strictly after now.
func NextDistribution(now time.Time) time.Time {
	at := WeekStart(now).Add(DistributionOffset)
	if !at.After(now.UTC()) {
		at = at.AddDate(0, 0, 7)
	}
	return at
}

// NeedsRollover reports whether an account whose weekly counters belong to
// weekStart must be rolled into the week containing now.
func NeedsRollover(weekStart *time.Time, now time.Time) bool {
	return weekStart == nil || weekStart.Before(WeekStart(now))
}

// DaysBetween counts UTC calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}
