package period

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "monday midnight is its own week start",
			now:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday late night belongs to previous monday",
			now:  time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "wednesday",
			now:  time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non utc input is normalised",
			now:  time.Date(2026, 3, 2, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			want: time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := WeekStart(tc.now); !got.Equal(tc.want) {
				t.Fatalf("WeekStart(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestNextDistribution(t *testing.T) {
	t.Parallel()

	wed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	if got, want := NextDistribution(wed), time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("from wednesday: got %s want %s", got, want)
	}

	mondayEarly := time.Date(2026, 3, 9, 0, 0, 30, 0, time.UTC)
	if got, want := NextDistribution(mondayEarly), time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("just before run: got %s want %s", got, want)
	}

	mondayAtRun := time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC)
	if got, want := NextDistribution(mondayAtRun), time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("at run time: got %s want %s", got, want)
	}
}

func TestNeedsRollover(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	current := WeekStart(now)
	previous := current.AddDate(0, 0, -7)

	if !NeedsRollover(nil, now) {
		t.Fatalf("expected rollover when week start is unset")
	}
	if !NeedsRollover(&previous, now) {
		t.Fatalf("expected rollover for previous week")
	}
	if NeedsRollover(&current, now) {
		t.Fatalf("did not expect rollover for current week")
	}
}

func TestDaysBetweenUsesUTCCalendarDays(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 5, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 1 {
		t.Fatalf("expected 1 day across midnight, got %d", got)
	}
	if got := DaysBetween(a, a.Add(-time.Hour)); got != 0 {
		t.Fatalf("expected same day, got %d", got)
	}
}
