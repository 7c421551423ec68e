package account

import (
	"testing"
	"time"
)

func TestStreakAdvance(t *testing.T) {
	t.Parallel()

	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }
	ptr := func(v time.Time) *time.Time { return &v }

	tests := []struct {
		name        string
		state       Streak
		now         time.Time
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{
			name:        "first submission starts streak",
			state:       Streak{},
			now:         day(4, 9),
			wantCurrent: 1,
			wantLongest: 1,
			wantChanged: true,
		},
		{
			name:        "same day is a no-op",
			state:       Streak{Current: 3, Longest: 5, LastSubmissionDate: ptr(day(4, 1))},
			now:         day(4, 23),
			wantCurrent: 3,
			wantLongest: 5,
			wantChanged: false,
		},
		{
			name:        "next day extends and raises longest",
			state:       Streak{Current: 5, Longest: 5, LastSubmissionDate: ptr(day(3, 23))},
			now:         day(4, 0),
			wantCurrent: 6,
			wantLongest: 6,
			wantChanged: true,
		},
		{
			name:        "next day keeps a higher longest",
			state:       Streak{Current: 2, Longest: 9, LastSubmissionDate: ptr(day(3, 12))},
			now:         day(4, 12),
			wantCurrent: 3,
			wantLongest: 9,
			wantChanged: true,
		},
		{
			name:        "gap resets to one",
			state:       Streak{Current: 12, Longest: 12, LastSubmissionDate: ptr(day(1, 12))},
			now:         day(4, 12),
			wantCurrent: 1,
			wantLongest: 12,
			wantChanged: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next, changed := tc.state.Advance(tc.now)
			if changed != tc.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if next.Current != tc.wantCurrent || next.Longest != tc.wantLongest {
				t.Fatalf("got current=%d longest=%d, want %d/%d", next.Current, next.Longest, tc.wantCurrent, tc.wantLongest)
			}
			if !changed {
				if next.LastSubmissionDate != tc.state.LastSubmissionDate {
					t.Fatalf("same-day submission must not touch the last submission date")
				}
				return
			}
			if next.LastSubmissionDate == nil || !next.LastSubmissionDate.Equal(tc.now) {
				t.Fatalf("expected last submission date %s, got %v", tc.now, next.LastSubmissionDate)
			}
		})
	}
}

func TestAccountRolloverIsIdempotent(t *testing.T) {
	t.Parallel()

	rank := 4
	lastWeek := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	acc := Account{UserID: "u1", TotalPoints: 900, WeeklyPoints: 300, WeeklyRank: &rank, WeekStartDate: &lastWeek}
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	rolled, changed := acc.Rollover(now)
	if !changed {
		t.Fatalf("expected rollover")
	}
	if rolled.LastWeekPoints != 300 || rolled.WeeklyPoints != 0 || rolled.WeeklyRank != nil {
		t.Fatalf("unexpected rolled state: %+v", rolled)
	}
	if rolled.LastWeekRank == nil || *rolled.LastWeekRank != 4 {
		t.Fatalf("expected last week rank 4, got %v", rolled.LastWeekRank)
	}
	if rolled.TotalPoints != 900 {
		t.Fatalf("rollover must not touch total points")
	}

	again, changed := rolled.Rollover(now.Add(time.Hour))
	if changed {
		t.Fatalf("second rollover in the same week must be a no-op")
	}
	if again.WeekStartDate != rolled.WeekStartDate || again.LastWeekPoints != 300 {
		t.Fatalf("second rollover changed state: %+v", again)
	}
}

func TestFilterMatches(t *testing.T) {
	t.Parallel()

	acc := Account{UserID: "u1", City: "Porto", WeeklyPoints: 0, TotalPoints: 10}
	if !(Filter{Metric: MetricTotal}).Matches(acc) {
		t.Fatalf("expected global match")
	}
	if (Filter{Metric: MetricWeekly, ActiveOnly: true}).Matches(acc) {
		t.Fatalf("expected inactive weekly account to be excluded")
	}
	if (Filter{Metric: MetricTotal, City: "Lisbon"}).Matches(acc) {
		t.Fatalf("expected city mismatch")
	}
	if (Filter{Metric: MetricTotal, UserIDs: []string{}}).Matches(acc) {
		t.Fatalf("expected empty id set to match nobody")
	}
	if !(Filter{Metric: MetricTotal, UserIDs: []string{"u2", "u1"}}).Matches(acc) {
		t.Fatalf("expected id set match")
	}
}

func TestAccountClosingWeekPoints(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	previous := current.AddDate(0, 0, -7)
	older := current.AddDate(0, 0, -14)

	tests := []struct {
		name string
		acc  Account
		want int64
	}{
		{"never rolled", Account{WeeklyPoints: 40}, 0},
		{"still in the closing week", Account{WeeklyPoints: 300, LastWeekPoints: 90, WeekStartDate: &previous}, 300},
		{"already in the current week", Account{WeeklyPoints: 50, LastWeekPoints: 400, WeekStartDate: &current}, 400},
		{"idle through the closing week", Account{WeeklyPoints: 700, WeekStartDate: &older}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acc.ClosingWeekPoints(current); got != tt.want {
				t.Fatalf("ClosingWeekPoints() = %d, want %d", got, tt.want)
			}
		})
	}
}
