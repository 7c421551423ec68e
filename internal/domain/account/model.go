package account

import (
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/period"
)

// Account is the point ledger embedded in a user profile.
type Account struct {
	UserID             string
	Username           string
	City               string
	TotalPoints        int64
	WeeklyPoints       int64
	LastWeekPoints     int64
	CurrentStreak      int
	LongestStreak      int
	LastSubmissionDate *time.Time
	WeeklyRank         *int
	LastWeekRank       *int
	WeekStartDate      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile is the externally owned identity data mirrored into the account.
type Profile struct {
	UserID   string
	Username string
	City     string
}

type Metric string

const (
	MetricTotal  Metric = "total"
	MetricWeekly Metric = "weekly"
)

func (m Metric) Valid() bool {
	return m == MetricTotal || m == MetricWeekly
}

// Points returns the counter backing metric m.
func (a Account) Points(m Metric) int64 {
	if m == MetricWeekly {
		return a.WeeklyPoints
	}
	return a.TotalPoints
}

func (a Account) Streak() Streak {
	return Streak{
		Current:            a.CurrentStreak,
		Longest:            a.LongestStreak,
		LastSubmissionDate: a.LastSubmissionDate,
	}
}

// Filter narrows the population an account is ranked against.
type Filter struct {
	Metric Metric
	City   string
	// UserIDs restricts the population when non-nil. An empty non-nil slice
	// matches nobody.
	UserIDs []string
	// ActiveOnly keeps accounts whose metric is strictly positive.
	ActiveOnly bool
}

// Matches applies every filter criterion except the metric ordering.
func (f Filter) Matches(a Account) bool {
	if f.City != "" && !strings.EqualFold(a.City, f.City) {
		return false
	}
	if f.ActiveOnly && a.Points(f.Metric) <= 0 {
		return false
	}
	if f.UserIDs != nil {
		for _, id := range f.UserIDs {
			if id == a.UserID {
				return true
			}
		}
		return false
	}
	return true
}

// Rollover moves this week's counters into the last-week snapshot when the
// account still belongs to an earlier week. It reports whether anything changed.
func (a Account) Rollover(now time.Time) (Account, bool) {
	if !period.NeedsRollover(a.WeekStartDate, now) {
		return a, false
	}
	weekStart := period.WeekStart(now)
	a.LastWeekPoints = a.WeeklyPoints
	a.LastWeekRank = a.WeeklyRank
	a.WeeklyPoints = 0
	a.WeeklyRank = nil
	a.WeekStartDate = &weekStart
	return a, true
}

// ClosingWeekPoints returns the points earned in the week before currentWeek.
// An account still sitting in that week reports its live weekly counter. One
// that already rolled into currentWeek reports its last-week snapshot.
func (a Account) ClosingWeekPoints(currentWeek time.Time) int64 {
	if a.WeekStartDate == nil {
		return 0
	}
	switch {
	case !a.WeekStartDate.Before(currentWeek):
		return a.LastWeekPoints
	case a.WeekStartDate.Equal(currentWeek.AddDate(0, 0, -7)):
		return a.WeeklyPoints
	default:
		return 0
	}
}

// ClosingStanding pairs an account with its points for the closing week.
type ClosingStanding struct {
	Account Account
	Points  int64
}

// WeeklyReward is one reward-distributor outcome applied to an account.
type WeeklyReward struct {
	UserID string
	Rank   int
	Bonus  int64
}
