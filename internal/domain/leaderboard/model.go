package leaderboard

import (
	"math"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
)

type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeWeekly  Scope = "weekly"
	ScopeCity    Scope = "city"
	ScopeFriends Scope = "friends"
	ScopeSquads  Scope = "squads"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Standing is the minimal ordering key of a ranked participant.
type Standing struct {
	ID        string
	Points    int64
	CreatedAt time.Time
}

// Dominates reports whether a ranks strictly ahead of b: more points, then the
// earlier creation time, then the smaller id.
func Dominates(a, b Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func StandingOf(acc account.Account, metric account.Metric) Standing {
	return Standing{ID: acc.UserID, Points: acc.Points(metric), CreatedAt: acc.CreatedAt}
}

// Percentile is (total-rank+1)/total*100 rounded to one decimal.
func Percentile(rank, total int) float64 {
	if total <= 0 || rank <= 0 {
		return 0
	}
	raw := float64(total-rank+1) / float64(total) * 100
	return math.Round(raw*10) / 10
}

type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default limit and clamps out-of-range values.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Entry is one ranked account row.
type Entry struct {
	Rank          int
	UserID        string
	Username      string
	City          string
	Points        int64
	CurrentStreak int
	RankChange    *int
	IsCurrentUser bool
}

type SquadEntry struct {
	Rank         int
	SquadID      string
	Name         string
	City         string
	Points       int64
	TotalPoints  int64
	WeeklyPoints int64
	MemberCount  int
}

// Position is a single account's standing within a scope.
type Position struct {
	UserID     string
	Scope      Scope
	Rank       int
	TotalCount int
	Percentile float64
	Points     int64
}

// WeekWindow describes the current weekly competition period.
type WeekWindow struct {
	Start          time.Time
	End            time.Time
	TimeUntilReset time.Duration
}

// Board names used by rank indexes.
const (
	BoardGlobal = "global"
	BoardWeekly = "weekly"
)

func CityBoard(city string) string {
	return "city:" + strings.ToLower(strings.TrimSpace(city))
}
