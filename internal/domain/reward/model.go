package reward

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/period"
)

// TopN is how many weekly ranks receive a bonus.
const TopN = 100

type Tier struct {
	FromRank int
	ToRank   int
	Bonus    int64
	Badge    string
}

var tiers = []Tier{
	{FromRank: 1, ToRank: 1, Bonus: 5000, Badge: "weekly_champion_gold"},
	{FromRank: 2, ToRank: 2, Bonus: 3000, Badge: "weekly_champion_silver"},
	{FromRank: 3, ToRank: 3, Bonus: 2000, Badge: "weekly_champion_bronze"},
	{FromRank: 4, ToRank: 10, Bonus: 1000, Badge: "weekly_top_10"},
	{FromRank: 11, ToRank: 25, Bonus: 500, Badge: "weekly_top_25"},
	{FromRank: 26, ToRank: 50, Bonus: 250, Badge: "weekly_top_50"},
	{FromRank: 51, ToRank: 100, Bonus: 100, Badge: "weekly_top_100"},
}

// TierFor returns the first tier containing rank.
func TierFor(rank int) (Tier, bool) {
	for _, tier := range tiers {
		if rank >= tier.FromRank && rank <= tier.ToRank {
			return tier, true
		}
	}
	return Tier{}, false
}

func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one weekly distribution. Week is the calendar week in which the
// run happened and is unique, so a week can be paid out at most once.
type Run struct {
	Week         time.Time
	Status       RunStatus
	Rewarded     int
	Failed       int
	Reset        int64
	BonusPoints  int64
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// RunWeek is the claim key for a run at now.
func RunWeek(now time.Time) time.Time {
	return period.WeekStart(now)
}

// RewardedWeek is the competition week a run at now pays out: the week that
// just ended.
func RewardedWeek(now time.Time) time.Time {
	return period.WeekStart(now).AddDate(0, 0, -7)
}

type BadgeAward struct {
	UserID    string
	Badge     string
	WeekStart time.Time
	Rank      int
	Bonus     int64
	Points    int64
	AwardedAt time.Time
}
