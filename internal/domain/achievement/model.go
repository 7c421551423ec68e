package achievement

import "time"

type Category string

const (
	CategoryLeaderboard Category = "leaderboard"
	CategoryPoints      Category = "points"
	CategoryStreak      Category = "streak"
	CategorySocial      Category = "social"
	CategorySpecial     Category = "special"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLeaderboard, CategoryPoints, CategoryStreak, CategorySocial, CategorySpecial:
		return true
	default:
		return false
	}
}

// Rule names the unlock condition variant of an achievement.
type Rule string

const (
	RuleGlobalRank          Rule = "global_rank"
	RuleWeeklyRank          Rule = "weekly_rank"
	RuleCityRank            Rule = "city_rank"
	RuleSquadRank           Rule = "squad_rank"
	RuleTotalPoints         Rule = "total_points"
	RuleStreak              Rule = "streak"
	RuleFriends             Rule = "friends"
	RuleSquadMember         Rule = "squad_member"
	RuleSquadLeader         Rule = "squad_leader"
	RuleUnlockedCount       Rule = "unlocked_count"
	RuleApprovedSubmissions Rule = "approved_submissions"
	RulePerfectPhotos       Rule = "perfect_photos"
	RulePowerUpsActivated   Rule = "powerups_activated"
	RuleTimeWindow          Rule = "time_window"
)

func (r Rule) Valid() bool {
	switch r {
	case RuleGlobalRank, RuleWeeklyRank, RuleCityRank, RuleSquadRank,
		RuleTotalPoints, RuleStreak, RuleFriends, RuleSquadMember, RuleSquadLeader,
		RuleUnlockedCount, RuleApprovedSubmissions, RulePerfectPhotos, RulePowerUpsActivated,
		RuleTimeWindow:
		return true
	default:
		return false
	}
}

// RankBased rules treat the requirement as a rank ceiling.
func (r Rule) RankBased() bool {
	return r == RuleGlobalRank || r == RuleWeeklyRank || r == RuleCityRank || r == RuleSquadRank
}

type Achievement struct {
	Key          string
	Name         string
	Description  string
	Icon         string
	Category     Category
	Rule         Rule
	Window       string
	Requirement  int
	RewardPoints int64
}

type UserAchievement struct {
	UserID         string
	AchievementKey string
	RewardPoints   int64
	UnlockedAt     time.Time
}

// Stats is the live state achievements are evaluated against. A zero rank
// means the user is not ranked in that scope.
type Stats struct {
	GlobalRank          int
	WeeklyRank          int
	CityRank            int
	BestSquadRank       int
	TotalPoints         int64
	CurrentStreak       int
	Friends             int
	SquadMemberships    int
	LedSquads           int
	UnlockedCount       int
	ApprovedSubmissions int
	PerfectPhotos       int
	PowerUpsActivated   int
	WindowSubmissions   map[string]int
}
