package achievement

// Satisfied evaluates the achievement's rule against s.
func (a Achievement) Satisfied(s Stats) bool {
	req := a.Requirement
	switch a.Rule {
	case RuleGlobalRank:
		return withinRank(s.GlobalRank, req)
	case RuleWeeklyRank:
		return withinRank(s.WeeklyRank, req)
	case RuleCityRank:
		return withinRank(s.CityRank, req)
	case RuleSquadRank:
		return withinRank(s.BestSquadRank, req)
	case RuleTotalPoints:
		return s.TotalPoints >= int64(req)
	case RuleStreak:
		return s.CurrentStreak >= req
	case RuleFriends:
		return s.Friends >= req
	case RuleSquadMember:
		return s.SquadMemberships >= req
	case RuleSquadLeader:
		return s.LedSquads >= req
	case RuleUnlockedCount:
		return s.UnlockedCount >= req
	case RuleApprovedSubmissions:
		return s.ApprovedSubmissions >= req
	case RulePerfectPhotos:
		return s.PerfectPhotos >= req
	case RulePowerUpsActivated:
		return s.PowerUpsActivated >= req
	case RuleTimeWindow:
		return s.WindowSubmissions[a.Window] >= req
	default:
		return false
	}
}

func withinRank(rank, ceiling int) bool {
	return rank > 0 && rank <= ceiling
}

// Needs is the set of rules a batch of achievements depends on, so the
// evaluator loads only the stats it will read.
type Needs map[Rule]bool

func NeedsOf(items []Achievement) Needs {
	out := make(Needs, len(items))
	for _, item := range items {
		out[item.Rule] = true
	}
	return out
}

func (n Needs) Any(rules ...Rule) bool {
	for _, r := range rules {
		if n[r] {
			return true
		}
	}
	return false
}
