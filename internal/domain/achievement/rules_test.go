package achievement

import (
	"strings"
	"testing"
)

func TestDefaultCatalogMatchesPublishedAchievements(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	if catalog.Len() != 25 {
		t.Fatalf("expected 25 achievements, got %d", catalog.Len())
	}

	checks := map[string]struct {
		category    Category
		rule        Rule
		requirement int
		reward      int64
	}{
		"top_10":        {CategoryLeaderboard, RuleGlobalRank, 10, 500},
		"rank_1":        {CategoryLeaderboard, RuleGlobalRank, 1, 2000},
		"weekly_winner": {CategoryLeaderboard, RuleWeeklyRank, 1, 1000},
		"points_100000": {CategoryPoints, RuleTotalPoints, 100000, 5000},
		"streak_365":    {CategoryStreak, RuleStreak, 365, 10000},
		"friends_5":     {CategorySocial, RuleFriends, 5, 50},
		"squad_create":  {CategorySocial, RuleSquadLeader, 1, 200},
		"overachiever":  {CategorySpecial, RuleUnlockedCount, 20, 1000},
		"first_quest":   {CategorySpecial, RuleApprovedSubmissions, 1, 25},
	}
	for key, want := range checks {
		got, ok := catalog.Lookup(key)
		if !ok {
			t.Fatalf("missing %s", key)
		}
		if got.Category != want.category || got.Rule != want.rule || got.Requirement != want.requirement || got.RewardPoints != want.reward {
			t.Fatalf("%s: got %+v", key, got)
		}
	}

	if got, _ := catalog.Lookup("night_owl"); got.Window != "night_owl" {
		t.Fatalf("expected night_owl window, got %q", got.Window)
	}
	if _, ok := catalog.Lookup("unknown"); ok {
		t.Fatalf("did not expect unknown key")
	}
}

func TestSatisfied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		item  Achievement
		stats Stats
		want  bool
	}{
		{name: "rank within ceiling", item: Achievement{Rule: RuleGlobalRank, Requirement: 10}, stats: Stats{GlobalRank: 10}, want: true},
		{name: "rank outside ceiling", item: Achievement{Rule: RuleGlobalRank, Requirement: 10}, stats: Stats{GlobalRank: 11}},
		{name: "unranked never satisfies", item: Achievement{Rule: RuleWeeklyRank, Requirement: 1}, stats: Stats{}},
		{name: "city rank", item: Achievement{Rule: RuleCityRank, Requirement: 1}, stats: Stats{CityRank: 1}, want: true},
		{name: "squad rank", item: Achievement{Rule: RuleSquadRank, Requirement: 10}, stats: Stats{BestSquadRank: 3}, want: true},
		{name: "points threshold", item: Achievement{Rule: RuleTotalPoints, Requirement: 1000}, stats: Stats{TotalPoints: 1000}, want: true},
		{name: "points below", item: Achievement{Rule: RuleTotalPoints, Requirement: 1000}, stats: Stats{TotalPoints: 999}},
		{name: "streak", item: Achievement{Rule: RuleStreak, Requirement: 7}, stats: Stats{CurrentStreak: 8}, want: true},
		{name: "friends", item: Achievement{Rule: RuleFriends, Requirement: 5}, stats: Stats{Friends: 4}},
		{name: "squad member", item: Achievement{Rule: RuleSquadMember, Requirement: 1}, stats: Stats{SquadMemberships: 1}, want: true},
		{name: "squad leader needs leader role", item: Achievement{Rule: RuleSquadLeader, Requirement: 1}, stats: Stats{SquadMemberships: 2}},
		{name: "unlocked count", item: Achievement{Rule: RuleUnlockedCount, Requirement: 20}, stats: Stats{UnlockedCount: 20}, want: true},
		{name: "time window", item: Achievement{Rule: RuleTimeWindow, Window: "early_bird", Requirement: 1}, stats: Stats{WindowSubmissions: map[string]int{"early_bird": 1}}, want: true},
		{name: "other time window", item: Achievement{Rule: RuleTimeWindow, Window: "night_owl", Requirement: 1}, stats: Stats{WindowSubmissions: map[string]int{"early_bird": 4}}},
		{name: "unknown rule", item: Achievement{Rule: "mystery", Requirement: 1}, stats: Stats{TotalPoints: 1e6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.item.Satisfied(tc.stats); got != tc.want {
				t.Fatalf("Satisfied = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseCatalogRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	entry := func(extra string) string {
		return "[[achievement]]\nkey = \"k\"\nname = \"n\"\ncategory = \"points\"\n" + extra
	}
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "unknown rule", raw: entry("rule = \"likes\"\nrequirement = 1\n"), wantErr: "unknown rule"},
		{name: "zero requirement", raw: entry("rule = \"total_points\"\nrequirement = 0\n"), wantErr: "requirement must be > 0"},
		{name: "window on wrong rule", raw: entry("rule = \"total_points\"\nwindow = \"night_owl\"\nrequirement = 1\n"), wantErr: "window is only valid"},
		{name: "missing window", raw: entry("rule = \"time_window\"\nrequirement = 1\n"), wantErr: "known window"},
		{name: "unknown key", raw: entry("rule = \"streak\"\nrequirement = 1\ncriteria = \"x\"\n"), wantErr: "unknown keys"},
		{name: "duplicate", raw: entry("rule = \"streak\"\nrequirement = 1\n") + entry("rule = \"streak\"\nrequirement = 2\n"), wantErr: "duplicate key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNeedsOf(t *testing.T) {
	t.Parallel()

	needs := NeedsOf([]Achievement{{Rule: RuleGlobalRank}, {Rule: RuleFriends}})
	if !needs.Any(RuleFriends) || !needs.Any(RuleCityRank, RuleGlobalRank) {
		t.Fatalf("expected rules to be needed: %v", needs)
	}
	if needs.Any(RuleStreak, RuleSquadRank) {
		t.Fatalf("did not expect unrelated rules: %v", needs)
	}
}
