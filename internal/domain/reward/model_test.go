package reward

import (
	"testing"
	"time"
)

func TestTierFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rank  int
		bonus int64
		badge string
		ok    bool
	}{
		{rank: 1, bonus: 5000, badge: "weekly_champion_gold", ok: true},
		{rank: 2, bonus: 3000, badge: "weekly_champion_silver", ok: true},
		{rank: 3, bonus: 2000, badge: "weekly_champion_bronze", ok: true},
		{rank: 4, bonus: 1000, badge: "weekly_top_10", ok: true},
		{rank: 10, bonus: 1000, badge: "weekly_top_10", ok: true},
		{rank: 11, bonus: 500, badge: "weekly_top_25", ok: true},
		{rank: 26, bonus: 250, badge: "weekly_top_50", ok: true},
		{rank: 50, bonus: 250, badge: "weekly_top_50", ok: true},
		{rank: 51, bonus: 100, badge: "weekly_top_100", ok: true},
		{rank: 100, bonus: 100, badge: "weekly_top_100", ok: true},
		{rank: 101, ok: false},
		{rank: 0, ok: false},
	}
	for _, tc := range cases {
		tier, ok := TierFor(tc.rank)
		if ok != tc.ok {
			t.Fatalf("rank %d: ok=%v want %v", tc.rank, ok, tc.ok)
		}
		if ok && (tier.Bonus != tc.bonus || tier.Badge != tc.badge) {
			t.Fatalf("rank %d: got %+v", tc.rank, tier)
		}
	}
}

func TestTiersAreDisjointAndCoverTopN(t *testing.T) {
	t.Parallel()

	covered := map[int]int{}
	for _, tier := range Tiers() {
		for r := tier.FromRank; r <= tier.ToRank; r++ {
			covered[r]++
		}
	}
	for r := 1; r <= TopN; r++ {
		if covered[r] != 1 {
			t.Fatalf("rank %d covered %d times", r, covered[r])
		}
	}
}

func TestRunWeeks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC)
	if got := RunWeek(now); !got.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected run week %s", got)
	}
	if got := RewardedWeek(now); !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected rewarded week %s", got)
	}
}
