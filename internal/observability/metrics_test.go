package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(body)
}

func TestMetrics_RecordsBusinessCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.PointsAwarded("quest_completion", 120)
	m.PointsAwarded("quest_completion", 30)
	m.PointsAwarded("activity", 0)
	m.DistributionRun("completed", 1000)
	m.DistributionRun("skipped", 0)
	m.PowerUp("streak_shield", "activate")
	m.Verification("approved")
	m.AchievementUnlocked("first_quest")
	m.RankQuery("global", "index", 3*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`questrank_points_awarded_total{activity_type="quest_completion"} 150`,
		`questrank_reward_bonus_points_total 1000`,
		`questrank_reward_distribution_runs_total{outcome="skipped"} 1`,
		`questrank_powerups_total{action="activate",type="streak_shield"} 1`,
		`questrank_verification_results_total{outcome="approved"} 1`,
		`questrank_achievements_unlocked_total{key="first_quest"} 1`,
		`questrank_rank_query_duration_seconds_count{scope="global",source="index"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
	if strings.Contains(body, `activity_type="activity"`) {
		t.Fatalf("zero-point awards must not create a series")
	}
}
