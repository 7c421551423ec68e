package scoring

import (
	"errors"
	"testing"
	"time"
)

// 10:00 UTC falls outside every time-of-day window.
var quietHour = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func float(v float64) *float64 { return &v }

func TestStandardScoringNoBonuses(t *testing.T) {
	t.Parallel()

	for _, base := range []int64{1, 7, 33, 100, 12345} {
		res, err := StandardScoring{}.Calculate(base, Input{At: quietHour})
		if err != nil {
			t.Fatalf("calculate %d: %v", base, err)
		}
		if res.FinalPoints != base || res.TotalMultiplier != 1.0 || len(res.Breakdown) != 0 {
			t.Fatalf("base %d: got %+v", base, res)
		}
	}
}

func TestStandardScoringFloorsStreakBonus(t *testing.T) {
	t.Parallel()

	cases := map[int64]int64{100: 110, 33: 36}
	for base, want := range cases {
		res, err := StandardScoring{}.Calculate(base, Input{At: quietHour, StreakDays: 7})
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		if res.FinalPoints != want {
			t.Fatalf("base %d: got %d want %d", base, res.FinalPoints, want)
		}
	}
}

func TestStandardScoringStackedScenario(t *testing.T) {
	t.Parallel()

	res, err := StandardScoring{}.Calculate(100, Input{
		At:         quietHour,
		StreakDays: 7,
		Rarity:     RarityRare,
		FirstVisit: true,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.FinalPoints != 257 {
		t.Fatalf("expected 257 points, got %d", res.FinalPoints)
	}
	if res.TotalMultiplier != 2.57 {
		t.Fatalf("expected rounded multiplier 2.57, got %v", res.TotalMultiplier)
	}

	wantTypes := []string{BonusRarity, BonusStreak, BonusFirstVisit}
	if len(res.Breakdown) != len(wantTypes) {
		t.Fatalf("unexpected breakdown: %+v", res.Breakdown)
	}
	for i, kind := range wantTypes {
		if res.Breakdown[i].Type != kind {
			t.Fatalf("breakdown[%d] = %s, want %s", i, res.Breakdown[i].Type, kind)
		}
	}
	if res.Breakdown[0].Name != "Rare POI" || res.Breakdown[1].Name != "Week Streak" {
		t.Fatalf("unexpected names: %+v", res.Breakdown)
	}
}

func TestStandardScoringPowerUpsStackAdditively(t *testing.T) {
	t.Parallel()

	if got := PowerUpMultiplier([]float64{2.0, 1.5}); got != 2.5 {
		t.Fatalf("expected aggregate 2.5, got %v", got)
	}
	if got := PowerUpMultiplier(nil); got != 1.0 {
		t.Fatalf("expected baseline 1.0, got %v", got)
	}

	res, err := StandardScoring{}.Calculate(100, Input{At: quietHour, PowerUpMultipliers: []float64{2.0, 1.5}})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.FinalPoints != 250 {
		t.Fatalf("expected 250, got %d", res.FinalPoints)
	}
	if len(res.Breakdown) != 1 || res.Breakdown[0].Type != BonusPowerUp || res.Breakdown[0].Multiplier != 2.5 {
		t.Fatalf("unexpected breakdown: %+v", res.Breakdown)
	}
}

func TestStreakMultiplierIsMonotonic(t *testing.T) {
	t.Parallel()

	prev := 0.0
	for days := 0; days <= 400; days++ {
		m, _ := StreakMultiplier(days)
		if m < prev {
			t.Fatalf("streak multiplier dropped at %d days: %v < %v", days, m, prev)
		}
		prev = m
	}
	if m, _ := StreakMultiplier(6); m != 1.0 {
		t.Fatalf("expected no bonus below 7 days, got %v", m)
	}
	if m, name := StreakMultiplier(364); m != 2.0 || name != "100 Day Streak" {
		t.Fatalf("expected 100 day tier at 364, got %v %q", m, name)
	}
	if m, _ := StreakMultiplier(365); m != 3.0 {
		t.Fatalf("expected year tier at 365, got %v", m)
	}
}

func TestTimeWindows(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hour   int
		window TimeWindow
		ok     bool
	}{
		{hour: 0, window: WindowNightOwl, ok: true},
		{hour: 2, window: WindowNightOwl, ok: true},
		{hour: 3, ok: false},
		{hour: 5, window: WindowEarlyBird, ok: true},
		{hour: 8, window: WindowEarlyBird, ok: true},
		{hour: 9, ok: false},
		{hour: 13, window: WindowLunchExplorer, ok: true},
		{hour: 15, ok: false},
		{hour: 19, window: WindowGoldenHour, ok: true},
		{hour: 22, window: WindowNightOwl, ok: true},
	}
	for _, tc := range cases {
		at := time.Date(2026, 3, 4, tc.hour, 30, 0, 0, time.UTC)
		window, ok := WindowAt(at)
		if ok != tc.ok || window != tc.window {
			t.Fatalf("hour %d: got %q,%v want %q,%v", tc.hour, window, ok, tc.window, tc.ok)
		}
	}

	res, err := StandardScoring{}.Calculate(100, Input{At: time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.FinalPoints != 130 || res.Breakdown[0].Name != "Golden Hour" {
		t.Fatalf("expected golden hour bonus, got %+v", res)
	}
}

func TestPhotoAndAccuracyBonuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       Input
		want     int64
		wantType string
	}{
		{name: "photo at threshold gets nothing", in: Input{PhotoQuality: float(0.9)}, want: 100},
		{name: "excellent photo", in: Input{PhotoQuality: float(0.95)}, want: 120, wantType: BonusPhoto},
		{name: "perfect accuracy", in: Input{DistanceMeters: float(3)}, want: 150, wantType: BonusAccuracy},
		{name: "great accuracy", in: Input{DistanceMeters: float(10)}, want: 130, wantType: BonusAccuracy},
		{name: "good accuracy", in: Input{DistanceMeters: float(49.9)}, want: 110, wantType: BonusAccuracy},
		{name: "too far", in: Input{DistanceMeters: float(50)}, want: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.in.At = quietHour
			res, err := StandardScoring{}.Calculate(100, tc.in)
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}
			if res.FinalPoints != tc.want {
				t.Fatalf("got %d want %d", res.FinalPoints, tc.want)
			}
			if tc.wantType == "" {
				if len(res.Breakdown) != 0 {
					t.Fatalf("expected empty breakdown, got %+v", res.Breakdown)
				}
				return
			}
			if len(res.Breakdown) != 1 || res.Breakdown[0].Type != tc.wantType {
				t.Fatalf("unexpected breakdown: %+v", res.Breakdown)
			}
		})
	}
}

func TestStandardScoringRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := (StandardScoring{}).Calculate(0, Input{}); !errors.Is(err, ErrInvalidBasePoints) {
		t.Fatalf("expected ErrInvalidBasePoints, got %v", err)
	}
	if _, err := (StandardScoring{}).Calculate(10, Input{Rarity: "mythic"}); !errors.Is(err, ErrUnknownRarity) {
		t.Fatalf("expected ErrUnknownRarity, got %v", err)
	}
}

func TestSubmissionScoring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base int64
		in   Input
		want int64
	}{
		{
			name: "neutral submission",
			base: 50,
			in:   Input{Difficulty: DifficultyEasy, VerificationScore: 70, PriorApprovedCompletions: 3},
			want: 50,
		},
		{
			name: "first completion of a medium quest",
			base: 100,
			in:   Input{Difficulty: DifficultyMedium, VerificationScore: 90, StreakDays: 4},
			want: 259,
		},
		{
			name: "quality and streak are capped",
			base: 100,
			in:   Input{Difficulty: DifficultyExpert, VerificationScore: 140, StreakDays: 40, PriorApprovedCompletions: 1},
			want: 520,
		},
		{
			name: "low verification score reduces points",
			base: 100,
			in:   Input{Difficulty: DifficultyHard, VerificationScore: 50, PriorApprovedCompletions: 2},
			want: 120,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := SubmissionScoring{}.Calculate(tc.base, tc.in)
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}
			if res.FinalPoints != tc.want {
				t.Fatalf("got %d want %d (%+v)", res.FinalPoints, tc.want, res)
			}
			if res.Strategy != StrategySubmission {
				t.Fatalf("unexpected strategy %q", res.Strategy)
			}
		})
	}

	if _, err := (SubmissionScoring{}).Calculate(10, Input{Difficulty: "insane"}); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", StrategyStandard, StrategySubmission} {
		if _, ok := Lookup(name); !ok {
			t.Fatalf("expected strategy %q", name)
		}
	}
	if _, ok := Lookup("legacy"); ok {
		t.Fatalf("did not expect unknown strategy")
	}
}
