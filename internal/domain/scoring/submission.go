package scoring

import (
	"math"
	"strconv"
)

// SubmissionScoring is the quest-submission award curve: difficulty,
// verification quality, a linear streak term and a first-completion bonus,
// rounded to the nearest point. Power-ups are not part of this curve.
type SubmissionScoring struct{}

func (SubmissionScoring) Name() string { return StrategySubmission }

func (SubmissionScoring) Calculate(basePoints int64, in Input) (Result, error) {
	if basePoints <= 0 {
		return Result{}, ErrInvalidBasePoints
	}
	difficulty, err := DifficultyMultiplier(in.Difficulty)
	if err != nil {
		return Result{}, err
	}

	quality := math.Min(1.0+(in.VerificationScore-70)/100, qualityCap)
	streak := math.Min(1.0+float64(in.StreakDays)*submissionStreakStep, submissionStreakCap)

	total := 1.0
	var breakdown []Bonus
	apply := func(kind, name string, multiplier float64) {
		total *= multiplier
		if multiplier != 1.0 {
			breakdown = append(breakdown, Bonus{Type: kind, Name: name, Multiplier: multiplier})
		}
	}

	d := in.Difficulty
	if d == "" {
		d = DifficultyEasy
	}
	apply(BonusDifficulty, "Difficulty "+string(d), difficulty)
	apply(BonusQuality, "Verification Quality", quality)
	apply(BonusStreak, strconv.Itoa(in.StreakDays)+" Day Streak", streak)
	if in.PriorApprovedCompletions == 0 {
		apply(BonusFirstCompletion, "First Completion", firstCompletionMultiplier)
	}

	final := int64(math.Round(float64(basePoints) * total))
	if final < 0 {
		final = 0
	}

	return Result{
		Strategy:        StrategySubmission,
		BasePoints:      basePoints,
		FinalPoints:     final,
		TotalMultiplier: round2(total),
		Breakdown:       breakdown,
	}, nil
}
