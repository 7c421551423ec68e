// Package scoring holds the pure point calculators. Nothing here performs I/O
// or reads the wall clock; the caller supplies the time of the event.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrInvalidBasePoints = errors.New("base points must be positive")
	ErrUnknownRarity     = errors.New("unknown rarity")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

const (
	StrategyStandard   = "standard"
	StrategySubmission = "submission"
)

type Bonus struct {
	Type       string
	Name       string
	Multiplier float64
}

type Result struct {
	Strategy        string
	BasePoints      int64
	FinalPoints     int64
	TotalMultiplier float64
	Breakdown       []Bonus
}

// Input is the union of signals both strategies read. Each strategy ignores
// the fields it does not use.
type Input struct {
	At         time.Time
	StreakDays int

	Rarity             Rarity
	PhotoQuality       *float64
	DistanceMeters     *float64
	FirstVisit         bool
	PowerUpMultipliers []float64

	Difficulty               Difficulty
	VerificationScore        float64
	PriorApprovedCompletions int
}

type Strategy interface {
	Name() string
	Calculate(basePoints int64, in Input) (Result, error)
}

// Lookup resolves a strategy by name.
func Lookup(name string) (Strategy, bool) {
	switch name {
	case "", StrategyStandard:
		return StandardScoring{}, true
	case StrategySubmission:
		return SubmissionScoring{}, true
	default:
		return nil, false
	}
}

// StreakMultiplier returns the highest tier whose threshold is <= days.
func StreakMultiplier(days int) (float64, string) {
	multiplier, name := 1.0, ""
	for _, tier := range streakTiers {
		if days < tier.days {
			break
		}
		multiplier, name = tier.multiplier, tier.name
	}
	return multiplier, name
}

// WindowAt returns the time-of-day window containing the UTC hour of at.
func WindowAt(at time.Time) (TimeWindow, bool) {
	bonus, ok := timeBonusAt(at)
	return bonus.window, ok
}

func timeBonusAt(at time.Time) (timeBonus, bool) {
	hour := at.UTC().Hour()
	for _, bonus := range timeBonuses {
		if slices.Contains(bonus.hours, hour) {
			return bonus, true
		}
	}
	return timeBonus{}, false
}

// PowerUpMultiplier stacks multipliers additively over a 1.0 baseline.
func PowerUpMultiplier(multipliers []float64) float64 {
	total := 1.0
	for _, m := range multipliers {
		total += m - 1
	}
	return total
}

func RarityMultiplier(r Rarity) (float64, error) {
	if r == "" {
		r = RarityCommon
	}
	m, ok := rarityMultipliers[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRarity, r)
	}
	return m, nil
}

func DifficultyMultiplier(d Difficulty) (float64, error) {
	if d == "" {
		d = DifficultyEasy
	}
	m, ok := difficultyMultipliers[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	return m, nil
}

// Floor truncates a point amount after absorbing binary float noise.
func Floor(v float64) int64 {
	return int64(math.Floor(v + 1e-9))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
