package scoring

// StandardScoring stacks rarity, streak, time-of-day, photo quality, location
// accuracy, first-visit and power-up multipliers and floors the result.
type StandardScoring struct{}

func (StandardScoring) Name() string { return StrategyStandard }

func (StandardScoring) Calculate(basePoints int64, in Input) (Result, error) {
	if basePoints <= 0 {
		return Result{}, ErrInvalidBasePoints
	}
	rarity, err := RarityMultiplier(in.Rarity)
	if err != nil {
		return Result{}, err
	}

	total := 1.0
	var breakdown []Bonus
	apply := func(kind, name string, multiplier float64) {
		if multiplier <= 1.0 {
			return
		}
		total *= multiplier
		breakdown = append(breakdown, Bonus{Type: kind, Name: name, Multiplier: multiplier})
	}

	r := in.Rarity
	if r == "" {
		r = RarityCommon
	}
	apply(BonusRarity, rarityNames[r], rarity)

	streak, streakName := StreakMultiplier(in.StreakDays)
	apply(BonusStreak, streakName, streak)

	if bonus, ok := timeBonusAt(in.At); ok {
		apply(BonusTime, bonus.name, bonus.multiplier)
	}

	if in.PhotoQuality != nil && *in.PhotoQuality > excellentPhotoThreshold {
		apply(BonusPhoto, "Excellent Photo", excellentPhotoMultiplier)
	}

	if in.DistanceMeters != nil {
		for _, tier := range accuracyTiers {
			if *in.DistanceMeters < tier.below {
				apply(BonusAccuracy, tier.name, tier.multiplier)
				break
			}
		}
	}

	if in.FirstVisit {
		apply(BonusFirstVisit, "First Visit", firstVisitMultiplier)
	}

	apply(BonusPowerUp, "Active Power-ups", PowerUpMultiplier(in.PowerUpMultipliers))

	return Result{
		Strategy:        StrategyStandard,
		BasePoints:      basePoints,
		FinalPoints:     Floor(float64(basePoints) * total),
		TotalMultiplier: round2(total),
		Breakdown:       breakdown,
	}, nil
}
