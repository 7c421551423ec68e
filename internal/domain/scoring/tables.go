package scoring

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityMultipliers = map[Rarity]float64{
	RarityCommon:    1.0,
	RarityUncommon:  1.3,
	RarityRare:      1.8,
	RarityEpic:      2.5,
	RarityLegendary: 3.0,
}

var rarityNames = map[Rarity]string{
	RarityCommon:    "Common POI",
	RarityUncommon:  "Uncommon POI",
	RarityRare:      "Rare POI",
	RarityEpic:      "Epic POI",
	RarityLegendary: "Legendary POI",
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

var difficultyMultipliers = map[Difficulty]float64{
	DifficultyEasy:   1.0,
	DifficultyMedium: 1.2,
	DifficultyHard:   1.5,
	DifficultyExpert: 2.0,
}

type streakTier struct {
	days       int
	multiplier float64
	name       string
}

// Ascending by days.
var streakTiers = []streakTier{
	{days: 7, multiplier: 1.1, name: "Week Streak"},
	{days: 14, multiplier: 1.2, name: "2 Week Streak"},
	{days: 30, multiplier: 1.5, name: "Month Streak"},
	{days: 60, multiplier: 1.8, name: "2 Month Streak"},
	{days: 100, multiplier: 2.0, name: "100 Day Streak"},
	{days: 365, multiplier: 3.0, name: "Year Streak"},
}

type TimeWindow string

const (
	WindowEarlyBird     TimeWindow = "early_bird"
	WindowLunchExplorer TimeWindow = "lunch_explorer"
	WindowGoldenHour    TimeWindow = "golden_hour"
	WindowNightOwl      TimeWindow = "night_owl"
)

type timeBonus struct {
	window     TimeWindow
	hours      []int
	multiplier float64
	name       string
}

// Evaluated in order; first match wins.
var timeBonuses = []timeBonus{
	{window: WindowEarlyBird, hours: []int{5, 6, 7, 8}, multiplier: 1.2, name: "Early Bird"},
	{window: WindowLunchExplorer, hours: []int{12, 13, 14}, multiplier: 1.1, name: "Lunch Explorer"},
	{window: WindowGoldenHour, hours: []int{17, 18, 19}, multiplier: 1.3, name: "Golden Hour"},
	{window: WindowNightOwl, hours: []int{22, 23, 0, 1, 2}, multiplier: 1.2, name: "Night Owl"},
}

type accuracyTier struct {
	below      float64
	multiplier float64
	name       string
}

var accuracyTiers = []accuracyTier{
	{below: 10, multiplier: 1.5, name: "Perfect Accuracy"},
	{below: 25, multiplier: 1.3, name: "Great Accuracy"},
	{below: 50, multiplier: 1.1, name: "Good Accuracy"},
}

const (
	excellentPhotoThreshold  = 0.9
	excellentPhotoMultiplier = 1.2
	firstVisitMultiplier     = 1.3

	firstCompletionMultiplier = 1.5
	qualityCap                = 1.3
	submissionStreakStep      = 0.05
	submissionStreakCap       = 2.0
)

// Breakdown entry types.
const (
	BonusRarity          = "rarity"
	BonusStreak          = "streak"
	BonusTime            = "time"
	BonusPhoto           = "photo"
	BonusAccuracy        = "accuracy"
	BonusFirstVisit      = "first_visit"
	BonusPowerUp         = "powerup"
	BonusDifficulty      = "difficulty"
	BonusQuality         = "quality"
	BonusFirstCompletion = "first_completion"
)
