package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/period"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

const (
	ActivityGeneric         = "activity"
	ActivityQuestCompletion = "quest_completion"

	streakUpdateAttempts = 3
)

// ScoringContext switches the award to StandardScoring.
type ScoringContext struct {
	Rarity         scoring.Rarity
	PhotoQuality   *float64
	DistanceMeters *float64
	FirstVisit     bool
}

type AwardPointsInput struct {
	UserID       string
	BasePoints   int64
	ActivityType string
	Scoring      *ScoringContext
}

type AwardPointsResult struct {
	UserID          string
	ActivityType    string
	BasePoints      int64
	PointsEarned    int64
	Multiplier      float64
	Breakdown       []scoring.Bonus
	NewTotal        int64
	WeeklyPoints    int64
	OldRank         int
	NewRank         int
	RankChange      int
	WeeklyRank      int
	CurrentStreak   int
	WeekRolledOver  bool
	NewAchievements []achievement.Achievement
}

type PreviewScoreInput struct {
	UserID     string
	BasePoints int64
	Scoring    ScoringContext
}

type achievementChecker interface {
	CheckAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error)
}

type PointsService struct {
	accounts     account.Repository
	powerUps     powerup.Repository
	squads       squad.Repository
	achievements achievementChecker
	ranker       ranker
	recorder     Recorder
	logger       *logging.Logger
	now          func() time.Time
}

func NewPointsService(
	accounts account.Repository,
	powerUps powerup.Repository,
	squads squad.Repository,
	achievements achievementChecker,
	index leaderboard.RankIndex,
	recorder Recorder,
	logger *logging.Logger,
) *PointsService {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PointsService{
		accounts:     accounts,
		powerUps:     powerUps,
		squads:       squads,
		achievements: achievements,
		ranker:       newRanker(accounts, index, recorder, logger),
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// AwardPoints credits an activity to a user. The weekly rollover runs first so
// the credit lands in the current week, counters are incremented atomically,
// and ranks are computed around the mutation.
//
// A returned error means nothing was credited. Steps after the credit only
// log their failures.
func (s *PointsService) AwardPoints(ctx context.Context, input AwardPointsInput) (AwardPointsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsService.AwardPoints", userAttr(input.UserID))
	defer span.End()

	input.ActivityType = strings.TrimSpace(input.ActivityType)
	if input.ActivityType == "" {
		input.ActivityType = ActivityGeneric
	}
	if input.BasePoints <= 0 {
		return AwardPointsResult{}, fmt.Errorf("%w: base points must be positive", ErrInvalidInput)
	}

	now := s.now().UTC()
	acc, err := loadAccount(ctx, s.accounts, input.UserID)
	if err != nil {
		return AwardPointsResult{}, err
	}

	rolledOver, err := s.accounts.RolloverWeek(ctx, acc.UserID, period.WeekStart(now))
	if err != nil {
		return AwardPointsResult{}, fmt.Errorf("rollover weekly points: %w", err)
	}
	if rolledOver {
		if acc, err = loadAccount(ctx, s.accounts, acc.UserID); err != nil {
			return AwardPointsResult{}, err
		}
		s.ranker.syncIndex(ctx, acc, acc.City)
	}

	calc, err := s.calculate(ctx, acc, input.BasePoints, input.Scoring, now)
	if err != nil {
		return AwardPointsResult{}, err
	}

	oldRank, err := s.ranker.rank(ctx, leaderboard.ScopeGlobal, acc)
	if err != nil {
		return AwardPointsResult{}, err
	}

	// Nothing after AddPoints may fail the call.
	if input.ActivityType == ActivityQuestCompletion {
		if _, err := s.advanceStreak(ctx, acc.UserID, now); err != nil {
			return AwardPointsResult{}, err
		}
	}

	updated, err := s.accounts.AddPoints(ctx, acc.UserID, calc.FinalPoints, calc.FinalPoints)
	if err != nil {
		return AwardPointsResult{}, fmt.Errorf("add points: %w", err)
	}

	s.ranker.syncIndex(ctx, updated, updated.City)

	newRank, weeklyRank := s.postCreditRanks(ctx, updated)
	rankChange := 0
	if newRank > 0 {
		rankChange = oldRank - newRank
	}

	s.creditSquads(ctx, updated.UserID, calc.FinalPoints)
	s.recorder.PointsAwarded(input.ActivityType, calc.FinalPoints)

	result := AwardPointsResult{
		UserID:          updated.UserID,
		ActivityType:    input.ActivityType,
		BasePoints:      input.BasePoints,
		PointsEarned:    calc.FinalPoints,
		Multiplier:      calc.TotalMultiplier,
		Breakdown:       calc.Breakdown,
		NewTotal:        updated.TotalPoints,
		WeeklyPoints:    updated.WeeklyPoints,
		OldRank:         oldRank,
		NewRank:         newRank,
		RankChange:      rankChange,
		WeeklyRank:      weeklyRank,
		CurrentStreak:   updated.CurrentStreak,
		WeekRolledOver:  rolledOver,
		NewAchievements: []achievement.Achievement{},
	}

	if s.achievements != nil {
		unlocked, err := s.achievements.CheckAchievements(ctx, updated.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "check achievements after award failed", "user_id", updated.UserID, "error", err)
		} else {
			result.NewAchievements = unlocked
		}
	}

	s.logger.InfoContext(ctx, "points awarded",
		"user_id", result.UserID,
		"activity_type", result.ActivityType,
		"points", result.PointsEarned,
		"new_rank", result.NewRank,
	)
	return result, nil
}

// PreviewScore runs StandardScoring for a user without persisting anything.
func (s *PointsService) PreviewScore(ctx context.Context, input PreviewScoreInput) (scoring.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsService.PreviewScore", userAttr(input.UserID))
	defer span.End()

	if input.BasePoints <= 0 {
		return scoring.Result{}, fmt.Errorf("%w: base points must be positive", ErrInvalidInput)
	}
	acc, err := loadAccount(ctx, s.accounts, input.UserID)
	if err != nil {
		return scoring.Result{}, err
	}
	scoringCtx := input.Scoring
	return s.calculate(ctx, acc, input.BasePoints, &scoringCtx, s.now().UTC())
}

func (s *PointsService) calculate(ctx context.Context, acc account.Account, base int64, scoringCtx *ScoringContext, now time.Time) (scoring.Result, error) {
	active, err := s.powerUps.ListActive(ctx, acc.UserID, now)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("list active power-ups: %w", err)
	}
	multipliers := powerup.Multipliers(active, now)

	if scoringCtx == nil {
		return powerUpOnly(base, multipliers), nil
	}

	result, err := scoring.StandardScoring{}.Calculate(base, scoring.Input{
		At:                 now,
		StreakDays:         acc.CurrentStreak,
		Rarity:             scoringCtx.Rarity,
		PhotoQuality:       scoringCtx.PhotoQuality,
		DistanceMeters:     scoringCtx.DistanceMeters,
		FirstVisit:         scoringCtx.FirstVisit,
		PowerUpMultipliers: multipliers,
	})
	if err != nil {
		return scoring.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return result, nil
}

// powerUpOnly is the award path without a scoring context: the base points
// scaled by the active power-up aggregate.
func powerUpOnly(base int64, multipliers []float64) scoring.Result {
	total := scoring.PowerUpMultiplier(multipliers)
	result := scoring.Result{
		Strategy:        scoring.StrategyStandard,
		BasePoints:      base,
		FinalPoints:     scoring.Floor(float64(base) * total),
		TotalMultiplier: total,
		Breakdown:       []scoring.Bonus{},
	}
	if total > 1 {
		result.Breakdown = append(result.Breakdown, scoring.Bonus{
			Type:       scoring.BonusPowerUp,
			Name:       "Power-ups active",
			Multiplier: total,
		})
	}
	return result
}

// postCreditRanks reads the global and weekly ranks after a credit and stores
// the weekly one. Failures are logged and reported as rank 0.
func (s *PointsService) postCreditRanks(ctx context.Context, updated account.Account) (int, int) {
	newRank, err := s.ranker.rank(ctx, leaderboard.ScopeGlobal, updated)
	if err != nil {
		s.logger.WarnContext(ctx, "rank after award failed", "user_id", updated.UserID, "error", err)
		newRank = 0
	}
	weeklyRank, err := s.ranker.rank(ctx, leaderboard.ScopeWeekly, updated)
	if err != nil {
		s.logger.WarnContext(ctx, "weekly rank after award failed", "user_id", updated.UserID, "error", err)
		return newRank, 0
	}
	if err := s.accounts.SetWeeklyRank(ctx, updated.UserID, &weeklyRank); err != nil {
		s.logger.WarnContext(ctx, "store weekly rank failed", "user_id", updated.UserID, "error", err)
	}
	return newRank, weeklyRank
}

func (s *PointsService) advanceStreak(ctx context.Context, userID string, now time.Time) (account.Account, error) {
	for attempt := 0; attempt < streakUpdateAttempts; attempt++ {
		acc, err := loadAccount(ctx, s.accounts, userID)
		if err != nil {
			return account.Account{}, err
		}
		next, changed := acc.Streak().Advance(now)
		if !changed {
			return acc, nil
		}

		err = s.accounts.UpdateStreak(ctx, userID, acc.LastSubmissionDate, next)
		if err == nil {
			acc.CurrentStreak = next.Current
			acc.LongestStreak = next.Longest
			acc.LastSubmissionDate = next.LastSubmissionDate
			return acc, nil
		}
		if !errors.Is(err, account.ErrStreakConflict) {
			return account.Account{}, fmt.Errorf("update streak: %w", err)
		}
	}
	return account.Account{}, fmt.Errorf("%w: streak for user=%s", ErrConcurrencyConflict, userID)
}

func (s *PointsService) creditSquads(ctx context.Context, userID string, points int64) {
	if s.squads == nil || points <= 0 {
		return
	}
	memberships, err := s.squads.ListMembershipsByUser(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "list squad memberships failed", "user_id", userID, "error", err)
		return
	}
	for _, m := range memberships {
		if err := s.squads.AddContribution(ctx, m.SquadID, userID, points); err != nil {
			s.logger.WarnContext(ctx, "credit squad contribution failed", "squad_id", m.SquadID, "user_id", userID, "error", err)
		}
	}
}
