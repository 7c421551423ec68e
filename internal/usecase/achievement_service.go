package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type UnlockedAchievement struct {
	Achievement achievement.Achievement
	UnlockedAt  time.Time
}

type AchievementService struct {
	catalog      achievement.Catalog
	achievements achievement.Repository
	accounts     account.Repository
	social       social.Repository
	squads       squad.Repository
	powerUps     powerup.Repository
	submissions  submission.Repository
	ranker       ranker
	recorder     Recorder
	logger       *logging.Logger
	now          func() time.Time
}

func NewAchievementService(
	catalog achievement.Catalog,
	achievements achievement.Repository,
	accounts account.Repository,
	socialRepo social.Repository,
	squads squad.Repository,
	powerUps powerup.Repository,
	submissions submission.Repository,
	index leaderboard.RankIndex,
	recorder Recorder,
	logger *logging.Logger,
) *AchievementService {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AchievementService{
		catalog:      catalog,
		achievements: achievements,
		accounts:     accounts,
		social:       socialRepo,
		squads:       squads,
		powerUps:     powerUps,
		submissions:  submissions,
		ranker:       newRanker(accounts, index, recorder, logger),
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AchievementService) Catalog() []achievement.Achievement {
	return s.catalog.All()
}

func (s *AchievementService) Get(key string) (achievement.Achievement, error) {
	item, ok := s.catalog.Lookup(strings.TrimSpace(key))
	if !ok {
		return achievement.Achievement{}, fmt.Errorf("%w: achievement=%s", ErrNotFound, key)
	}
	return item, nil
}

// ListUnlocked returns the user's unlocked achievements in unlock order.
// Stored keys no longer present in the catalog are skipped.
func (s *AchievementService) ListUnlocked(ctx context.Context, userID string) ([]UnlockedAchievement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AchievementService.ListUnlocked")
	defer span.End()

	if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
		return nil, err
	}
	rows, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}

	out := make([]UnlockedAchievement, 0, len(rows))
	for _, row := range rows {
		item, ok := s.catalog.Lookup(row.AchievementKey)
		if !ok {
			continue
		}
		out = append(out, UnlockedAchievement{Achievement: item, UnlockedAt: row.UnlockedAt})
	}
	return out, nil
}

// CheckAchievements evaluates every locked achievement against the user's
// current state and unlocks those satisfied. The unlocked count used by the
// collector achievements is the count from before this pass.
func (s *AchievementService) CheckAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AchievementService.CheckAchievements")
	defer span.End()

	acc, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.achievements.ListUnlocked(ctx, acc.UserID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	unlocked := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		unlocked[row.AchievementKey] = struct{}{}
	}

	locked := make([]achievement.Achievement, 0, s.catalog.Len())
	for _, item := range s.catalog.All() {
		if _, ok := unlocked[item.Key]; !ok {
			locked = append(locked, item)
		}
	}
	if len(locked) == 0 {
		return []achievement.Achievement{}, nil
	}

	stats, err := s.collectStats(ctx, acc, achievement.NeedsOf(locked))
	if err != nil {
		return nil, err
	}
	stats.UnlockedCount = len(rows)

	now := s.now().UTC()
	out := make([]achievement.Achievement, 0)
	var credited int64
	for _, item := range locked {
		if !item.Satisfied(stats) {
			continue
		}
		created, err := s.achievements.Unlock(ctx, achievement.UserAchievement{
			UserID:         acc.UserID,
			AchievementKey: item.Key,
			RewardPoints:   item.RewardPoints,
			UnlockedAt:     now,
		})
		if err != nil {
			return out, fmt.Errorf("unlock achievement %s: %w", item.Key, err)
		}
		if !created {
			continue
		}
		credited += item.RewardPoints
		out = append(out, item)
		s.recorder.AchievementUnlocked(item.Key)
		s.logger.InfoContext(ctx, "achievement unlocked", "user_id", acc.UserID, "achievement", item.Key, "reward_points", item.RewardPoints)
	}

	if credited > 0 {
		if latest, ok, err := s.accounts.GetByID(ctx, acc.UserID); err == nil && ok {
			s.ranker.syncIndex(ctx, latest, latest.City)
		}
	}
	return out, nil
}

// collectStats loads the counters the locked achievements read, in parallel.
func (s *AchievementService) collectStats(ctx context.Context, acc account.Account, needs achievement.Needs) (achievement.Stats, error) {
	stats := achievement.Stats{
		TotalPoints:   acc.TotalPoints,
		CurrentStreak: acc.CurrentStreak,
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	if needs.Any(achievement.RuleGlobalRank) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.GlobalRank)(s.ranker.rank(ctx, leaderboard.ScopeGlobal, acc))
		})
	}
	if needs.Any(achievement.RuleWeeklyRank) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.WeeklyRank)(s.ranker.rank(ctx, leaderboard.ScopeWeekly, acc))
		})
	}
	if needs.Any(achievement.RuleCityRank) && strings.TrimSpace(acc.City) != "" {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.CityRank)(s.ranker.rank(ctx, leaderboard.ScopeCity, acc))
		})
	}
	if needs.Any(achievement.RuleFriends) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.Friends)(s.social.CountAccepted(ctx, acc.UserID))
		})
	}
	if needs.Any(achievement.RuleSquadMember, achievement.RuleSquadLeader, achievement.RuleSquadRank) {
		p.Go(func(ctx context.Context) error {
			return s.collectSquadStats(ctx, acc.UserID, &stats)
		})
	}
	if needs.Any(achievement.RuleApprovedSubmissions) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.ApprovedSubmissions)(s.submissions.CountApprovedByUser(ctx, acc.UserID))
		})
	}
	if needs.Any(achievement.RulePerfectPhotos) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.PerfectPhotos)(s.submissions.CountPerfectPhotos(ctx, acc.UserID, submission.PerfectPhotoScore))
		})
	}
	if needs.Any(achievement.RulePowerUpsActivated) {
		p.Go(func(ctx context.Context) error {
			return assign(&stats.PowerUpsActivated)(s.powerUps.CountActivated(ctx, acc.UserID))
		})
	}
	if needs.Any(achievement.RuleTimeWindow) {
		p.Go(func(ctx context.Context) error {
			windows, err := s.submissions.CountApprovedByWindow(ctx, acc.UserID)
			if err != nil {
				return err
			}
			stats.WindowSubmissions = windows
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return achievement.Stats{}, fmt.Errorf("collect achievement stats: %w", err)
	}
	return stats, nil
}

func (s *AchievementService) collectSquadStats(ctx context.Context, userID string, stats *achievement.Stats) error {
	memberships, err := s.squads.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return err
	}
	stats.SquadMemberships = len(memberships)
	for _, m := range memberships {
		if m.Role == squad.RoleLeader {
			stats.LedSquads++
		}
		sq, ok, err := s.squads.GetByID(ctx, m.SquadID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		dominating, err := s.squads.CountDominating(ctx, account.MetricTotal, sq)
		if err != nil {
			return err
		}
		if rank := dominating + 1; stats.BestSquadRank == 0 || rank < stats.BestSquadRank {
			stats.BestSquadRank = rank
		}
	}
	return nil
}

// assign adapts a (value, error) call into a pool task body.
func assign(dst *int) func(int, error) error {
	return func(v int, err error) error {
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
