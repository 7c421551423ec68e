package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/reward"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

const (
	distributionOutcomeCompleted = "completed"
	distributionOutcomePartial   = "partial"
	distributionOutcomeFailed    = "failed"
	distributionOutcomeSkipped   = "skipped"

	defaultRewardWorkers = 8
)

type RewardServiceConfig struct {
	WorkerCount int
}

type RewardLine struct {
	UserID       string
	Username     string
	Rank         int
	WeeklyPoints int64
	Bonus        int64
	Badge        string
}

type DistributionReport struct {
	Week         time.Time
	RewardedWeek time.Time
	Skipped      bool
	SkipReason   string
	Status       reward.RunStatus
	Rewarded     []RewardLine
	Failed       int
	ResetCount   int64
	SquadsReset  int64
	BonusPoints  int64
}

type RewardService struct {
	rewards  reward.Repository
	accounts account.Repository
	squads   squad.Repository
	index    leaderboard.RankIndex
	ranker   ranker
	flight   *resilience.SingleFlight
	cfg      RewardServiceConfig
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time
}

func NewRewardService(
	rewards reward.Repository,
	accounts account.Repository,
	squads squad.Repository,
	index leaderboard.RankIndex,
	cfg RewardServiceConfig,
	recorder Recorder,
	logger *logging.Logger,
) *RewardService {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultRewardWorkers
	}
	return &RewardService{
		rewards:  rewards,
		accounts: accounts,
		squads:   squads,
		index:    index,
		ranker:   newRanker(accounts, index, recorder, logger),
		flight:   &resilience.SingleFlight{},
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// RunWeeklyDistribution pays the weekly top ranks and resets the weekly
// competition. A run is claimed per calendar week in storage, so repeated or
// concurrent triggers in the same week are skipped rather than paid twice.
func (s *RewardService) RunWeeklyDistribution(ctx context.Context) (DistributionReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RewardService.RunWeeklyDistribution")
	defer span.End()

	v, err := s.flight.TryDo("weekly-distribution", func() (any, error) {
		return s.distribute(ctx)
	})
	if errors.Is(err, resilience.ErrInFlight) {
		now := s.now().UTC()
		s.recorder.DistributionRun(distributionOutcomeSkipped, 0)
		return DistributionReport{
			Week:         reward.RunWeek(now),
			RewardedWeek: reward.RewardedWeek(now),
			Skipped:      true,
			SkipReason:   "distribution already running",
		}, nil
	}
	if err != nil {
		return DistributionReport{}, err
	}
	return v.(DistributionReport), nil
}

func (s *RewardService) distribute(ctx context.Context) (DistributionReport, error) {
	now := s.now().UTC()
	report := DistributionReport{
		Week:         reward.RunWeek(now),
		RewardedWeek: reward.RewardedWeek(now),
		Rewarded:     []RewardLine{},
	}

	claimed, err := s.rewards.ClaimRun(ctx, report.Week, now)
	if err != nil {
		return DistributionReport{}, fmt.Errorf("claim reward run: %w", err)
	}
	if !claimed {
		s.recorder.DistributionRun(distributionOutcomeSkipped, 0)
		s.logger.InfoContext(ctx, "weekly distribution already claimed", "week", report.Week.Format(time.DateOnly))
		report.Skipped = true
		report.SkipReason = "week already distributed"
		return report, nil
	}

	// Accounts already rolled into the run week compete with their snapshot.
	top, err := s.accounts.ListClosingWeek(ctx, report.Week, reward.TopN)
	if err != nil {
		s.finishRun(ctx, report, reward.RunStatusFailed, now, err)
		return DistributionReport{}, fmt.Errorf("list weekly top accounts: %w", err)
	}

	lines, failed, err := s.payTop(ctx, top, report.RewardedWeek, now)
	if err != nil {
		s.finishRun(ctx, report, reward.RunStatusFailed, now, err)
		return DistributionReport{}, err
	}
	report.Rewarded = lines
	report.Failed = failed
	for _, line := range lines {
		report.BonusPoints += line.Bonus
	}

	// Only paid accounts were rolled over by ApplyWeeklyReward; a failed payout
	// still needs the reset.
	exclude := make([]string, 0, len(lines))
	for _, line := range lines {
		exclude = append(exclude, line.UserID)
	}
	if report.ResetCount, err = s.accounts.ResetWeekly(ctx, exclude, now); err != nil {
		s.finishRun(ctx, report, reward.RunStatusFailed, now, err)
		return DistributionReport{}, fmt.Errorf("reset weekly points: %w", err)
	}
	if s.squads != nil {
		if report.SquadsReset, err = s.squads.ResetWeekly(ctx); err != nil {
			s.logger.WarnContext(ctx, "reset squad weekly points failed", "error", err)
		}
	}
	if s.index != nil {
		if err := s.index.Reset(ctx, leaderboard.BoardWeekly); err != nil {
			s.logger.WarnContext(ctx, "reset weekly rank index failed", "error", err)
		} else {
			s.reindexWeekly(ctx)
		}
	}

	report.Status = reward.RunStatusCompleted
	if failed > 0 {
		report.Status = reward.RunStatusPartial
	}
	s.finishRun(ctx, report, report.Status, now, nil)

	s.logger.InfoContext(ctx, "weekly distribution finished",
		"week", report.Week.Format(time.DateOnly),
		"rewarded", len(report.Rewarded),
		"failed", report.Failed,
		"reset", report.ResetCount,
		"bonus_points", report.BonusPoints,
	)
	return report, nil
}

// payTop credits each top account in its own transaction on the worker pool.
// A failure for one user is logged and counted without stopping the others.
func (s *RewardService) payTop(ctx context.Context, top []account.ClosingStanding, rewardedWeek, now time.Time) ([]RewardLine, int, error) {
	if len(top) == 0 {
		return []RewardLine{}, 0, nil
	}

	workerPool, err := ants.NewPool(min(s.cfg.WorkerCount, len(top)))
	if err != nil {
		return nil, 0, fmt.Errorf("create reward worker pool: %w", err)
	}
	defer workerPool.Release()

	results := make(chan RewardLine, len(top))
	var failed atomic.Int32
	var workers sync.WaitGroup
	for i, standing := range top {
		rank := i + 1
		tier, ok := reward.TierFor(rank)
		if !ok {
			continue
		}
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()
			line, err := s.payOne(ctx, standing, rank, tier, rewardedWeek, now)
			if err != nil {
				failed.Add(1)
				s.logger.ErrorContext(ctx, "weekly reward failed", "user_id", standing.Account.UserID, "rank", rank, "error", err)
				return
			}
			results <- line
		}); err != nil {
			workers.Done()
			return nil, 0, fmt.Errorf("submit reward task: %w", err)
		}
	}

	workers.Wait()
	close(results)

	lines := make([]RewardLine, 0, len(top))
	for line := range results {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Rank < lines[j].Rank })
	return lines, int(failed.Load()), nil
}

func (s *RewardService) payOne(ctx context.Context, standing account.ClosingStanding, rank int, tier reward.Tier, rewardedWeek, now time.Time) (RewardLine, error) {
	acc := standing.Account
	updated, err := s.accounts.ApplyWeeklyReward(ctx, account.WeeklyReward{
		UserID: acc.UserID,
		Rank:   rank,
		Bonus:  tier.Bonus,
	}, now)
	if err != nil {
		return RewardLine{}, fmt.Errorf("apply weekly reward: %w", err)
	}

	if err := s.rewards.RecordBadge(ctx, reward.BadgeAward{
		UserID:    acc.UserID,
		Badge:     tier.Badge,
		WeekStart: rewardedWeek,
		Rank:      rank,
		Bonus:     tier.Bonus,
		Points:    standing.Points,
		AwardedAt: now,
	}); err != nil {
		s.logger.WarnContext(ctx, "record weekly badge failed", "user_id", acc.UserID, "badge", tier.Badge, "error", err)
	}

	s.ranker.syncIndex(ctx, updated, updated.City)
	return RewardLine{
		UserID:       acc.UserID,
		Username:     acc.Username,
		Rank:         rank,
		WeeklyPoints: standing.Points,
		Bonus:        tier.Bonus,
		Badge:        tier.Badge,
	}, nil
}

// reindexWeekly puts accounts that already earned points in the new week back
// on the weekly board after it was cleared.
func (s *RewardService) reindexWeekly(ctx context.Context) {
	const batch = 500
	for offset := 0; ; offset += batch {
		items, err := s.accounts.ListRanked(ctx, account.Filter{Metric: account.MetricWeekly, ActiveOnly: true}, batch, offset)
		if err != nil {
			s.logger.WarnContext(ctx, "reindex weekly board failed", "error", err)
			return
		}
		for _, acc := range items {
			s.ranker.upsertBoard(ctx, leaderboard.BoardWeekly, leaderboard.StandingOf(acc, account.MetricWeekly))
		}
		if len(items) < batch {
			return
		}
	}
}

func (s *RewardService) finishRun(ctx context.Context, report DistributionReport, status reward.RunStatus, startedAt time.Time, cause error) {
	completedAt := s.now().UTC()
	run := reward.Run{
		Week:        report.Week,
		Status:      status,
		Rewarded:    len(report.Rewarded),
		Failed:      report.Failed,
		Reset:       report.ResetCount,
		BonusPoints: report.BonusPoints,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
	}
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	if err := s.rewards.CompleteRun(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "store reward run failed", "week", report.Week.Format(time.DateOnly), "error", err)
	}

	outcome := distributionOutcomeCompleted
	switch status {
	case reward.RunStatusPartial:
		outcome = distributionOutcomePartial
	case reward.RunStatusFailed:
		outcome = distributionOutcomeFailed
	}
	s.recorder.DistributionRun(outcome, report.BonusPoints)
}

// Badges lists the weekly badges a user earned, newest week first.
func (s *RewardService) Badges(ctx context.Context, userID string) ([]reward.BadgeAward, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RewardService.Badges")
	defer span.End()

	if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
		return nil, err
	}
	items, err := s.rewards.ListBadgesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return items, nil
}
