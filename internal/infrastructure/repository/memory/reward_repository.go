package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/reward"
)

type RewardRepository struct {
	s *Store
}

func (r *RewardRepository) ClaimRun(_ context.Context, week, startedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := weekKey(week)
	if _, exists := r.s.runs[key]; exists {
		return false, nil
	}
	r.s.runs[key] = reward.Run{Week: week.UTC(), Status: reward.RunStatusRunning, StartedAt: startedAt.UTC()}
	return true, nil
}

func (r *RewardRepository) CompleteRun(_ context.Context, run reward.Run) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := weekKey(run.Week)
	existing, ok := r.s.runs[key]
	if !ok {
		return fmt.Errorf("reward run for week %s not claimed", key)
	}
	run.StartedAt = existing.StartedAt
	r.s.runs[key] = run
	return nil
}

func (r *RewardRepository) GetRun(_ context.Context, week time.Time) (reward.Run, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	run, ok := r.s.runs[weekKey(week)]
	return run, ok, nil
}

func (r *RewardRepository) RecordBadge(_ context.Context, award reward.BadgeAward) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.badges {
		if existing.UserID == award.UserID && existing.Badge == award.Badge && existing.WeekStart.Equal(award.WeekStart) {
			return nil
		}
	}
	r.s.badges = append(r.s.badges, award)
	return nil
}

func (r *RewardRepository) ListBadgesByUser(_ context.Context, userID string) ([]reward.BadgeAward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]reward.BadgeAward, 0)
	for _, award := range r.s.badges {
		if award.UserID == userID {
			out = append(out, award)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

func weekKey(week time.Time) string {
	return week.UTC().Format(time.DateOnly)
}
