package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
)

type AchievementRepository struct {
	s *Store
}

func (r *AchievementRepository) ListUnlocked(_ context.Context, userID string) ([]achievement.UserAchievement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]achievement.UserAchievement, 0, len(r.s.unlocked[userID]))
	for _, ua := range r.s.unlocked[userID] {
		out = append(out, ua)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].AchievementKey < out[j].AchievementKey
	})
	return out, nil
}

func (r *AchievementRepository) Unlock(_ context.Context, ua achievement.UserAchievement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[ua.UserID]
	if !ok {
		return false, fmt.Errorf("%w: user=%s", account.ErrNotFound, ua.UserID)
	}
	byKey := r.s.unlocked[ua.UserID]
	if byKey == nil {
		byKey = make(map[string]achievement.UserAchievement)
		r.s.unlocked[ua.UserID] = byKey
	}
	if _, exists := byKey[ua.AchievementKey]; exists {
		return false, nil
	}
	byKey[ua.AchievementKey] = ua

	acc.TotalPoints += ua.RewardPoints
	acc.UpdatedAt = ua.UnlockedAt
	r.s.accounts[ua.UserID] = acc
	return true, nil
}
