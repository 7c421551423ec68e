package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	"github.com/riskibarqy/questrank/internal/domain/reward"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	basecache "github.com/riskibarqy/questrank/internal/platform/cache"
)

const (
	squadPrefix       = "squad:"
	squadRankedPrefix = "squad:ranked:"
	friendPrefix      = "friends:"
)

type SquadRepository struct {
	next  squad.Repository
	cache *basecache.Store
}

func NewSquadRepository(next squad.Repository, cache *basecache.Store) *SquadRepository {
	return &SquadRepository{next: next, cache: cache}
}

func (r *SquadRepository) Create(ctx context.Context, sq squad.Squad, leader squad.Member) error {
	if err := r.next.Create(ctx, sq, leader); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, squadRankedPrefix, "squad:count", squadMembershipKey(leader.UserID))
	return nil
}

func (r *SquadRepository) GetByID(ctx context.Context, squadID string) (squad.Squad, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, squadByIDKey(squadID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, squadID)
		if err != nil {
			return nil, err
		}
		return cachedSquadByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return squad.Squad{}, false, err
	}

	cached, _ := v.(cachedSquadByID)
	return cached.value, cached.exists, nil
}

type cachedSquadByID struct {
	value  squad.Squad
	exists bool
}

func (r *SquadRepository) AddMember(ctx context.Context, m squad.Member) error {
	if err := r.next.AddMember(ctx, m); err != nil {
		return err
	}
	r.cache.Delete(ctx, squadByIDKey(m.SquadID))
	r.cache.Delete(ctx, squadMembershipKey(m.UserID))
	r.cache.DeletePrefix(ctx, squadRankedPrefix)
	return nil
}

func (r *SquadRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]squad.Member, error) {
	v, err := r.cache.GetOrLoad(ctx, squadMembershipKey(userID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListMembershipsByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return append([]squad.Member(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]squad.Member)
	return append([]squad.Member(nil), items...), nil
}

func (r *SquadRepository) AddContribution(ctx context.Context, squadID, userID string, points int64) error {
	if err := r.next.AddContribution(ctx, squadID, userID, points); err != nil {
		return err
	}
	r.cache.Delete(ctx, squadByIDKey(squadID))
	r.cache.Delete(ctx, squadMembershipKey(userID))
	r.cache.DeletePrefix(ctx, squadRankedPrefix)
	return nil
}

func (r *SquadRepository) ListRanked(ctx context.Context, metric account.Metric, limit, offset int) ([]squad.Squad, error) {
	key := squadRankedPrefix + string(metric) + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListRanked(ctx, metric, limit, offset)
		if err != nil {
			return nil, err
		}
		return append([]squad.Squad(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]squad.Squad)
	return append([]squad.Squad(nil), items...), nil
}

func (r *SquadRepository) Count(ctx context.Context) (int, error) {
	v, err := r.cache.GetOrLoad(ctx, "squad:count", func(ctx context.Context) (any, error) {
		return r.next.Count(ctx)
	})
	if err != nil {
		return 0, err
	}

	count, _ := v.(int)
	return count, nil
}

func (r *SquadRepository) CountDominating(ctx context.Context, metric account.Metric, ref squad.Squad) (int, error) {
	return r.next.CountDominating(ctx, metric, ref)
}

func (r *SquadRepository) ResetWeekly(ctx context.Context) (int64, error) {
	reset, err := r.next.ResetWeekly(ctx)
	if err != nil {
		return 0, err
	}
	r.cache.DeletePrefix(ctx, squadPrefix)
	return reset, nil
}

func squadByIDKey(squadID string) string {
	return "squad:id:" + squadID
}

func squadMembershipKey(userID string) string {
	return "squad:member:" + userID
}

type FriendshipRepository struct {
	next  social.Repository
	cache *basecache.Store
}

func NewFriendshipRepository(next social.Repository, cache *basecache.Store) *FriendshipRepository {
	return &FriendshipRepository{next: next, cache: cache}
}

func (r *FriendshipRepository) Upsert(ctx context.Context, f social.Friendship) error {
	if err := r.next.Upsert(ctx, f); err != nil {
		return err
	}
	r.cache.Delete(ctx, friendsKey(f.RequesterID))
	r.cache.Delete(ctx, friendsKey(f.AddresseeID))
	return nil
}

func (r *FriendshipRepository) ListAcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	v, err := r.cache.GetOrLoad(ctx, friendsKey(userID), func(ctx context.Context) (any, error) {
		ids, err := r.next.ListAcceptedFriendIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		return append([]string(nil), ids...), nil
	})
	if err != nil {
		return nil, err
	}

	ids, _ := v.([]string)
	return append([]string{}, ids...), nil
}

func (r *FriendshipRepository) CountAccepted(ctx context.Context, userID string) (int, error) {
	ids, err := r.ListAcceptedFriendIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func friendsKey(userID string) string {
	return friendPrefix + userID
}

type AchievementRepository struct {
	next  achievement.Repository
	cache *basecache.Store
}

func NewAchievementRepository(next achievement.Repository, cache *basecache.Store) *AchievementRepository {
	return &AchievementRepository{next: next, cache: cache}
}

func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID string) ([]achievement.UserAchievement, error) {
	v, err := r.cache.GetOrLoad(ctx, unlockedKey(userID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListUnlocked(ctx, userID)
		if err != nil {
			return nil, err
		}
		return append([]achievement.UserAchievement(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]achievement.UserAchievement)
	return append([]achievement.UserAchievement(nil), items...), nil
}

func (r *AchievementRepository) Unlock(ctx context.Context, ua achievement.UserAchievement) (bool, error) {
	unlocked, err := r.next.Unlock(ctx, ua)
	if err != nil {
		return false, err
	}
	if unlocked {
		r.cache.Delete(ctx, unlockedKey(ua.UserID))
	}
	return unlocked, nil
}

func unlockedKey(userID string) string {
	return "achievement:unlocked:" + userID
}

type RewardRepository struct {
	next  reward.Repository
	cache *basecache.Store
}

func NewRewardRepository(next reward.Repository, cache *basecache.Store) *RewardRepository {
	return &RewardRepository{next: next, cache: cache}
}

func (r *RewardRepository) ClaimRun(ctx context.Context, week, startedAt time.Time) (bool, error) {
	return r.next.ClaimRun(ctx, week, startedAt)
}

func (r *RewardRepository) CompleteRun(ctx context.Context, run reward.Run) error {
	return r.next.CompleteRun(ctx, run)
}

func (r *RewardRepository) GetRun(ctx context.Context, week time.Time) (reward.Run, bool, error) {
	return r.next.GetRun(ctx, week)
}

func (r *RewardRepository) RecordBadge(ctx context.Context, award reward.BadgeAward) error {
	if err := r.next.RecordBadge(ctx, award); err != nil {
		return err
	}
	r.cache.Delete(ctx, badgesKey(award.UserID))
	return nil
}

func (r *RewardRepository) ListBadgesByUser(ctx context.Context, userID string) ([]reward.BadgeAward, error) {
	v, err := r.cache.GetOrLoad(ctx, badgesKey(userID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListBadgesByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return append([]reward.BadgeAward(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]reward.BadgeAward)
	return append([]reward.BadgeAward(nil), items...), nil
}

func badgesKey(userID string) string {
	return "reward:badges:" + userID
}
