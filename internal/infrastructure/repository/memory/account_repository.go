package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/period"
)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) UpsertProfile(_ context.Context, profile account.Profile, at time.Time) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[profile.UserID]
	if !ok {
		acc = account.Account{UserID: profile.UserID, CreatedAt: at.UTC()}
	}
	acc.Username = profile.Username
	acc.City = profile.City
	acc.UpdatedAt = at.UTC()
	r.s.accounts[acc.UserID] = acc

	return cloneAccount(acc), nil
}

func (r *AccountRepository) GetByID(_ context.Context, userID string) (account.Account, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return account.Account{}, false, nil
	}
	return cloneAccount(acc), true, nil
}

func (r *AccountRepository) RolloverWeek(_ context.Context, userID string, weekStart time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return false, fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	if acc.WeekStartDate != nil && !acc.WeekStartDate.Before(weekStart) {
		return false, nil
	}
	r.s.accounts[userID] = snapshotWeek(acc, acc.WeeklyRank, weekStart, r.s.timestamp())
	return true, nil
}

func (r *AccountRepository) AddPoints(_ context.Context, userID string, total, weekly int64) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return account.Account{}, fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	acc.TotalPoints += total
	acc.WeeklyPoints += weekly
	acc.UpdatedAt = r.s.timestamp()
	r.s.accounts[userID] = acc

	return cloneAccount(acc), nil
}

func (r *AccountRepository) Debit(_ context.Context, userID string, amount int64) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, err := r.s.debitLocked(userID, amount)
	if err != nil {
		return account.Account{}, err
	}
	return cloneAccount(acc), nil
}

func (s *Store) debitLocked(userID string, amount int64) (account.Account, error) {
	acc, ok := s.accounts[userID]
	if !ok {
		return account.Account{}, fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	if acc.TotalPoints < amount {
		return account.Account{}, account.ErrInsufficientBalance
	}
	acc.TotalPoints -= amount
	acc.UpdatedAt = s.timestamp()
	s.accounts[userID] = acc
	return acc, nil
}

func (r *AccountRepository) UpdateStreak(_ context.Context, userID string, expectedLast *time.Time, next account.Streak) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	if !sameInstant(acc.LastSubmissionDate, expectedLast) {
		return account.ErrStreakConflict
	}
	acc.CurrentStreak = next.Current
	acc.LongestStreak = next.Longest
	acc.LastSubmissionDate = cloneTime(next.LastSubmissionDate)
	acc.UpdatedAt = r.s.timestamp()
	r.s.accounts[userID] = acc
	return nil
}

func (r *AccountRepository) SetWeeklyRank(_ context.Context, userID string, rank *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[userID]
	if !ok {
		return fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	acc.WeeklyRank = cloneInt(rank)
	r.s.accounts[userID] = acc
	return nil
}

func (r *AccountRepository) CountDominating(_ context.Context, filter account.Filter, ref account.Account) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	refStanding := leaderboard.StandingOf(ref, filter.Metric)
	count := 0
	for _, acc := range r.s.accounts {
		if acc.UserID == ref.UserID || !filter.Matches(acc) {
			continue
		}
		if leaderboard.Dominates(leaderboard.StandingOf(acc, filter.Metric), refStanding) {
			count++
		}
	}
	return count, nil
}

func (r *AccountRepository) Count(_ context.Context, filter account.Filter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, acc := range r.s.accounts {
		if filter.Matches(acc) {
			count++
		}
	}
	return count, nil
}

func (r *AccountRepository) ListRanked(_ context.Context, filter account.Filter, limit, offset int) ([]account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]account.Account, 0, len(r.s.accounts))
	for _, acc := range r.s.accounts {
		if filter.Matches(acc) {
			matched = append(matched, acc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return leaderboard.Dominates(
			leaderboard.StandingOf(matched[i], filter.Metric),
			leaderboard.StandingOf(matched[j], filter.Metric),
		)
	})

	if offset >= len(matched) {
		return []account.Account{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]account.Account, 0, end-offset)
	for _, acc := range matched[offset:end] {
		out = append(out, cloneAccount(acc))
	}
	return out, nil
}

func (r *AccountRepository) ListClosingWeek(_ context.Context, currentWeek time.Time, limit int) ([]account.ClosingStanding, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]account.ClosingStanding, 0)
	for _, acc := range r.s.accounts {
		if points := acc.ClosingWeekPoints(currentWeek); points > 0 {
			out = append(out, account.ClosingStanding{Account: cloneAccount(acc), Points: points})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return leaderboard.Dominates(
			leaderboard.Standing{ID: out[i].Account.UserID, Points: out[i].Points, CreatedAt: out[i].Account.CreatedAt},
			leaderboard.Standing{ID: out[j].Account.UserID, Points: out[j].Points, CreatedAt: out[j].Account.CreatedAt},
		)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AccountRepository) ApplyWeeklyReward(_ context.Context, rw account.WeeklyReward, at time.Time) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	acc, ok := r.s.accounts[rw.UserID]
	if !ok {
		return account.Account{}, fmt.Errorf("%w: user=%s", account.ErrNotFound, rw.UserID)
	}
	weekStart := period.WeekStart(at)
	if staleWeek(acc, weekStart) {
		acc = snapshotWeek(acc, nil, weekStart, at.UTC())
	}
	rank := rw.Rank
	acc.LastWeekRank = &rank
	acc.TotalPoints += rw.Bonus
	acc.UpdatedAt = at.UTC()
	r.s.accounts[rw.UserID] = acc

	return cloneAccount(acc), nil
}

func (r *AccountRepository) ResetWeekly(_ context.Context, exclude []string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	weekStart := period.WeekStart(at)
	var reset int64
	for id, acc := range r.s.accounts {
		if _, ok := skip[id]; ok {
			continue
		}
		if !staleWeek(acc, weekStart) {
			continue
		}
		r.s.accounts[id] = snapshotWeek(acc, acc.WeeklyRank, weekStart, at.UTC())
		reset++
	}
	return reset, nil
}

func staleWeek(acc account.Account, weekStart time.Time) bool {
	return acc.WeekStartDate == nil || acc.WeekStartDate.Before(weekStart)
}

func snapshotWeek(acc account.Account, lastRank *int, weekStart, at time.Time) account.Account {
	acc.LastWeekPoints = acc.WeeklyPoints
	acc.LastWeekRank = cloneInt(lastRank)
	acc.WeeklyPoints = 0
	acc.WeeklyRank = nil
	acc.WeekStartDate = &weekStart
	acc.UpdatedAt = at
	return acc
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneAccount(a account.Account) account.Account {
	a.LastSubmissionDate = cloneTime(a.LastSubmissionDate)
	a.WeekStartDate = cloneTime(a.WeekStartDate)
	a.WeeklyRank = cloneInt(a.WeeklyRank)
	a.LastWeekRank = cloneInt(a.LastWeekRank)
	return a
}
