package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("account not found")
	// ErrInsufficientBalance is returned by Debit when the balance does not
	// cover the amount. No change is made.
	ErrInsufficientBalance = errors.New("insufficient point balance")
	// ErrStreakConflict is returned by UpdateStreak when the stored
	// last-submission date no longer matches the expected one.
	ErrStreakConflict = errors.New("streak changed concurrently")
)

type Repository interface {
	UpsertProfile(ctx context.Context, profile Profile, createdAt time.Time) (Account, error)
	GetByID(ctx context.Context, userID string) (Account, bool, error)

	// RolloverWeek snapshots and resets the weekly counters when the stored
	// week start is absent or before weekStart. It reports whether a rollover
	// happened; repeated calls for the same week are no-ops.
	RolloverWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error)
	// AddPoints atomically increments the total and weekly counters.
	AddPoints(ctx context.Context, userID string, total, weekly int64) (Account, error)
	// Debit atomically subtracts amount from the total when it is covered.
	Debit(ctx context.Context, userID string, amount int64) (Account, error)
	// UpdateStreak stores next only if the last submission date still equals
	// expectedLast.
	UpdateStreak(ctx context.Context, userID string, expectedLast *time.Time, next Streak) error
	SetWeeklyRank(ctx context.Context, userID string, rank *int) error

	// CountDominating counts accounts in filter that strictly outrank ref.
	CountDominating(ctx context.Context, filter Filter, ref Account) (int, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// ListRanked returns accounts ordered by metric DESC, created_at ASC, user_id ASC.
	ListRanked(ctx context.Context, filter Filter, limit, offset int) ([]Account, error)
	// ListClosingWeek ranks accounts by ClosingWeekPoints(currentWeek) with the
	// ListRanked tie-breaks. Accounts without closing-week points are left out.
	ListClosingWeek(ctx context.Context, currentWeek time.Time, limit int) ([]ClosingStanding, error)

	// ApplyWeeklyReward credits the bonus and records the rank as the last-week
	// rank in a single statement. An account still on an earlier week is rolled
	// into the week of at first; one already there keeps its counters.
	ApplyWeeklyReward(ctx context.Context, reward WeeklyReward, at time.Time) (Account, error)
	// ResetWeekly rolls every account still on a week before at into the week
	// of at, skipping those listed in exclude. Accounts already in that week
	// are left alone. It returns the number of accounts reset.
	ResetWeekly(ctx context.Context, exclude []string, at time.Time) (int64, error)
}
