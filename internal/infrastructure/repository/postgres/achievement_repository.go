package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/achievement"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type userAchievementModel struct {
	UserID         string    `db:"user_id"`
	AchievementKey string    `db:"achievement_key"`
	RewardPoints   int64     `db:"reward_points"`
	UnlockedAt     time.Time `db:"unlocked_at"`
}

type AchievementRepository struct {
	db *sqlx.DB
}

func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID string) ([]achievement.UserAchievement, error) {
	query, args, err := qb.Select("user_id", "achievement_key", "reward_points", "unlocked_at").
		From("user_achievements").
		Where(qb.Eq("user_id", userID)).
		OrderBy("unlocked_at ASC", "achievement_key ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unlocked achievements query: %w", err)
	}

	var rows []userAchievementModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}

	out := make([]achievement.UserAchievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, achievement.UserAchievement{
			UserID:         row.UserID,
			AchievementKey: row.AchievementKey,
			RewardPoints:   row.RewardPoints,
			UnlockedAt:     row.UnlockedAt.UTC(),
		})
	}
	return out, nil
}

func (r *AchievementRepository) Unlock(ctx context.Context, ua achievement.UserAchievement) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin unlock achievement tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := ensureAccountExists(ctx, tx, ua.UserID); err != nil {
		return false, err
	}

	unlockedAt := ua.UnlockedAt.UTC()
	query, args, err := qb.InsertModel("user_achievements", userAchievementModel{
		UserID:         ua.UserID,
		AchievementKey: ua.AchievementKey,
		RewardPoints:   ua.RewardPoints,
		UnlockedAt:     unlockedAt,
	}, "ON CONFLICT (user_id, achievement_key) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert achievement query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert achievement user=%s key=%s: %w", ua.UserID, ua.AchievementKey, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert achievement rows affected: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	if ua.RewardPoints != 0 {
		query, args, err = qb.Update("point_accounts").
			SetExpr("total_points", "total_points + ?", ua.RewardPoints).
			Set("updated_at", unlockedAt).
			Where(qb.Eq("user_id", ua.UserID)).
			ToSQL()
		if err != nil {
			return false, fmt.Errorf("build credit achievement query: %w", err)
		}
		res, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return false, fmt.Errorf("credit achievement user=%s: %w", ua.UserID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return false, fmt.Errorf("%w: user=%s", account.ErrNotFound, ua.UserID)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit unlock achievement tx: %w", err)
	}
	return true, nil
}
