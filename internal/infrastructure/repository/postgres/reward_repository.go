package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/reward"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type rewardRunTableModel struct {
	WeekStart    time.Time  `db:"week_start"`
	Status       string     `db:"status"`
	Rewarded     int        `db:"rewarded"`
	Failed       int        `db:"failed"`
	ResetCount   int64      `db:"reset_count"`
	BonusPoints  int64      `db:"bonus_points"`
	ErrorMessage string     `db:"error_message"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}

type rewardBadgeModel struct {
	UserID    string    `db:"user_id"`
	Badge     string    `db:"badge"`
	WeekStart time.Time `db:"week_start"`
	Rank      int       `db:"rank"`
	Bonus     int64     `db:"bonus"`
	Points    int64     `db:"points"`
	AwardedAt time.Time `db:"awarded_at"`
}

type RewardRepository struct {
	db *sqlx.DB
}

func NewRewardRepository(db *sqlx.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) ClaimRun(ctx context.Context, week, startedAt time.Time) (bool, error) {
	query, args, err := qb.InsertInto("reward_runs").
		Columns("week_start", "status", "started_at").
		Values(dateOnly(week), string(reward.RunStatusRunning), startedAt.UTC()).
		Suffix("ON CONFLICT (week_start) DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build claim reward run query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim reward run week=%s: %w", week.Format(time.DateOnly), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim reward run rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *RewardRepository) CompleteRun(ctx context.Context, run reward.Run) error {
	query, args, err := qb.Update("reward_runs").
		Set("status", string(run.Status)).
		Set("rewarded", run.Rewarded).
		Set("failed", run.Failed).
		Set("reset_count", run.Reset).
		Set("bonus_points", run.BonusPoints).
		Set("error_message", run.ErrorMessage).
		Set("completed_at", utcPtr(run.CompletedAt)).
		Where(qb.Eq("week_start", dateOnly(run.Week))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build complete reward run query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete reward run week=%s: %w", run.Week.Format(time.DateOnly), err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("reward run for week %s not claimed", run.Week.Format(time.DateOnly))
	}
	return nil
}

func (r *RewardRepository) GetRun(ctx context.Context, week time.Time) (reward.Run, bool, error) {
	query, args, err := qb.Select("week_start", "status", "rewarded", "failed", "reset_count", "bonus_points", "error_message", "started_at", "completed_at").
		From("reward_runs").
		Where(qb.Eq("week_start", dateOnly(week))).
		ToSQL()
	if err != nil {
		return reward.Run{}, false, fmt.Errorf("build get reward run query: %w", err)
	}

	var row rewardRunTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return reward.Run{}, false, nil
		}
		return reward.Run{}, false, fmt.Errorf("get reward run: %w", err)
	}
	return reward.Run{
		Week:         dateOnly(row.WeekStart),
		Status:       reward.RunStatus(row.Status),
		Rewarded:     row.Rewarded,
		Failed:       row.Failed,
		Reset:        row.ResetCount,
		BonusPoints:  row.BonusPoints,
		ErrorMessage: row.ErrorMessage,
		StartedAt:    row.StartedAt.UTC(),
		CompletedAt:  utcPtr(row.CompletedAt),
	}, true, nil
}

func (r *RewardRepository) RecordBadge(ctx context.Context, award reward.BadgeAward) error {
	query, args, err := qb.InsertModel("reward_badges", rewardBadgeModel{
		UserID:    award.UserID,
		Badge:     award.Badge,
		WeekStart: dateOnly(award.WeekStart),
		Rank:      award.Rank,
		Bonus:     award.Bonus,
		Points:    award.Points,
		AwardedAt: award.AwardedAt.UTC(),
	}, "ON CONFLICT (user_id, badge, week_start) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert reward badge query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reward badge user=%s badge=%s: %w", award.UserID, award.Badge, err)
	}
	return nil
}

func (r *RewardRepository) ListBadgesByUser(ctx context.Context, userID string) ([]reward.BadgeAward, error) {
	query, args, err := qb.Select("user_id", "badge", "week_start", "rank", "bonus", "points", "awarded_at").
		From("reward_badges").
		Where(qb.Eq("user_id", userID)).
		OrderBy("week_start DESC", "badge ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list reward badges query: %w", err)
	}

	var rows []rewardBadgeModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reward badges: %w", err)
	}

	out := make([]reward.BadgeAward, 0, len(rows))
	for _, row := range rows {
		out = append(out, reward.BadgeAward{
			UserID:    row.UserID,
			Badge:     row.Badge,
			WeekStart: dateOnly(row.WeekStart),
			Rank:      row.Rank,
			Bonus:     row.Bonus,
			Points:    row.Points,
			AwardedAt: row.AwardedAt.UTC(),
		})
	}
	return out, nil
}
