package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/period"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

// queryer is the subset shared by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) UpsertProfile(ctx context.Context, profile account.Profile, createdAt time.Time) (account.Account, error) {
	at := createdAt.UTC()
	model := accountInsertModel{
		UserID:    profile.UserID,
		Username:  profile.Username,
		City:      profile.City,
		CreatedAt: at,
		UpdatedAt: at,
	}
	query, args, err := qb.InsertModel("point_accounts", model,
		qb.OnConflictUpdate("(user_id)", []string{"username", "city", "updated_at"}, accountColumns...))
	if err != nil {
		return account.Account{}, fmt.Errorf("build upsert account query: %w", err)
	}

	var row accountTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return account.Account{}, fmt.Errorf("upsert account user=%s: %w", profile.UserID, err)
	}
	return accountFromRow(row), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, userID string) (account.Account, bool, error) {
	query, args, err := qb.Select(accountColumns...).
		From("point_accounts").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return account.Account{}, false, fmt.Errorf("build get account query: %w", err)
	}

	var row accountTableModel
	err = r.db.GetContext(ctx, &row, query, args...)
	if isTransientStatementError(err) {
		err = r.db.GetContext(ctx, &row, query, args...)
	}
	if err != nil {
		if isNotFound(err) {
			return account.Account{}, false, nil
		}
		return account.Account{}, false, fmt.Errorf("get account: %w", err)
	}
	return accountFromRow(row), true, nil
}

func (r *AccountRepository) RolloverWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	query, args, err := snapshotWeekUpdate(weekStart, time.Now().UTC()).
		SetExpr("last_week_rank", "weekly_rank").
		Where(
			qb.Eq("user_id", userID),
			qb.Or(qb.IsNull("week_start_date"), qb.Lt("week_start_date", weekStart.UTC())),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build rollover week query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("rollover week user=%s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rollover week rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}
	if err := ensureAccountExists(ctx, r.db, userID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *AccountRepository) AddPoints(ctx context.Context, userID string, total, weekly int64) (account.Account, error) {
	query, args, err := qb.Update("point_accounts").
		SetExpr("total_points", "total_points + ?", total).
		SetExpr("weekly_points", "weekly_points + ?", weekly).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("user_id", userID)).
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		ToSQL()
	if err != nil {
		return account.Account{}, fmt.Errorf("build add points query: %w", err)
	}

	var row accountTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return account.Account{}, fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
		}
		return account.Account{}, fmt.Errorf("add points user=%s: %w", userID, err)
	}
	return accountFromRow(row), nil
}

func (r *AccountRepository) Debit(ctx context.Context, userID string, amount int64) (account.Account, error) {
	return debitAccount(ctx, r.db, userID, amount)
}

func debitAccount(ctx context.Context, q queryer, userID string, amount int64) (account.Account, error) {
	query, args, err := qb.Update("point_accounts").
		SetExpr("total_points", "total_points - ?", amount).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("user_id", userID), qb.Gte("total_points", amount)).
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		ToSQL()
	if err != nil {
		return account.Account{}, fmt.Errorf("build debit query: %w", err)
	}

	var row accountTableModel
	if err := q.GetContext(ctx, &row, query, args...); err != nil {
		if !isNotFound(err) {
			return account.Account{}, fmt.Errorf("debit user=%s: %w", userID, err)
		}
		if err := ensureAccountExists(ctx, q, userID); err != nil {
			return account.Account{}, err
		}
		return account.Account{}, account.ErrInsufficientBalance
	}
	return accountFromRow(row), nil
}

func (r *AccountRepository) UpdateStreak(ctx context.Context, userID string, expectedLast *time.Time, next account.Streak) error {
	query, args, err := qb.Update("point_accounts").
		Set("current_streak", next.Current).
		Set("longest_streak", next.Longest).
		Set("last_submission_date", utcPtr(next.LastSubmissionDate)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("user_id", userID),
			qb.Expr("last_submission_date IS NOT DISTINCT FROM ?::timestamptz", utcPtr(expectedLast)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update streak query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update streak user=%s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update streak rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if err := ensureAccountExists(ctx, r.db, userID); err != nil {
		return err
	}
	return account.ErrStreakConflict
}

func (r *AccountRepository) SetWeeklyRank(ctx context.Context, userID string, rank *int) error {
	query, args, err := qb.Update("point_accounts").
		Set("weekly_rank", rank).
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set weekly rank query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set weekly rank user=%s: %w", userID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	return nil
}

func (r *AccountRepository) CountDominating(ctx context.Context, filter account.Filter, ref account.Account) (int, error) {
	column := metricColumn(filter.Metric, "total_points", "weekly_points")
	conds := append(accountFilterConditions(filter),
		qb.Expr("user_id <> ?", ref.UserID),
		dominatingCondition(column, "user_id", ref.Points(filter.Metric), ref.CreatedAt.UTC(), ref.UserID),
	)
	return r.count(ctx, conds, "count dominating accounts")
}

func (r *AccountRepository) Count(ctx context.Context, filter account.Filter) (int, error) {
	return r.count(ctx, accountFilterConditions(filter), "count accounts")
}

func (r *AccountRepository) count(ctx context.Context, conds []qb.Condition, op string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("point_accounts").
		Where(conds...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s query: %w", op, err)
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if isTransientStatementError(err) {
		err = r.db.GetContext(ctx, &count, query, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (r *AccountRepository) ListRanked(ctx context.Context, filter account.Filter, limit, offset int) ([]account.Account, error) {
	column := metricColumn(filter.Metric, "total_points", "weekly_points")
	query, args, err := qb.Select(accountColumns...).
		From("point_accounts").
		Where(accountFilterConditions(filter)...).
		OrderBy(column+" DESC", "created_at ASC", "user_id ASC").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ranked accounts query: %w", err)
	}

	var rows []accountTableModel
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if isTransientStatementError(err) {
		rows = nil
		err = r.db.SelectContext(ctx, &rows, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list ranked accounts: %w", err)
	}

	out := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountFromRow(row))
	}
	return out, nil
}

func (r *AccountRepository) ListClosingWeek(ctx context.Context, currentWeek time.Time, limit int) ([]account.ClosingStanding, error) {
	currentWeek = currentWeek.UTC()
	query := fmt.Sprintf(`SELECT * FROM (
	SELECT %s,
		CASE
			WHEN week_start_date >= $1 THEN last_week_points
			WHEN week_start_date = $2 THEN weekly_points
			ELSE 0
		END AS closing_points
	FROM point_accounts
) closing
WHERE closing_points > 0
ORDER BY closing_points DESC, created_at ASC, user_id ASC`, strings.Join(accountColumns, ", "))
	args := []any{currentWeek, currentWeek.AddDate(0, 0, -7)}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	var rows []closingStandingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list closing week standings: %w", err)
	}

	out := make([]account.ClosingStanding, 0, len(rows))
	for _, row := range rows {
		out = append(out, account.ClosingStanding{
			Account: accountFromRow(row.accountTableModel),
			Points:  row.ClosingPoints,
		})
	}
	return out, nil
}

// ApplyWeeklyReward only snapshots accounts still on an earlier week; the
// CASE arms keep the counters of accounts that already rolled over.
func (r *AccountRepository) ApplyWeeklyReward(ctx context.Context, reward account.WeeklyReward, at time.Time) (account.Account, error) {
	weekStart := period.WeekStart(at).UTC()
	const stale = "(week_start_date IS NULL OR week_start_date < ?)"
	query, args, err := qb.Update("point_accounts").
		SetExpr("last_week_points", "CASE WHEN "+stale+" THEN weekly_points ELSE last_week_points END", weekStart).
		SetExpr("weekly_points", "CASE WHEN "+stale+" THEN 0 ELSE weekly_points END", weekStart).
		SetExpr("weekly_rank", "CASE WHEN "+stale+" THEN NULL ELSE weekly_rank END", weekStart).
		SetExpr("week_start_date", "CASE WHEN "+stale+" THEN ? ELSE week_start_date END", weekStart, weekStart).
		Set("last_week_rank", reward.Rank).
		Set("updated_at", at.UTC()).
		SetExpr("total_points", "total_points + ?", reward.Bonus).
		Where(qb.Eq("user_id", reward.UserID)).
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		ToSQL()
	if err != nil {
		return account.Account{}, fmt.Errorf("build apply weekly reward query: %w", err)
	}

	var row accountTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return account.Account{}, fmt.Errorf("%w: user=%s", account.ErrNotFound, reward.UserID)
		}
		return account.Account{}, fmt.Errorf("apply weekly reward user=%s: %w", reward.UserID, err)
	}
	return accountFromRow(row), nil
}

func (r *AccountRepository) ResetWeekly(ctx context.Context, exclude []string, at time.Time) (int64, error) {
	weekStart := period.WeekStart(at)
	if exclude == nil {
		exclude = []string{}
	}
	query, args, err := snapshotWeekUpdate(weekStart, at.UTC()).
		SetExpr("last_week_rank", "weekly_rank").
		Where(
			qb.Expr("NOT (user_id = ANY(?))", pq.Array(exclude)),
			qb.Or(
				qb.IsNull("week_start_date"),
				qb.Lt("week_start_date", weekStart),
			),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build reset weekly query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset weekly points: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset weekly rows affected: %w", err)
	}
	return affected, nil
}

// snapshotWeekUpdate moves weekly points into the last-week snapshot. The
// right-hand sides read pre-update values, so the column order is irrelevant.
func snapshotWeekUpdate(weekStart, at time.Time) *qb.UpdateBuilder {
	return qb.Update("point_accounts").
		SetExpr("last_week_points", "weekly_points").
		Set("weekly_points", 0).
		SetExpr("weekly_rank", "NULL").
		Set("week_start_date", weekStart.UTC()).
		Set("updated_at", at)
}

func accountFilterConditions(filter account.Filter) []qb.Condition {
	conds := make([]qb.Condition, 0, 3)
	if city := strings.TrimSpace(filter.City); city != "" {
		conds = append(conds, qb.Expr("LOWER(city) = LOWER(?)", city))
	}
	if filter.ActiveOnly {
		conds = append(conds, qb.Gt(metricColumn(filter.Metric, "total_points", "weekly_points"), 0))
	}
	if filter.UserIDs != nil {
		conds = append(conds, qb.In("user_id", stringsToAny(filter.UserIDs)))
	}
	return conds
}

func ensureAccountExists(ctx context.Context, q queryer, userID string) error {
	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM point_accounts WHERE user_id = $1)`, userID); err != nil {
		return fmt.Errorf("check account user=%s: %w", userID, err)
	}
	if !exists {
		return fmt.Errorf("%w: user=%s", account.ErrNotFound, userID)
	}
	return nil
}
