package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/powerup"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type PowerUpRepository struct {
	db *sqlx.DB
}

func NewPowerUpRepository(db *sqlx.DB) *PowerUpRepository {
	return &PowerUpRepository{db: db}
}

func (r *PowerUpRepository) Purchase(ctx context.Context, p powerup.PowerUp, cost int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purchase power-up tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	acc, err := debitAccount(ctx, tx, p.UserID, cost)
	if err != nil {
		return 0, err
	}

	createdAt := p.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := p.Status
	if status == "" {
		status = powerup.StatusAvailable
	}
	query, args, err := qb.InsertModel("power_ups", powerUpInsertModel{
		ID:              p.ID,
		UserID:          p.UserID,
		Type:            string(p.Type),
		Multiplier:      p.Multiplier,
		DurationMinutes: p.DurationMinutes,
		Status:          string(status),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, "")
	if err != nil {
		return 0, fmt.Errorf("build insert power-up query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert power-up id=%s: %w", p.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase power-up tx: %w", err)
	}
	return acc.TotalPoints, nil
}

func (r *PowerUpRepository) GetByID(ctx context.Context, userID, powerUpID string) (powerup.PowerUp, bool, error) {
	query, args, err := qb.Select(powerUpColumns...).
		From("power_ups").
		Where(qb.Eq("id", powerUpID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return powerup.PowerUp{}, false, fmt.Errorf("build get power-up query: %w", err)
	}

	var row powerUpTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return powerup.PowerUp{}, false, nil
		}
		return powerup.PowerUp{}, false, fmt.Errorf("get power-up: %w", err)
	}
	return powerUpFromRow(row), true, nil
}

func (r *PowerUpRepository) Activate(ctx context.Context, userID, powerUpID string, activatedAt, expiresAt time.Time) (powerup.PowerUp, bool, error) {
	query, args, err := qb.Update("power_ups").
		Set("status", string(powerup.StatusActive)).
		Set("activated_at", activatedAt.UTC()).
		Set("expires_at", expiresAt.UTC()).
		Set("updated_at", activatedAt.UTC()).
		Where(
			qb.Eq("id", powerUpID),
			qb.Eq("user_id", userID),
			qb.Eq("status", string(powerup.StatusAvailable)),
		).
		Suffix("RETURNING " + strings.Join(powerUpColumns, ", ")).
		ToSQL()
	if err != nil {
		return powerup.PowerUp{}, false, fmt.Errorf("build activate power-up query: %w", err)
	}

	var row powerUpTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return powerup.PowerUp{}, false, nil
		}
		return powerup.PowerUp{}, false, fmt.Errorf("activate power-up id=%s: %w", powerUpID, err)
	}
	return powerUpFromRow(row), true, nil
}

func (r *PowerUpRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]powerup.PowerUp, error) {
	query, args, err := qb.Select(powerUpColumns...).
		From("power_ups").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("status", string(powerup.StatusActive)),
			qb.Gt("expires_at", now.UTC()),
		).
		OrderBy("expires_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active power-ups query: %w", err)
	}

	var rows []powerUpTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list active power-ups: %w", err)
	}
	return powerUpsFromRows(rows), nil
}

func (r *PowerUpRepository) ListByUser(ctx context.Context, userID string) ([]powerup.PowerUp, error) {
	query, args, err := qb.Select(powerUpColumns...).
		From("power_ups").
		Where(
			qb.Eq("user_id", userID),
			qb.In("status", []any{string(powerup.StatusAvailable), string(powerup.StatusActive)}),
		).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list power-ups query: %w", err)
	}

	var rows []powerUpTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list power-ups: %w", err)
	}
	return powerUpsFromRows(rows), nil
}

func (r *PowerUpRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := qb.Update("power_ups").
		Set("status", string(powerup.StatusExpired)).
		Set("updated_at", now.UTC()).
		Where(
			qb.Eq("status", string(powerup.StatusActive)),
			qb.Expr("expires_at <= ?", now.UTC()),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build expire power-ups query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire power-ups: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire power-ups rows affected: %w", err)
	}
	return affected, nil
}

func (r *PowerUpRepository) CountActivated(ctx context.Context, userID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("power_ups").
		Where(qb.Eq("user_id", userID), qb.Expr("activated_at IS NOT NULL")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count activated power-ups query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count activated power-ups: %w", err)
	}
	return count, nil
}
