package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type SquadRepository struct {
	db *sqlx.DB
}

func NewSquadRepository(db *sqlx.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

func (r *SquadRepository) Create(ctx context.Context, sq squad.Squad, leader squad.Member) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create squad tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createdAt := sq.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := sq.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	query, args, err := qb.InsertModel("squads", squadInsertModel{
		ID:           sq.ID,
		Name:         sq.Name,
		City:         sq.City,
		LeaderID:     sq.LeaderID,
		TotalPoints:  sq.TotalPoints,
		WeeklyPoints: sq.WeeklyPoints,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert squad query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert squad id=%s: %w", sq.ID, err)
	}

	leader.SquadID = sq.ID
	query, args, err = qb.InsertModel("squad_members", memberModel(leader), "")
	if err != nil {
		return fmt.Errorf("build insert squad leader query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert squad leader squad=%s: %w", sq.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create squad tx: %w", err)
	}
	return nil
}

func (r *SquadRepository) GetByID(ctx context.Context, squadID string) (squad.Squad, bool, error) {
	query, args, err := qb.Select(squadColumns...).
		From("squads").
		Where(qb.Eq("id", squadID)).
		ToSQL()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("build get squad query: %w", err)
	}

	var row squadTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return squad.Squad{}, false, nil
		}
		return squad.Squad{}, false, fmt.Errorf("get squad: %w", err)
	}
	return squadFromRow(row), true, nil
}

func (r *SquadRepository) AddMember(ctx context.Context, m squad.Member) error {
	query, args, err := qb.InsertModel("squad_members", memberModel(m), qb.OnConflictUpdate("(squad_id, user_id)", nil))
	if err != nil {
		return fmt.Errorf("build insert squad member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert squad member squad=%s user=%s: %w", m.SquadID, m.UserID, err)
	}
	return nil
}

func (r *SquadRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]squad.Member, error) {
	query, args, err := qb.Select("squad_id", "user_id", "role", "points_contributed", "weekly_points_contributed", "joined_at").
		From("squad_members").
		Where(qb.Eq("user_id", userID)).
		OrderBy("squad_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list squad memberships query: %w", err)
	}

	var rows []squadMemberModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list squad memberships: %w", err)
	}

	out := make([]squad.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, squad.Member{
			SquadID:                 row.SquadID,
			UserID:                  row.UserID,
			Role:                    squad.Role(row.Role),
			PointsContributed:       row.PointsContributed,
			WeeklyPointsContributed: row.WeeklyPointsContributed,
			JoinedAt:                row.JoinedAt.UTC(),
		})
	}
	return out, nil
}

func (r *SquadRepository) AddContribution(ctx context.Context, squadID, userID string, points int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin squad contribution tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("squad_members").
		SetExpr("points_contributed", "points_contributed + ?", points).
		SetExpr("weekly_points_contributed", "weekly_points_contributed + ?", points).
		Where(qb.Eq("squad_id", squadID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build member contribution query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("credit squad member squad=%s user=%s: %w", squadID, userID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("user %s is not a member of squad %s", userID, squadID)
	}

	query, args, err = qb.Update("squads").
		SetExpr("total_points", "total_points + ?", points).
		SetExpr("weekly_points", "weekly_points + ?", points).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", squadID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build squad contribution query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("credit squad id=%s: %w", squadID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit squad contribution tx: %w", err)
	}
	return nil
}

func (r *SquadRepository) ListRanked(ctx context.Context, metric account.Metric, limit, offset int) ([]squad.Squad, error) {
	column := metricColumn(metric, "total_points", "weekly_points")
	query, args, err := qb.Select(squadColumns...).
		From("squads").
		OrderBy(column+" DESC", "created_at ASC", "id ASC").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ranked squads query: %w", err)
	}

	var rows []squadTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list ranked squads: %w", err)
	}

	out := make([]squad.Squad, 0, len(rows))
	for _, row := range rows {
		out = append(out, squadFromRow(row))
	}
	return out, nil
}

func (r *SquadRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM squads`); err != nil {
		return 0, fmt.Errorf("count squads: %w", err)
	}
	return count, nil
}

func (r *SquadRepository) CountDominating(ctx context.Context, metric account.Metric, ref squad.Squad) (int, error) {
	column := metricColumn(metric, "total_points", "weekly_points")
	points := ref.TotalPoints
	if metric == account.MetricWeekly {
		points = ref.WeeklyPoints
	}
	query, args, err := qb.Select("COUNT(*)").
		From("squads").
		Where(
			qb.Expr("id <> ?", ref.ID),
			dominatingCondition(column, "id", points, ref.CreatedAt.UTC(), ref.ID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count dominating squads query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count dominating squads: %w", err)
	}
	return count, nil
}

func (r *SquadRepository) ResetWeekly(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset squads tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE squads SET weekly_points = 0, updated_at = NOW() WHERE weekly_points <> 0`)
	if err != nil {
		return 0, fmt.Errorf("reset squad weekly points: %w", err)
	}
	reset, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset squads rows affected: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE squad_members SET weekly_points_contributed = 0 WHERE weekly_points_contributed <> 0`); err != nil {
		return 0, fmt.Errorf("reset member weekly contributions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset squads tx: %w", err)
	}
	return reset, nil
}
