package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo population into an empty point_accounts table.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM point_accounts`); err != nil {
		return fmt.Errorf("count accounts for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for i, p := range memory.SeedProfiles() {
		createdAt := now.Add(time.Duration(i) * time.Second)
		if err := namedExec(ctx, tx, `
INSERT INTO point_accounts (user_id, username, city, created_at, updated_at)
VALUES (:user_id, :username, :city, :created_at, :created_at)
ON CONFLICT (user_id) DO NOTHING`, map[string]any{
			"user_id":    p.UserID,
			"username":   p.Username,
			"city":       p.City,
			"created_at": createdAt,
		}); err != nil {
			return fmt.Errorf("seed account %s: %w", p.UserID, err)
		}
	}

	for _, sq := range memory.SeedSquads() {
		if err := namedExec(ctx, tx, `
INSERT INTO squads (id, name, city, leader_id, created_at, updated_at)
VALUES (:id, :name, :city, :leader_id, :created_at, :created_at)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":         sq.ID,
			"name":       sq.Name,
			"city":       sq.City,
			"leader_id":  sq.LeaderID,
			"created_at": now,
		}); err != nil {
			return fmt.Errorf("seed squad %s: %w", sq.ID, err)
		}
	}

	for _, m := range memory.SeedMembers() {
		if err := namedExec(ctx, tx, `
INSERT INTO squad_members (squad_id, user_id, role, joined_at)
VALUES (:squad_id, :user_id, :role, :joined_at)
ON CONFLICT (squad_id, user_id) DO NOTHING`, map[string]any{
			"squad_id":  m.SquadID,
			"user_id":   m.UserID,
			"role":      string(m.Role),
			"joined_at": now,
		}); err != nil {
			return fmt.Errorf("seed squad member %s/%s: %w", m.SquadID, m.UserID, err)
		}
	}

	for _, f := range memory.SeedFriendships() {
		if err := namedExec(ctx, tx, `
INSERT INTO friendships (requester_id, addressee_id, status, created_at, updated_at)
VALUES (:requester_id, :addressee_id, :status, :created_at, :created_at)
ON CONFLICT DO NOTHING`, map[string]any{
			"requester_id": f.RequesterID,
			"addressee_id": f.AddresseeID,
			"status":       string(f.Status),
			"created_at":   now,
		}); err != nil {
			return fmt.Errorf("seed friendship %s/%s: %w", f.RequesterID, f.AddresseeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func namedExec(ctx context.Context, tx *sqlx.Tx, query string, arg map[string]any) error {
	sqlQuery, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind query: %w", err)
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...)
	return err
}
