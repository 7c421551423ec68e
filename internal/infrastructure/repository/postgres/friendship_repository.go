package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/questrank/internal/domain/social"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

type friendshipInsertModel struct {
	RequesterID string    `db:"requester_id"`
	AddresseeID string    `db:"addressee_id"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type FriendshipRepository struct {
	db *sqlx.DB
}

func NewFriendshipRepository(db *sqlx.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) Upsert(ctx context.Context, f social.Friendship) error {
	createdAt := f.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := f.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	query, args, err := qb.InsertModel("friendships", friendshipInsertModel{
		RequesterID: f.RequesterID,
		AddresseeID: f.AddresseeID,
		Status:      string(f.Status),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, qb.OnConflictUpdate("((LEAST(requester_id, addressee_id)), (GREATEST(requester_id, addressee_id)))",
		[]string{"requester_id", "addressee_id", "status", "updated_at"}))
	if err != nil {
		return fmt.Errorf("build upsert friendship query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert friendship %s->%s: %w", f.RequesterID, f.AddresseeID, err)
	}
	return nil
}

func (r *FriendshipRepository) ListAcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `
SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END AS friend_id
FROM friendships
WHERE status = $2
  AND (requester_id = $1 OR addressee_id = $1)
ORDER BY friend_id`

	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, userID, string(social.StatusAccepted)); err != nil {
		return nil, fmt.Errorf("list accepted friends: %w", err)
	}
	return ids, nil
}

func (r *FriendshipRepository) CountAccepted(ctx context.Context, userID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("friendships").
		Where(
			qb.Eq("status", string(social.StatusAccepted)),
			qb.Or(qb.Eq("requester_id", userID), qb.Eq("addressee_id", userID)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count friends query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count friends: %w", err)
	}
	return count, nil
}
