package powerup

import (
	"context"
	"time"
)

type Repository interface {
	// Purchase debits cost from the owner's point total and stores p in the
	// same transaction. It returns the remaining balance and fails with
	// account.ErrInsufficientBalance when the balance does not cover cost.
	Purchase(ctx context.Context, p PowerUp, cost int64) (int64, error)
	GetByID(ctx context.Context, userID, powerUpID string) (PowerUp, bool, error)
	// Activate moves an available record to active. It reports false when no
	// available record with that id exists for the user.
	Activate(ctx context.Context, userID, powerUpID string, activatedAt, expiresAt time.Time) (PowerUp, bool, error)
	// ListActive returns active records whose expiry is after now.
	ListActive(ctx context.Context, userID string, now time.Time) ([]PowerUp, error)
	// ListByUser returns available and active records, newest first.
	ListByUser(ctx context.Context, userID string) ([]PowerUp, error)
	// ExpireStale marks active records with expires_at <= now as expired.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	CountActivated(ctx context.Context, userID string) (int, error)
}
