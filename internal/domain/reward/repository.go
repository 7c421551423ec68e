package reward

import (
	"context"
	"time"
)

type Repository interface {
	// ClaimRun inserts a running record for week. It reports false when a run
	// for that week already exists.
	ClaimRun(ctx context.Context, week, startedAt time.Time) (bool, error)
	CompleteRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, week time.Time) (Run, bool, error)
	RecordBadge(ctx context.Context, award BadgeAward) error
	ListBadgesByUser(ctx context.Context, userID string) ([]BadgeAward, error)
}
