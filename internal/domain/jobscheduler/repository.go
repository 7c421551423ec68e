package jobscheduler

import "context"

type Repository interface {
	// UpsertEvent records the latest status of a dispatch. A terminal status
	// (completed, failed, skipped) is never downgraded back to sent.
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListRecent(ctx context.Context, jobName string, limit int) ([]DispatchEvent, error)
}
