package social

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusBlocked:
		return true
	default:
		return false
	}
}

// Friendship is directed by who asked, but acceptance counts for both users.
type Friendship struct {
	RequesterID string
	AddresseeID string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	Upsert(ctx context.Context, f Friendship) error
	// ListAcceptedFriendIDs returns the other side of every accepted
	// friendship involving userID, in either direction.
	ListAcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
	CountAccepted(ctx context.Context, userID string) (int, error)
}
