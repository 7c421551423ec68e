package submission

import (
	"context"
	"time"
)

type Verifier interface {
	Verify(ctx context.Context, req VerificationRequest) (VerificationResult, error)
}

type Repository interface {
	Create(ctx context.Context, s Submission) error
	GetByID(ctx context.Context, submissionID string) (Submission, bool, error)
	// Resolve moves a pending submission to outcome.Status. It reports false
	// when the submission is no longer pending.
	Resolve(ctx context.Context, submissionID string, outcome Outcome) (bool, error)
	// SetPointsAwarded records the points granted for an approved submission.
	SetPointsAwarded(ctx context.Context, submissionID string, points int64) error
	// Reopen moves an approved submission with no points back to pending and
	// releases its first-completion claim.
	Reopen(ctx context.Context, submissionID string) error
	RecordAttempt(ctx context.Context, submissionID string, at time.Time) error
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]Submission, error)

	// ClaimFirstCompletion marks an approved submission as the first completion
	// of questID. It reports false when another submission already holds the
	// claim.
	ClaimFirstCompletion(ctx context.Context, questID, submissionID string) (bool, error)
	CountApprovedByUser(ctx context.Context, userID string) (int, error)
	CountPerfectPhotos(ctx context.Context, userID string, minScore float64) (int, error)
	CountApprovedByWindow(ctx context.Context, userID string) (map[string]int, error)
}
