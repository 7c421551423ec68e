package submission

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/scoring"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PerfectPhotoScore is the verification score counted as a perfect photo.
const PerfectPhotoScore = 95

// Submission is a quest completion attempt. Quest and POI data are snapshotted
// from the request since quest management lives elsewhere.
type Submission struct {
	ID                 string
	UserID             string
	QuestID            string
	POIID              string
	Status             Status
	BasePoints         int64
	Difficulty         scoring.Difficulty
	PhotoURL           string
	ReferencePhotoURL  string
	Latitude           float64
	Longitude          float64
	VerificationRadius float64
	TimeWindow         string
	VerificationScore  *float64
	RejectionReason    string
	PointsAwarded      int64
	// FirstCompletion marks the approved submission holding its quest's
	// first-completion claim. At most one per quest.
	FirstCompletion    bool
	Attempts           int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	VerifiedAt         *time.Time
}

type VerificationRequest struct {
	SubmissionID       string
	POIID              string
	PhotoURL           string
	ReferencePhotoURL  string
	Latitude           float64
	Longitude          float64
	VerificationRadius float64
}

// VerificationResult is the opaque verdict of the verification service.
type VerificationResult struct {
	Passed          bool
	Score           float64
	RejectionReason string
	Details         map[string]any
}

// Outcome is the resolved state of a verification attempt.
type Outcome struct {
	Status          Status
	Score           float64
	RejectionReason string
	PointsAwarded   int64
	VerifiedAt      time.Time
}
