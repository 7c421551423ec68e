package postgres

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/domain/submission"
)

var submissionColumns = []string{
	"id",
	"user_id",
	"quest_id",
	"poi_id",
	"status",
	"base_points",
	"difficulty",
	"photo_url",
	"reference_photo_url",
	"latitude",
	"longitude",
	"verification_radius",
	"time_window",
	"verification_score",
	"rejection_reason",
	"points_awarded",
	"first_completion",
	"attempts",
	"created_at",
	"updated_at",
	"verified_at",
}

type submissionInsertModel struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	QuestID            string    `db:"quest_id"`
	POIID              string    `db:"poi_id"`
	Status             string    `db:"status"`
	BasePoints         int64     `db:"base_points"`
	Difficulty         string    `db:"difficulty"`
	PhotoURL           string    `db:"photo_url"`
	ReferencePhotoURL  string    `db:"reference_photo_url"`
	Latitude           float64   `db:"latitude"`
	Longitude          float64   `db:"longitude"`
	VerificationRadius float64   `db:"verification_radius"`
	TimeWindow         string    `db:"time_window"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type submissionTableModel struct {
	ID                 string     `db:"id"`
	UserID             string     `db:"user_id"`
	QuestID            string     `db:"quest_id"`
	POIID              string     `db:"poi_id"`
	Status             string     `db:"status"`
	BasePoints         int64      `db:"base_points"`
	Difficulty         string     `db:"difficulty"`
	PhotoURL           string     `db:"photo_url"`
	ReferencePhotoURL  string     `db:"reference_photo_url"`
	Latitude           float64    `db:"latitude"`
	Longitude          float64    `db:"longitude"`
	VerificationRadius float64    `db:"verification_radius"`
	TimeWindow         string     `db:"time_window"`
	VerificationScore  *float64   `db:"verification_score"`
	RejectionReason    string     `db:"rejection_reason"`
	PointsAwarded      int64      `db:"points_awarded"`
	FirstCompletion    bool       `db:"first_completion"`
	Attempts           int        `db:"attempts"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	VerifiedAt         *time.Time `db:"verified_at"`
}

func submissionFromRow(row submissionTableModel) submission.Submission {
	return submission.Submission{
		ID:                 row.ID,
		UserID:             row.UserID,
		QuestID:            row.QuestID,
		POIID:              row.POIID,
		Status:             submission.Status(row.Status),
		BasePoints:         row.BasePoints,
		Difficulty:         scoring.Difficulty(row.Difficulty),
		PhotoURL:           row.PhotoURL,
		ReferencePhotoURL:  row.ReferencePhotoURL,
		Latitude:           row.Latitude,
		Longitude:          row.Longitude,
		VerificationRadius: row.VerificationRadius,
		TimeWindow:         row.TimeWindow,
		VerificationScore:  row.VerificationScore,
		RejectionReason:    row.RejectionReason,
		PointsAwarded:      row.PointsAwarded,
		FirstCompletion:    row.FirstCompletion,
		Attempts:           row.Attempts,
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
		VerifiedAt:         utcPtr(row.VerifiedAt),
	}
}
