package postgres

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
)

var accountColumns = []string{
	"user_id",
	"username",
	"city",
	"total_points",
	"weekly_points",
	"last_week_points",
	"current_streak",
	"longest_streak",
	"last_submission_date",
	"weekly_rank",
	"last_week_rank",
	"week_start_date",
	"created_at",
	"updated_at",
}

type accountInsertModel struct {
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	City      string    `db:"city"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type closingStandingRow struct {
	accountTableModel
	ClosingPoints int64 `db:"closing_points"`
}

type accountTableModel struct {
	UserID             string     `db:"user_id"`
	Username           string     `db:"username"`
	City               string     `db:"city"`
	TotalPoints        int64      `db:"total_points"`
	WeeklyPoints       int64      `db:"weekly_points"`
	LastWeekPoints     int64      `db:"last_week_points"`
	CurrentStreak      int        `db:"current_streak"`
	LongestStreak      int        `db:"longest_streak"`
	LastSubmissionDate *time.Time `db:"last_submission_date"`
	WeeklyRank         *int       `db:"weekly_rank"`
	LastWeekRank       *int       `db:"last_week_rank"`
	WeekStartDate      *time.Time `db:"week_start_date"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func accountFromRow(row accountTableModel) account.Account {
	return account.Account{
		UserID:             row.UserID,
		Username:           row.Username,
		City:               row.City,
		TotalPoints:        row.TotalPoints,
		WeeklyPoints:       row.WeeklyPoints,
		LastWeekPoints:     row.LastWeekPoints,
		CurrentStreak:      row.CurrentStreak,
		LongestStreak:      row.LongestStreak,
		LastSubmissionDate: utcPtr(row.LastSubmissionDate),
		WeeklyRank:         row.WeeklyRank,
		LastWeekRank:       row.LastWeekRank,
		WeekStartDate:      utcPtr(row.WeekStartDate),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
