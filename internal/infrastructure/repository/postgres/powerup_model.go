package postgres

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/powerup"
)

var powerUpColumns = []string{
	"id",
	"user_id",
	"type",
	"multiplier",
	"duration_minutes",
	"status",
	"activated_at",
	"expires_at",
	"created_at",
	"updated_at",
}

type powerUpInsertModel struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Type            string    `db:"type"`
	Multiplier      float64   `db:"multiplier"`
	DurationMinutes int       `db:"duration_minutes"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type powerUpTableModel struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Type            string     `db:"type"`
	Multiplier      float64    `db:"multiplier"`
	DurationMinutes int        `db:"duration_minutes"`
	Status          string     `db:"status"`
	ActivatedAt     *time.Time `db:"activated_at"`
	ExpiresAt       *time.Time `db:"expires_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func powerUpFromRow(row powerUpTableModel) powerup.PowerUp {
	return powerup.PowerUp{
		ID:              row.ID,
		UserID:          row.UserID,
		Type:            powerup.Type(row.Type),
		Multiplier:      row.Multiplier,
		DurationMinutes: row.DurationMinutes,
		Status:          powerup.Status(row.Status),
		ActivatedAt:     utcPtr(row.ActivatedAt),
		ExpiresAt:       utcPtr(row.ExpiresAt),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func powerUpsFromRows(rows []powerUpTableModel) []powerup.PowerUp {
	out := make([]powerup.PowerUp, 0, len(rows))
	for _, row := range rows {
		out = append(out, powerUpFromRow(row))
	}
	return out
}
