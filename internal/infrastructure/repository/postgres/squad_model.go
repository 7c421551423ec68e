package postgres

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/squad"
)

var squadColumns = []string{
	"id",
	"name",
	"city",
	"leader_id",
	"total_points",
	"weekly_points",
	"(SELECT COUNT(*) FROM squad_members m WHERE m.squad_id = squads.id) AS member_count",
	"created_at",
	"updated_at",
}

type squadInsertModel struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	City         string    `db:"city"`
	LeaderID     string    `db:"leader_id"`
	TotalPoints  int64     `db:"total_points"`
	WeeklyPoints int64     `db:"weekly_points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type squadTableModel struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	City         string    `db:"city"`
	LeaderID     string    `db:"leader_id"`
	TotalPoints  int64     `db:"total_points"`
	WeeklyPoints int64     `db:"weekly_points"`
	MemberCount  int       `db:"member_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type squadMemberModel struct {
	SquadID                 string    `db:"squad_id"`
	UserID                  string    `db:"user_id"`
	Role                    string    `db:"role"`
	PointsContributed       int64     `db:"points_contributed"`
	WeeklyPointsContributed int64     `db:"weekly_points_contributed"`
	JoinedAt                time.Time `db:"joined_at"`
}

func squadFromRow(row squadTableModel) squad.Squad {
	return squad.Squad{
		ID:           row.ID,
		Name:         row.Name,
		City:         row.City,
		LeaderID:     row.LeaderID,
		TotalPoints:  row.TotalPoints,
		WeeklyPoints: row.WeeklyPoints,
		MemberCount:  row.MemberCount,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func memberModel(m squad.Member) squadMemberModel {
	joinedAt := m.JoinedAt.UTC()
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	role := m.Role
	if role == "" {
		role = squad.RoleMember
	}
	return squadMemberModel{
		SquadID:                 m.SquadID,
		UserID:                  m.UserID,
		Role:                    string(role),
		PointsContributed:       m.PointsContributed,
		WeeklyPointsContributed: m.WeeklyPointsContributed,
		JoinedAt:                joinedAt,
	}
}
