package squad

import "time"

type Role string

const (
	RoleLeader Role = "leader"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleAdmin || r == RoleMember
}

// Squad totals equal the sum of member contributions; both sides are updated
// additively in the same transaction.
type Squad struct {
	ID           string
	Name         string
	City         string
	LeaderID     string
	TotalPoints  int64
	WeeklyPoints int64
	MemberCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Member struct {
	SquadID                 string
	UserID                  string
	Role                    Role
	PointsContributed       int64
	WeeklyPointsContributed int64
	JoinedAt                time.Time
}
