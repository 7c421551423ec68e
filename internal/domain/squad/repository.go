package squad

import (
	"context"

	"github.com/riskibarqy/questrank/internal/domain/account"
)

type Repository interface {
	Create(ctx context.Context, s Squad, leader Member) error
	GetByID(ctx context.Context, squadID string) (Squad, bool, error)
	AddMember(ctx context.Context, m Member) error
	ListMembershipsByUser(ctx context.Context, userID string) ([]Member, error)
	// AddContribution credits points to both the squad and the member row.
	AddContribution(ctx context.Context, squadID, userID string, points int64) error
	// ListRanked orders squads by metric DESC, created_at ASC, id ASC and
	// fills MemberCount.
	ListRanked(ctx context.Context, metric account.Metric, limit, offset int) ([]Squad, error)
	Count(ctx context.Context) (int, error)
	CountDominating(ctx context.Context, metric account.Metric, ref Squad) (int, error)
	// ResetWeekly zeroes squad weekly totals and member weekly contributions.
	ResetWeekly(ctx context.Context) (int64, error)
}
