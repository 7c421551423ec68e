package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/squad"
)

type SquadRepository struct {
	s *Store
}

func (r *SquadRepository) Create(_ context.Context, sq squad.Squad, leader squad.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.squads[sq.ID]; exists {
		return fmt.Errorf("squad %s already exists", sq.ID)
	}
	leader.SquadID = sq.ID
	sq.MemberCount = 1
	r.s.squads[sq.ID] = sq
	r.s.members[sq.ID] = map[string]squad.Member{leader.UserID: leader}
	return nil
}

func (r *SquadRepository) GetByID(_ context.Context, squadID string) (squad.Squad, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sq, ok := r.s.squads[squadID]
	return sq, ok, nil
}

func (r *SquadRepository) AddMember(_ context.Context, m squad.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sq, ok := r.s.squads[m.SquadID]
	if !ok {
		return fmt.Errorf("squad %s not found", m.SquadID)
	}
	members := r.s.members[m.SquadID]
	if _, exists := members[m.UserID]; exists {
		return nil
	}
	members[m.UserID] = m
	sq.MemberCount = len(members)
	r.s.squads[m.SquadID] = sq
	return nil
}

func (r *SquadRepository) ListMembershipsByUser(_ context.Context, userID string) ([]squad.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]squad.Member, 0)
	for _, members := range r.s.members {
		if m, ok := members[userID]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SquadID < out[j].SquadID })
	return out, nil
}

func (r *SquadRepository) AddContribution(_ context.Context, squadID, userID string, points int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sq, ok := r.s.squads[squadID]
	if !ok {
		return fmt.Errorf("squad %s not found", squadID)
	}
	m, ok := r.s.members[squadID][userID]
	if !ok {
		return fmt.Errorf("user %s is not a member of squad %s", userID, squadID)
	}
	m.PointsContributed += points
	m.WeeklyPointsContributed += points
	sq.TotalPoints += points
	sq.WeeklyPoints += points
	sq.UpdatedAt = r.s.timestamp()
	r.s.members[squadID][userID] = m
	r.s.squads[squadID] = sq
	return nil
}

func (r *SquadRepository) ListRanked(_ context.Context, metric account.Metric, limit, offset int) ([]squad.Squad, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]squad.Squad, 0, len(r.s.squads))
	for _, sq := range r.s.squads {
		items = append(items, sq)
	}
	sort.Slice(items, func(i, j int) bool {
		return leaderboard.Dominates(squadStanding(items[i], metric), squadStanding(items[j], metric))
	})

	if offset >= len(items) {
		return []squad.Squad{}, nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]squad.Squad(nil), items[offset:end]...), nil
}

func (r *SquadRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.squads), nil
}

func (r *SquadRepository) CountDominating(_ context.Context, metric account.Metric, ref squad.Squad) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	refStanding := squadStanding(ref, metric)
	count := 0
	for _, sq := range r.s.squads {
		if sq.ID != ref.ID && leaderboard.Dominates(squadStanding(sq, metric), refStanding) {
			count++
		}
	}
	return count, nil
}

func (r *SquadRepository) ResetWeekly(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var reset int64
	for id, sq := range r.s.squads {
		if sq.WeeklyPoints != 0 {
			reset++
		}
		sq.WeeklyPoints = 0
		r.s.squads[id] = sq
		for userID, m := range r.s.members[id] {
			m.WeeklyPointsContributed = 0
			r.s.members[id][userID] = m
		}
	}
	return reset, nil
}

func squadStanding(sq squad.Squad, metric account.Metric) leaderboard.Standing {
	points := sq.TotalPoints
	if metric == account.MetricWeekly {
		points = sq.WeeklyPoints
	}
	return leaderboard.Standing{ID: sq.ID, Points: points, CreatedAt: sq.CreatedAt}
}
