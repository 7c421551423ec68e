package memory

import (
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
)

const (
	SeedSquadLisbonWalkers = "sq-lisbon-walkers"
	SeedSquadPortoNomads   = "sq-porto-nomads"
)

// SeedProfiles is the demo population loaded when seeding is enabled.
func SeedProfiles() []account.Profile {
	return []account.Profile{
		{UserID: "demo-ana", Username: "ana", City: "Lisbon"},
		{UserID: "demo-bruno", Username: "bruno", City: "Lisbon"},
		{UserID: "demo-carla", Username: "carla", City: "Porto"},
		{UserID: "demo-diogo", Username: "diogo", City: "Porto"},
		{UserID: "demo-eva", Username: "eva", City: "Faro"},
	}
}

func SeedSquads() []squad.Squad {
	return []squad.Squad{
		{ID: SeedSquadLisbonWalkers, Name: "Lisbon Walkers", City: "Lisbon", LeaderID: "demo-ana"},
		{ID: SeedSquadPortoNomads, Name: "Porto Nomads", City: "Porto", LeaderID: "demo-carla"},
	}
}

func SeedMembers() []squad.Member {
	return []squad.Member{
		{SquadID: SeedSquadLisbonWalkers, UserID: "demo-ana", Role: squad.RoleLeader},
		{SquadID: SeedSquadLisbonWalkers, UserID: "demo-bruno", Role: squad.RoleMember},
		{SquadID: SeedSquadPortoNomads, UserID: "demo-carla", Role: squad.RoleLeader},
		{SquadID: SeedSquadPortoNomads, UserID: "demo-diogo", Role: squad.RoleAdmin},
	}
}

func SeedFriendships() []social.Friendship {
	return []social.Friendship{
		{RequesterID: "demo-ana", AddresseeID: "demo-bruno", Status: social.StatusAccepted},
		{RequesterID: "demo-ana", AddresseeID: "demo-carla", Status: social.StatusAccepted},
		{RequesterID: "demo-eva", AddresseeID: "demo-ana", Status: social.StatusPending},
	}
}

// LoadSeed fills an empty store with the demo population. Accounts created
// earlier in the slice win creation-time ties.
func (s *Store) LoadSeed(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts) > 0 {
		return
	}
	at = at.UTC()
	for i, p := range SeedProfiles() {
		createdAt := at.Add(time.Duration(i) * time.Second)
		s.accounts[p.UserID] = account.Account{
			UserID:    p.UserID,
			Username:  p.Username,
			City:      p.City,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
	}
	for _, sq := range SeedSquads() {
		sq.CreatedAt = at
		sq.UpdatedAt = at
		s.squads[sq.ID] = sq
		s.members[sq.ID] = make(map[string]squad.Member)
	}
	for _, m := range SeedMembers() {
		m.JoinedAt = at
		s.members[m.SquadID][m.UserID] = m
		sq := s.squads[m.SquadID]
		sq.MemberCount = len(s.members[m.SquadID])
		s.squads[m.SquadID] = sq
	}
	for _, f := range SeedFriendships() {
		f.CreatedAt = at
		f.UpdatedAt = at
		s.friendships[friendshipKey(f.RequesterID, f.AddresseeID)] = f
	}
}
