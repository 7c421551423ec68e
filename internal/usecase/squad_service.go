package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/platform/id"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type CreateSquadInput struct {
	LeaderID string
	Name     string
	City     string
}

type JoinSquadInput struct {
	SquadID string
	UserID  string
	Role    squad.Role
}

type SquadService struct {
	squads   squad.Repository
	accounts account.Repository
	ids      id.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewSquadService(squads squad.Repository, accounts account.Repository, ids id.Generator, logger *logging.Logger) *SquadService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &SquadService{
		squads:   squads,
		accounts: accounts,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SquadService) CreateSquad(ctx context.Context, input CreateSquadInput) (squad.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SquadService.CreateSquad")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return squad.Squad{}, fmt.Errorf("%w: squad name is required", ErrInvalidInput)
	}
	leader, err := loadAccount(ctx, s.accounts, input.LeaderID)
	if err != nil {
		return squad.Squad{}, err
	}

	squadID, err := s.ids.NewID()
	if err != nil {
		return squad.Squad{}, fmt.Errorf("generate squad id: %w", err)
	}

	now := s.now().UTC()
	city := strings.TrimSpace(input.City)
	if city == "" {
		city = leader.City
	}
	item := squad.Squad{
		ID:          squadID,
		Name:        input.Name,
		City:        city,
		LeaderID:    leader.UserID,
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.squads.Create(ctx, item, squad.Member{
		SquadID:  squadID,
		UserID:   leader.UserID,
		Role:     squad.RoleLeader,
		JoinedAt: now,
	}); err != nil {
		return squad.Squad{}, fmt.Errorf("create squad: %w", err)
	}

	s.logger.InfoContext(ctx, "squad created", "squad_id", squadID, "leader_id", leader.UserID)
	return item, nil
}

// JoinSquad adds a member. Joining twice is a no-op.
func (s *SquadService) JoinSquad(ctx context.Context, input JoinSquadInput) (squad.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SquadService.JoinSquad")
	defer span.End()

	if input.Role == "" {
		input.Role = squad.RoleMember
	}
	if !input.Role.Valid() || input.Role == squad.RoleLeader {
		return squad.Squad{}, fmt.Errorf("%w: invalid member role %q", ErrInvalidInput, input.Role)
	}
	item, err := s.Get(ctx, input.SquadID)
	if err != nil {
		return squad.Squad{}, err
	}
	member, err := loadAccount(ctx, s.accounts, input.UserID)
	if err != nil {
		return squad.Squad{}, err
	}

	if err := s.squads.AddMember(ctx, squad.Member{
		SquadID:  item.ID,
		UserID:   member.UserID,
		Role:     input.Role,
		JoinedAt: s.now().UTC(),
	}); err != nil {
		return squad.Squad{}, fmt.Errorf("add squad member: %w", err)
	}
	return s.Get(ctx, item.ID)
}

func (s *SquadService) Get(ctx context.Context, squadID string) (squad.Squad, error) {
	squadID = strings.TrimSpace(squadID)
	if squadID == "" {
		return squad.Squad{}, fmt.Errorf("%w: squad id is required", ErrInvalidInput)
	}
	item, ok, err := s.squads.GetByID(ctx, squadID)
	if err != nil {
		return squad.Squad{}, fmt.Errorf("get squad: %w", err)
	}
	if !ok {
		return squad.Squad{}, fmt.Errorf("%w: squad=%s", ErrNotFound, squadID)
	}
	return item, nil
}
