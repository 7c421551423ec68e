package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/domain/scoring"
	"github.com/riskibarqy/questrank/internal/platform/id"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type PowerUpView struct {
	PowerUp          powerup.PowerUp
	Name             string
	Description      string
	RemainingMinutes int
}

type ActivePowerUps struct {
	Items           []PowerUpView
	TotalMultiplier float64
}

type PurchasePowerUpResult struct {
	PowerUp         powerup.PowerUp
	Cost            int64
	RemainingPoints int64
}

type PowerUpService struct {
	catalog  powerup.Catalog
	powerUps powerup.Repository
	accounts account.Repository
	ids      id.Generator
	ranker   ranker
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time
}

func NewPowerUpService(
	catalog powerup.Catalog,
	powerUps powerup.Repository,
	accounts account.Repository,
	ids id.Generator,
	index leaderboard.RankIndex,
	recorder Recorder,
	logger *logging.Logger,
) *PowerUpService {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &PowerUpService{
		catalog:  catalog,
		powerUps: powerUps,
		accounts: accounts,
		ids:      ids,
		ranker:   newRanker(accounts, index, recorder, logger),
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *PowerUpService) Catalog() []powerup.Definition {
	return s.catalog.Definitions()
}

// ListByUser returns the user's available and active power-ups. Records whose
// expiry passed before the sweep ran are left out.
func (s *PowerUpService) ListByUser(ctx context.Context, userID string) ([]PowerUpView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PowerUpService.ListByUser")
	defer span.End()

	if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
		return nil, err
	}
	items, err := s.powerUps.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list power-ups: %w", err)
	}

	now := s.now().UTC()
	out := make([]PowerUpView, 0, len(items))
	for _, item := range items {
		if item.Status == powerup.StatusActive && !item.ActiveAt(now) {
			continue
		}
		out = append(out, s.view(item, now))
	}
	return out, nil
}

func (s *PowerUpService) Active(ctx context.Context, userID string) (ActivePowerUps, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PowerUpService.Active")
	defer span.End()

	if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
		return ActivePowerUps{}, err
	}

	now := s.now().UTC()
	items, err := s.powerUps.ListActive(ctx, userID, now)
	if err != nil {
		return ActivePowerUps{}, fmt.Errorf("list active power-ups: %w", err)
	}

	out := ActivePowerUps{Items: make([]PowerUpView, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, s.view(item, now))
	}
	out.TotalMultiplier = scoring.PowerUpMultiplier(powerup.Multipliers(items, now))
	return out, nil
}

// Purchase debits the catalog cost and stores an available power-up in one
// storage transaction.
func (s *PowerUpService) Purchase(ctx context.Context, userID string, powerUpType powerup.Type) (PurchasePowerUpResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PowerUpService.Purchase", userAttr(userID))
	defer span.End()

	def, ok := s.catalog.Lookup(powerup.Type(strings.TrimSpace(string(powerUpType))))
	if !ok {
		return PurchasePowerUpResult{}, fmt.Errorf("%w: unknown power-up type %q", ErrInvalidInput, powerUpType)
	}

	acc, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return PurchasePowerUpResult{}, err
	}
	if acc.TotalPoints < def.Cost {
		return PurchasePowerUpResult{}, &InsufficientPointsError{Required: def.Cost, Available: acc.TotalPoints}
	}

	powerUpID, err := s.ids.NewID()
	if err != nil {
		return PurchasePowerUpResult{}, fmt.Errorf("generate power-up id: %w", err)
	}

	now := s.now().UTC()
	item := powerup.PowerUp{
		ID:              powerUpID,
		UserID:          acc.UserID,
		Type:            def.Type,
		Multiplier:      def.Multiplier,
		DurationMinutes: def.DurationMinutes,
		Status:          powerup.StatusAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	remaining, err := s.powerUps.Purchase(ctx, item, def.Cost)
	if errors.Is(err, account.ErrInsufficientBalance) {
		available := acc.TotalPoints
		if latest, ok, getErr := s.accounts.GetByID(ctx, acc.UserID); getErr == nil && ok {
			available = latest.TotalPoints
		}
		return PurchasePowerUpResult{}, &InsufficientPointsError{Required: def.Cost, Available: available}
	}
	if err != nil {
		return PurchasePowerUpResult{}, fmt.Errorf("purchase power-up: %w", err)
	}

	if latest, ok, err := s.accounts.GetByID(ctx, acc.UserID); err == nil && ok {
		s.ranker.syncIndex(ctx, latest, latest.City)
	}
	s.recorder.PowerUp(string(def.Type), "purchase")
	s.logger.InfoContext(ctx, "power-up purchased", "user_id", acc.UserID, "type", def.Type, "cost", def.Cost)

	return PurchasePowerUpResult{PowerUp: item, Cost: def.Cost, RemainingPoints: remaining}, nil
}

// Activate starts the timer of an available power-up. Activating a record
// that is not available reports ErrNotFound.
func (s *PowerUpService) Activate(ctx context.Context, userID, powerUpID string) (PowerUpView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PowerUpService.Activate")
	defer span.End()

	powerUpID = strings.TrimSpace(powerUpID)
	if powerUpID == "" {
		return PowerUpView{}, fmt.Errorf("%w: power-up id is required", ErrInvalidInput)
	}
	if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
		return PowerUpView{}, err
	}

	item, ok, err := s.powerUps.GetByID(ctx, userID, powerUpID)
	if err != nil {
		return PowerUpView{}, fmt.Errorf("get power-up: %w", err)
	}
	if !ok || item.Status != powerup.StatusAvailable {
		return PowerUpView{}, fmt.Errorf("%w: available power-up=%s", ErrNotFound, powerUpID)
	}

	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(item.DurationMinutes) * time.Minute)
	activated, ok, err := s.powerUps.Activate(ctx, userID, powerUpID, now, expiresAt)
	if err != nil {
		return PowerUpView{}, fmt.Errorf("activate power-up: %w", err)
	}
	if !ok {
		return PowerUpView{}, fmt.Errorf("%w: available power-up=%s", ErrNotFound, powerUpID)
	}

	s.recorder.PowerUp(string(activated.Type), "activate")
	return s.view(activated, now), nil
}

// ExpireStale marks active power-ups past their expiry as expired.
func (s *PowerUpService) ExpireStale(ctx context.Context) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PowerUpService.ExpireStale")
	defer span.End()

	expired, err := s.powerUps.ExpireStale(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire stale power-ups: %w", err)
	}
	if expired > 0 {
		s.logger.InfoContext(ctx, "power-ups expired", "count", expired)
	}
	return expired, nil
}

func (s *PowerUpService) view(item powerup.PowerUp, now time.Time) PowerUpView {
	out := PowerUpView{PowerUp: item, RemainingMinutes: item.RemainingMinutes(now)}
	if def, ok := s.catalog.Lookup(item.Type); ok {
		out.Name = def.Name
		out.Description = def.Description
	}
	return out
}
