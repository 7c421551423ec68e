package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type UpsertProfileInput struct {
	UserID   string
	Username string
	City     string
}

type AccountService struct {
	accounts account.Repository
	ranker   ranker
	logger   *logging.Logger
	now      func() time.Time
}

func NewAccountService(accounts account.Repository, index leaderboard.RankIndex, logger *logging.Logger) *AccountService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AccountService{
		accounts: accounts,
		ranker:   newRanker(accounts, index, nil, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// UpsertProfile creates the account on first sight and refreshes the mirrored
// profile fields afterwards. Counters are never touched here.
func (s *AccountService) UpsertProfile(ctx context.Context, input UpsertProfileInput) (account.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.UpsertProfile")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Username = strings.TrimSpace(input.Username)
	input.City = strings.TrimSpace(input.City)
	if input.UserID == "" {
		return account.Account{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Username == "" {
		return account.Account{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	previous, existed, err := s.accounts.GetByID(ctx, input.UserID)
	if err != nil {
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}

	acc, err := s.accounts.UpsertProfile(ctx, account.Profile{
		UserID:   input.UserID,
		Username: input.Username,
		City:     input.City,
	}, s.now().UTC())
	if err != nil {
		return account.Account{}, fmt.Errorf("upsert account profile: %w", err)
	}

	previousCity := ""
	if existed {
		previousCity = previous.City
	}
	s.ranker.syncIndex(ctx, acc, previousCity)

	if !existed {
		s.logger.InfoContext(ctx, "account created", "user_id", acc.UserID, "city", acc.City)
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, userID string) (account.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Get")
	defer span.End()

	return loadAccount(ctx, s.accounts, userID)
}

func loadAccount(ctx context.Context, accounts account.Repository, userID string) (account.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return account.Account{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	acc, ok, err := accounts.GetByID(ctx, userID)
	if err != nil {
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	if !ok {
		return account.Account{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return acc, nil
}
