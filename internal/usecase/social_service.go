package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/social"
)

type FriendshipInput struct {
	RequesterID string
	AddresseeID string
	Status      social.Status
}

type SocialService struct {
	friendships social.Repository
	accounts    account.Repository
	now         func() time.Time
}

func NewSocialService(friendships social.Repository, accounts account.Repository) *SocialService {
	return &SocialService{friendships: friendships, accounts: accounts, now: time.Now}
}

// SetFriendship records the latest status of a friendship between two users.
func (s *SocialService) SetFriendship(ctx context.Context, input FriendshipInput) (social.Friendship, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SocialService.SetFriendship")
	defer span.End()

	input.RequesterID = strings.TrimSpace(input.RequesterID)
	input.AddresseeID = strings.TrimSpace(input.AddresseeID)
	if input.Status == "" {
		input.Status = social.StatusPending
	}
	if !input.Status.Valid() {
		return social.Friendship{}, fmt.Errorf("%w: invalid friendship status %q", ErrInvalidInput, input.Status)
	}
	if input.RequesterID != "" && input.RequesterID == input.AddresseeID {
		return social.Friendship{}, fmt.Errorf("%w: cannot befriend yourself", ErrInvalidInput)
	}
	for _, userID := range []string{input.RequesterID, input.AddresseeID} {
		if _, err := loadAccount(ctx, s.accounts, userID); err != nil {
			return social.Friendship{}, err
		}
	}

	now := s.now().UTC()
	item := social.Friendship{
		RequesterID: input.RequesterID,
		AddresseeID: input.AddresseeID,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.friendships.Upsert(ctx, item); err != nil {
		return social.Friendship{}, fmt.Errorf("upsert friendship: %w", err)
	}
	return item, nil
}
