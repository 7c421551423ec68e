package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/questrank/internal/domain/social"
)

type FriendshipRepository struct {
	s *Store
}

func (r *FriendshipRepository) Upsert(_ context.Context, f social.Friendship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := friendshipKey(f.RequesterID, f.AddresseeID)
	if existing, ok := r.s.friendships[key]; ok {
		f.CreatedAt = existing.CreatedAt
	}
	r.s.friendships[key] = f
	return nil
}

func (r *FriendshipRepository) ListAcceptedFriendIDs(_ context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]string, 0)
	for _, f := range r.s.friendships {
		if f.Status != social.StatusAccepted {
			continue
		}
		switch userID {
		case f.RequesterID:
			out = append(out, f.AddresseeID)
		case f.AddresseeID:
			out = append(out, f.RequesterID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *FriendshipRepository) CountAccepted(ctx context.Context, userID string) (int, error) {
	ids, err := r.ListAcceptedFriendIDs(ctx, userID)
	return len(ids), err
}

// friendshipKey is direction-agnostic: one row per pair.
func friendshipKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "::" + b
}
