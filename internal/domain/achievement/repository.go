package achievement

import "context"

type Repository interface {
	ListUnlocked(ctx context.Context, userID string) ([]UserAchievement, error)
	// Unlock stores ua and credits ua.RewardPoints to the account in one
	// transaction. A storage-level unique key on (user, achievement) makes it
	// report false, without crediting, when the pair already exists.
	Unlock(ctx context.Context, ua UserAchievement) (bool, error)
}
