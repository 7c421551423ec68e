package leaderboard

import "context"

// RankIndex is an order-statistics structure answering rank queries without
// scanning the account table. Implementations must honour Dominates.
type RankIndex interface {
	Upsert(ctx context.Context, board string, s Standing) error
	Remove(ctx context.Context, board, id string) error
	// Rank returns the 1-based rank of id and false when id is not indexed.
	Rank(ctx context.Context, board, id string) (int, bool, error)
	Count(ctx context.Context, board string) (int, error)
	// Top returns ids in rank order for positions [offset, offset+limit).
	Top(ctx context.Context, board string, limit, offset int) ([]string, error)
	Reset(ctx context.Context, board string) error
}
