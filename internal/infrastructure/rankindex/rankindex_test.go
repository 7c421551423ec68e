package rankindex

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
)

func newRedisIndex(t *testing.T) *Redis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test")
}

func indexes(t *testing.T) map[string]leaderboard.RankIndex {
	return map[string]leaderboard.RankIndex{
		"memory": NewMemory(),
		"redis":  newRedisIndex(t),
	}
}

func TestRankIndex_TieBreaks(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	standings := []leaderboard.Standing{
		{ID: "u-late", Points: 100, CreatedAt: base.Add(time.Hour)},
		{ID: "u-b", Points: 100, CreatedAt: base},
		{ID: "u-a", Points: 100, CreatedAt: base},
		// Same second as u-a but later nanos: composite scores collide.
		{ID: "u-nanos", Points: 100, CreatedAt: base.Add(500 * time.Millisecond)},
		{ID: "u-top", Points: 250, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "u-low", Points: 5, CreatedAt: base},
	}
	want := []string{"u-top", "u-a", "u-b", "u-nanos", "u-late", "u-low"}

	for name, index := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, s := range standings {
				if err := index.Upsert(ctx, leaderboard.BoardGlobal, s); err != nil {
					t.Fatalf("upsert %s: %v", s.ID, err)
				}
			}

			for i, id := range want {
				rank, ok, err := index.Rank(ctx, leaderboard.BoardGlobal, id)
				if err != nil {
					t.Fatalf("rank %s: %v", id, err)
				}
				if !ok || rank != i+1 {
					t.Fatalf("rank %s: got %d,%v want %d", id, rank, ok, i+1)
				}
			}

			top, err := index.Top(ctx, leaderboard.BoardGlobal, 3, 1)
			if err != nil {
				t.Fatalf("top: %v", err)
			}
			if fmt.Sprint(top) != fmt.Sprint(want[1:4]) {
				t.Fatalf("top window: got %v want %v", top, want[1:4])
			}

			count, err := index.Count(ctx, leaderboard.BoardGlobal)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != len(want) {
				t.Fatalf("count: got %d want %d", count, len(want))
			}
		})
	}
}

func TestRankIndex_UpsertMovesAndRemoveDrops(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for name, index := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			board := leaderboard.CityBoard("Lisbon")
			_ = index.Upsert(ctx, board, leaderboard.Standing{ID: "u-1", Points: 10, CreatedAt: base})
			_ = index.Upsert(ctx, board, leaderboard.Standing{ID: "u-2", Points: 20, CreatedAt: base})

			if err := index.Upsert(ctx, board, leaderboard.Standing{ID: "u-1", Points: 30, CreatedAt: base}); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			rank, _, err := index.Rank(ctx, board, "u-1")
			if err != nil {
				t.Fatalf("rank: %v", err)
			}
			if rank != 1 {
				t.Fatalf("expected u-1 to move to rank 1, got %d", rank)
			}
			count, _ := index.Count(ctx, board)
			if count != 2 {
				t.Fatalf("expected upsert to replace, got count %d", count)
			}

			if err := index.Remove(ctx, board, "u-1"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if _, ok, _ := index.Rank(ctx, board, "u-1"); ok {
				t.Fatalf("expected removed member to be unindexed")
			}
			rank, ok, _ := index.Rank(ctx, board, "u-2")
			if !ok || rank != 1 {
				t.Fatalf("expected u-2 to be first, got %d,%v", rank, ok)
			}

			if err := index.Reset(ctx, board); err != nil {
				t.Fatalf("reset: %v", err)
			}
			count, _ = index.Count(ctx, board)
			if count != 0 {
				t.Fatalf("expected empty board after reset, got %d", count)
			}
			top, err := index.Top(ctx, board, 10, 0)
			if err != nil {
				t.Fatalf("top: %v", err)
			}
			if len(top) != 0 {
				t.Fatalf("expected empty top, got %v", top)
			}
		})
	}
}

func TestRankIndex_MatchesSortedOrder(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 5))
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	standings := make([]leaderboard.Standing, 0, 120)
	for i := range 120 {
		standings = append(standings, leaderboard.Standing{
			ID:        fmt.Sprintf("u-%03d", i),
			Points:    int64(r.IntN(8)) * 50,
			CreatedAt: base.Add(time.Duration(r.IntN(4)) * time.Second),
		})
	}
	sorted := append([]leaderboard.Standing(nil), standings...)
	sort.Slice(sorted, func(i, j int) bool { return leaderboard.Dominates(sorted[i], sorted[j]) })

	for name, index := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, s := range standings {
				if err := index.Upsert(ctx, leaderboard.BoardWeekly, s); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}
			for i, s := range sorted {
				rank, ok, err := index.Rank(ctx, leaderboard.BoardWeekly, s.ID)
				if err != nil || !ok {
					t.Fatalf("rank %s: ok=%v err=%v", s.ID, ok, err)
				}
				if rank != i+1 {
					t.Fatalf("rank %s: got %d want %d", s.ID, rank, i+1)
				}
			}
			page, err := index.Top(ctx, leaderboard.BoardWeekly, 25, 40)
			if err != nil {
				t.Fatalf("top: %v", err)
			}
			for i, id := range page {
				if sorted[40+i].ID != id {
					t.Fatalf("top[%d]: got %s want %s", i, id, sorted[40+i].ID)
				}
			}
		})
	}
}

func TestCompositeScoreOrdersEarlierFirst(t *testing.T) {
	t.Parallel()

	early := leaderboard.Standing{Points: 500, CreatedAt: time.Unix(1_000, 0)}
	late := leaderboard.Standing{Points: 500, CreatedAt: time.Unix(2_000, 0)}
	if CompositeScore(early) <= CompositeScore(late) {
		t.Fatalf("expected earlier account to score higher")
	}
	if CompositeScore(leaderboard.Standing{Points: 501, CreatedAt: time.Unix(9_000_000_000, 0)}) <= CompositeScore(early) {
		t.Fatalf("expected more points to dominate creation time")
	}
}

func TestDecodeStandingRejectsMalformed(t *testing.T) {
	t.Parallel()

	if _, err := decodeStanding("u-1", "garbage"); err == nil {
		t.Fatalf("expected error for malformed value")
	}
	s, err := decodeStanding("u-1", encodeStanding(leaderboard.Standing{ID: "u-1", Points: 42, CreatedAt: time.Unix(0, 77)}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Points != 42 || s.CreatedAt.UnixNano() != 77 {
		t.Fatalf("unexpected standing %+v", s)
	}
}
