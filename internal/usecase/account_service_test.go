package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/infrastructure/rankindex"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

func TestAccountService_UpsertProfile_MovesCityBoard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	index := rankindex.NewMemory()
	service := NewAccountService(store.Accounts(), index, logging.NewNop())
	service.now = fixedNow(testNow)

	created, err := service.UpsertProfile(ctx, UpsertProfileInput{UserID: " alice ", Username: "Alice", City: "Rome"})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if created.UserID != "alice" || created.TotalPoints != 0 || !created.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected account %+v", created)
	}
	if _, ok, _ := index.Rank(ctx, leaderboard.CityBoard("Rome"), "alice"); !ok {
		t.Fatalf("expected alice on the Rome board")
	}

	if _, err := store.Accounts().AddPoints(ctx, "alice", 40, 40); err != nil {
		t.Fatalf("add points: %v", err)
	}
	service.now = fixedNow(testNow.Add(time.Hour))
	moved, err := service.UpsertProfile(ctx, UpsertProfileInput{UserID: "alice", Username: "Alice R.", City: "Milan"})
	if err != nil {
		t.Fatalf("UpsertProfile move: %v", err)
	}
	if moved.TotalPoints != 40 || moved.City != "Milan" || !moved.CreatedAt.Equal(testNow) {
		t.Fatalf("profile refresh must keep counters and creation time, got %+v", moved)
	}
	if _, ok, _ := index.Rank(ctx, leaderboard.CityBoard("Rome"), "alice"); ok {
		t.Fatalf("expected alice removed from the Rome board")
	}
	if rank, ok, _ := index.Rank(ctx, leaderboard.CityBoard("Milan"), "alice"); !ok || rank != 1 {
		t.Fatalf("expected alice first on the Milan board, got rank=%d ok=%v", rank, ok)
	}
}

func TestAccountService_Validation(t *testing.T) {
	t.Parallel()

	service := NewAccountService(memory.NewStore().Accounts(), nil, logging.NewNop())
	if _, err := service.UpsertProfile(context.Background(), UpsertProfileInput{Username: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without user id, got %v", err)
	}
	if _, err := service.UpsertProfile(context.Background(), UpsertProfileInput{UserID: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without username, got %v", err)
	}
	if _, err := service.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
