package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/period"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
)

// testNow is a Wednesday mid-morning, outside every time-of-day bonus window.
var testNow = time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC)

func fixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// seedAccount creates an account that already belongs to the current week and
// holds the given counters.
func seedAccount(t *testing.T, store *memory.Store, userID, city string, createdAt time.Time, total, weekly int64) account.Account {
	t.Helper()

	ctx := context.Background()
	repo := store.Accounts()
	if _, err := repo.UpsertProfile(ctx, account.Profile{UserID: userID, Username: userID, City: city}, createdAt); err != nil {
		t.Fatalf("upsert profile %s: %v", userID, err)
	}
	if _, err := repo.RolloverWeek(ctx, userID, period.WeekStart(testNow)); err != nil {
		t.Fatalf("rollover %s: %v", userID, err)
	}
	if total == 0 && weekly == 0 {
		acc, _, err := repo.GetByID(ctx, userID)
		if err != nil {
			t.Fatalf("get %s: %v", userID, err)
		}
		return acc
	}
	if weekly > total {
		t.Fatalf("seed %s: weekly %d exceeds total %d", userID, weekly, total)
	}
	if _, err := repo.AddPoints(ctx, userID, total-weekly, 0); err != nil {
		t.Fatalf("add total points %s: %v", userID, err)
	}
	acc, err := repo.AddPoints(ctx, userID, weekly, weekly)
	if err != nil {
		t.Fatalf("add weekly points %s: %v", userID, err)
	}
	return acc
}

func mustAccount(t *testing.T, store *memory.Store, userID string) account.Account {
	t.Helper()

	acc, ok, err := store.Accounts().GetByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get account %s: %v", userID, err)
	}
	if !ok {
		t.Fatalf("account %s not found", userID)
	}
	return acc
}
