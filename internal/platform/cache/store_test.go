package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "leaderboard:global:100:0", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresEntriesWithInjectedClock(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Second)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "account:u1", 10)
	if _, ok := store.Get(context.Background(), "account:u1"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(31 * time.Second)
	if _, ok := store.Get(context.Background(), "account:u1"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_DeletePrefixMatchesAnyPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	store.Set(ctx, "leaderboard:global:100:0", 1)
	store.Set(ctx, "leaderboard:weekly:100:0", 2)
	store.Set(ctx, "powerup:catalog", 3)

	store.DeletePrefix(ctx, "leaderboard:global:", "leaderboard:weekly:")

	if _, ok := store.Get(ctx, "leaderboard:global:100:0"); ok {
		t.Fatalf("expected global entry removed")
	}
	if _, ok := store.Get(ctx, "leaderboard:weekly:100:0"); ok {
		t.Fatalf("expected weekly entry removed")
	}
	if _, ok := store.Get(ctx, "powerup:catalog"); !ok {
		t.Fatalf("expected unrelated entry kept")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
