package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/powerup"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type sequenceIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s-%d", s.prefix, s.next), nil
}

func newPowerUpServiceForTest(store *memory.Store) *PowerUpService {
	service := NewPowerUpService(
		powerup.DefaultCatalog(),
		store.PowerUps(),
		store.Accounts(),
		&sequenceIDs{prefix: "pu"},
		nil,
		nil,
		logging.NewNop(),
	)
	service.now = fixedNow(testNow)
	return service
}

func TestPowerUpService_PurchaseAndActivate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow.Add(-time.Hour), 400, 0)
	service := newPowerUpServiceForTest(store)

	bought, err := service.Purchase(ctx, "alice", powerup.TypeDoublePoints)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if bought.Cost != 100 || bought.RemainingPoints != 300 {
		t.Fatalf("unexpected purchase %+v", bought)
	}
	if bought.PowerUp.ID != "pu-1" || bought.PowerUp.Status != powerup.StatusAvailable || bought.PowerUp.Multiplier != 2.0 {
		t.Fatalf("unexpected power-up %+v", bought.PowerUp)
	}
	if stored := mustAccount(t, store, "alice"); stored.TotalPoints != 300 {
		t.Fatalf("expected balance debited to 300, got %d", stored.TotalPoints)
	}

	view, err := service.Activate(ctx, "alice", bought.PowerUp.ID)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if view.PowerUp.Status != powerup.StatusActive || view.RemainingMinutes != 30 || view.Name != "Double Points" {
		t.Fatalf("unexpected activation %+v", view)
	}
	if view.PowerUp.ExpiresAt == nil || !view.PowerUp.ExpiresAt.Equal(testNow.Add(30*time.Minute)) {
		t.Fatalf("unexpected expiry %v", view.PowerUp.ExpiresAt)
	}

	if _, err := service.Activate(ctx, "alice", bought.PowerUp.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when re-activating, got %v", err)
	}
	if _, err := service.Activate(ctx, "alice", "pu-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown power-up, got %v", err)
	}
}

func TestPowerUpService_Purchase_InsufficientPoints(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 120, 0)
	service := newPowerUpServiceForTest(store)

	_, err := service.Purchase(context.Background(), "alice", powerup.TypeSquadRally)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	var shortfall *InsufficientPointsError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected *InsufficientPointsError, got %T", err)
	}
	if shortfall.Required != 250 || shortfall.Available != 120 {
		t.Fatalf("unexpected shortfall %+v", shortfall)
	}
	if stored := mustAccount(t, store, "alice"); stored.TotalPoints != 120 {
		t.Fatalf("balance must be untouched, got %d", stored.TotalPoints)
	}
}

func TestPowerUpService_Purchase_ConcurrentBuysNeverOverdraw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 150, 0)
	service := newPowerUpServiceForTest(store)

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		bought    int
		shortfall int
		errs      []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Purchase(ctx, "alice", powerup.TypeDoublePoints)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				bought++
			case errors.Is(err, ErrInsufficientPoints):
				shortfall++
			default:
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected purchase errors: %v", errs)
	}
	if bought != 1 || shortfall != workers-1 {
		t.Fatalf("expected exactly one purchase, got bought=%d shortfall=%d", bought, shortfall)
	}
	if stored := mustAccount(t, store, "alice"); stored.TotalPoints != 50 {
		t.Fatalf("expected one debit leaving 50, got %d", stored.TotalPoints)
	}
	owned, err := store.PowerUps().ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected one power-up in inventory, got %d", len(owned))
	}
}

func TestPowerUpService_Purchase_Validation(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 1000, 0)
	service := newPowerUpServiceForTest(store)

	if _, err := service.Purchase(context.Background(), "alice", "time_warp"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}
	if _, err := service.Purchase(context.Background(), "ghost", powerup.TypeDoublePoints); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if _, err := service.Activate(context.Background(), "alice", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestPowerUpService_ActiveStacksAdditively(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 1000, 0)
	service := newPowerUpServiceForTest(store)

	for _, kind := range []powerup.Type{powerup.TypeDoublePoints, powerup.TypePerfectShot} {
		bought, err := service.Purchase(ctx, "alice", kind)
		if err != nil {
			t.Fatalf("Purchase %s: %v", kind, err)
		}
		if _, err := service.Activate(ctx, "alice", bought.PowerUp.ID); err != nil {
			t.Fatalf("Activate %s: %v", kind, err)
		}
	}
	if _, err := service.Purchase(ctx, "alice", powerup.TypeCityExplorer); err != nil {
		t.Fatalf("Purchase city explorer: %v", err)
	}

	active, err := service.Active(ctx, "alice")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active.Items) != 2 {
		t.Fatalf("expected two active power-ups, got %d", len(active.Items))
	}
	// 1 + (2.0-1) + (1.5-1)
	if active.TotalMultiplier != 2.5 {
		t.Fatalf("expected additive total 2.5, got %v", active.TotalMultiplier)
	}

	listed, err := service.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected available and active power-ups listed, got %d", len(listed))
	}
}

func TestPowerUpService_ExpireStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 1000, 0)
	service := newPowerUpServiceForTest(store)

	bought, err := service.Purchase(ctx, "alice", powerup.TypeDoublePoints)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if _, err := service.Activate(ctx, "alice", bought.PowerUp.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	later := testNow.Add(31 * time.Minute)
	service.now = fixedNow(later)

	listed, err := service.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("lapsed power-ups must be hidden before the sweep, got %+v", listed)
	}

	expired, err := service.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected one expired power-up, got %d", expired)
	}
	item, ok, err := store.PowerUps().GetByID(ctx, "alice", bought.PowerUp.ID)
	if err != nil || !ok || item.Status != powerup.StatusExpired {
		t.Fatalf("expected expired status, got %+v ok=%v err=%v", item, ok, err)
	}

	again, err := service.ExpireStale(ctx)
	if err != nil || again != 0 {
		t.Fatalf("expected idempotent sweep, got %d err=%v", again, err)
	}
}

func TestPowerUpService_Catalog(t *testing.T) {
	t.Parallel()

	service := newPowerUpServiceForTest(memory.NewStore())
	defs := service.Catalog()
	if len(defs) != 4 {
		t.Fatalf("expected four catalog entries, got %d", len(defs))
	}
}
