package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/questrank/internal/platform/id"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

func TestSquadService_CreateThenJoin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "Kyoto", testNow, 0, 0)
	seedAccount(t, store, "bob", "Osaka", testNow, 0, 0)

	service := NewSquadService(store.Squads(), store.Accounts(), id.Static("squad-001"), logging.NewNop())
	service.now = fixedNow(testNow)

	created, err := service.CreateSquad(ctx, CreateSquadInput{LeaderID: "alice", Name: "  Temple Runners "})
	if err != nil {
		t.Fatalf("CreateSquad: %v", err)
	}
	if created.ID != "squad-001" || created.Name != "Temple Runners" || created.City != "Kyoto" || created.MemberCount != 1 {
		t.Fatalf("unexpected squad %+v", created)
	}

	joined, err := service.JoinSquad(ctx, JoinSquadInput{SquadID: created.ID, UserID: "bob"})
	if err != nil {
		t.Fatalf("JoinSquad: %v", err)
	}
	if joined.MemberCount != 2 {
		t.Fatalf("expected two members, got %d", joined.MemberCount)
	}

	again, err := service.JoinSquad(ctx, JoinSquadInput{SquadID: created.ID, UserID: "bob", Role: squad.RoleAdmin})
	if err != nil {
		t.Fatalf("JoinSquad again: %v", err)
	}
	if again.MemberCount != 2 {
		t.Fatalf("joining twice must be a no-op, got %d members", again.MemberCount)
	}

	memberships, err := store.Squads().ListMembershipsByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListMembershipsByUser: %v", err)
	}
	if len(memberships) != 1 || memberships[0].Role != squad.RoleMember {
		t.Fatalf("unexpected memberships %+v", memberships)
	}
}

func TestSquadService_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 0, 0)
	service := NewSquadService(store.Squads(), store.Accounts(), id.Static("squad-002"), logging.NewNop())
	service.now = fixedNow(testNow)

	if _, err := service.CreateSquad(ctx, CreateSquadInput{LeaderID: "alice", Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := service.CreateSquad(ctx, CreateSquadInput{LeaderID: "ghost", Name: "Nobody"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown leader, got %v", err)
	}
	if _, err := service.CreateSquad(ctx, CreateSquadInput{LeaderID: "alice", Name: "Solo"}); err != nil {
		t.Fatalf("CreateSquad: %v", err)
	}
	if _, err := service.JoinSquad(ctx, JoinSquadInput{SquadID: "squad-002", UserID: "alice", Role: squad.RoleLeader}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a second leader, got %v", err)
	}
	if _, err := service.JoinSquad(ctx, JoinSquadInput{SquadID: "missing", UserID: "alice"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown squad, got %v", err)
	}
}

func TestSocialService_SetFriendship(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 0, 0)
	seedAccount(t, store, "bob", "", testNow, 0, 0)

	service := NewSocialService(store.Friendships(), store.Accounts())
	service.now = fixedNow(testNow)

	pending, err := service.SetFriendship(ctx, FriendshipInput{RequesterID: "alice", AddresseeID: "bob"})
	if err != nil {
		t.Fatalf("SetFriendship: %v", err)
	}
	if pending.Status != social.StatusPending {
		t.Fatalf("expected pending by default, got %q", pending.Status)
	}
	if n, _ := store.Friendships().CountAccepted(ctx, "bob"); n != 0 {
		t.Fatalf("pending friendships must not count, got %d", n)
	}

	if _, err := service.SetFriendship(ctx, FriendshipInput{RequesterID: "alice", AddresseeID: "bob", Status: social.StatusAccepted}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if n, _ := store.Friendships().CountAccepted(ctx, "bob"); n != 1 {
		t.Fatalf("expected one accepted friend for bob, got %d", n)
	}

	if _, err := service.SetFriendship(ctx, FriendshipInput{RequesterID: "alice", AddresseeID: "alice"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self friendship, got %v", err)
	}
	if _, err := service.SetFriendship(ctx, FriendshipInput{RequesterID: "alice", AddresseeID: "bob", Status: "besties"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := service.SetFriendship(ctx, FriendshipInput{RequesterID: "alice", AddresseeID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
