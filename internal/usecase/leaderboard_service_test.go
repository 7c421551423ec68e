package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/period"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/infrastructure/rankindex"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

func newLeaderboardServiceForTest(store *memory.Store, index leaderboard.RankIndex) *LeaderboardService {
	service := NewLeaderboardService(store.Accounts(), store.Squads(), store.Friendships(), index, nil, logging.NewNop())
	service.now = fixedNow(testNow)
	return service
}

func entryIDs(entries []leaderboard.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UserID)
	}
	return out
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLeaderboardService_GetLeaderboard_TieBreaksByCreation(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "carol", "Lisbon", testNow.Add(-time.Hour), 300, 0)
	seedAccount(t, store, "alice", "Lisbon", testNow.Add(-3*time.Hour), 300, 0)
	seedAccount(t, store, "bob", "Porto", testNow.Add(-2*time.Hour), 900, 0)

	service := newLeaderboardServiceForTest(store, nil)
	result, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{
		Scope:    leaderboard.ScopeGlobal,
		ViewerID: "alice",
	})
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}

	if got, want := entryIDs(result.Entries), []string{"bob", "alice", "carol"}; !sameIDs(got, want) {
		t.Fatalf("unexpected order %v, want %v", got, want)
	}
	if result.Total != 3 || result.Limit != leaderboard.DefaultLimit || result.Offset != 0 {
		t.Fatalf("unexpected paging total=%d limit=%d offset=%d", result.Total, result.Limit, result.Offset)
	}
	if !result.Entries[1].IsCurrentUser || result.Entries[0].IsCurrentUser {
		t.Fatalf("expected only alice flagged as current user: %+v", result.Entries)
	}
	if result.Week != nil {
		t.Fatalf("global board must not carry a week window")
	}

	page, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{
		Scope: leaderboard.ScopeGlobal,
		Page:  leaderboard.Page{Limit: 1, Offset: 2},
	})
	if err != nil {
		t.Fatalf("GetLeaderboard page: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].UserID != "carol" || page.Entries[0].Rank != 3 {
		t.Fatalf("unexpected page: %+v", page.Entries)
	}
}

func TestLeaderboardService_GetLeaderboard_WeeklyAndCity(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "alice", "Lisbon", testNow.Add(-3*time.Hour), 500, 120)
	seedAccount(t, store, "bob", "Porto", testNow.Add(-2*time.Hour), 900, 0)
	seedAccount(t, store, "carol", "lisbon", testNow.Add(-time.Hour), 100, 80)

	service := newLeaderboardServiceForTest(store, nil)
	weekly, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{Scope: leaderboard.ScopeWeekly})
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if got, want := entryIDs(weekly.Entries), []string{"alice", "carol"}; !sameIDs(got, want) {
		t.Fatalf("unexpected weekly order %v, want %v", got, want)
	}
	if weekly.Entries[0].Points != 120 {
		t.Fatalf("weekly board must rank by weekly points, got %d", weekly.Entries[0].Points)
	}
	if weekly.Week == nil {
		t.Fatalf("expected a week window")
	}
	if !weekly.Week.Start.Equal(period.WeekStart(testNow)) || weekly.Week.TimeUntilReset <= 0 {
		t.Fatalf("unexpected week window %+v", *weekly.Week)
	}

	city, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{Scope: leaderboard.ScopeCity, City: "LISBON"})
	if err != nil {
		t.Fatalf("city: %v", err)
	}
	if got, want := entryIDs(city.Entries), []string{"alice", "carol"}; !sameIDs(got, want) {
		t.Fatalf("unexpected city order %v, want %v", got, want)
	}

	if _, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{Scope: leaderboard.ScopeCity}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without a city, got %v", err)
	}
	if _, err := service.GetLeaderboard(context.Background(), LeaderboardQuery{Scope: "galaxy"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown scope, got %v", err)
	}
}

func TestLeaderboardService_GetLeaderboard_WeeklyRankChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow.Add(-time.Hour), 0, 0)
	if _, err := store.Accounts().ApplyWeeklyReward(ctx, account.WeeklyReward{UserID: "alice", Rank: 4}, testNow); err != nil {
		t.Fatalf("apply reward snapshot: %v", err)
	}
	if _, err := store.Accounts().AddPoints(ctx, "alice", 50, 50); err != nil {
		t.Fatalf("add points: %v", err)
	}

	service := newLeaderboardServiceForTest(store, nil)
	result, err := service.GetLeaderboard(ctx, LeaderboardQuery{Scope: leaderboard.ScopeWeekly})
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].RankChange == nil || *result.Entries[0].RankChange != 3 {
		t.Fatalf("expected rank change of +3, got %+v", result.Entries)
	}
}

func TestLeaderboardService_GetUserRank(t *testing.T) {
	t.Parallel()

	for name, index := range map[string]leaderboard.RankIndex{
		"storage": nil,
		"index":   rankindex.NewMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := memory.NewStore()
			seedAccount(t, store, "alice", "Lisbon", testNow.Add(-3*time.Hour), 900, 0)
			seedAccount(t, store, "bob", "Lisbon", testNow.Add(-2*time.Hour), 500, 40)
			seedAccount(t, store, "carol", "Porto", testNow.Add(-time.Hour), 100, 0)

			service := newLeaderboardServiceForTest(store, index)
			if index != nil {
				if n, err := service.RebuildRankIndex(ctx); err != nil || n != 3 {
					t.Fatalf("RebuildRankIndex: n=%d err=%v", n, err)
				}
			}

			top, err := service.GetUserRank(ctx, "alice", leaderboard.ScopeGlobal)
			if err != nil {
				t.Fatalf("rank alice: %v", err)
			}
			if top.Rank != 1 || top.TotalCount != 3 || top.Percentile != 100 || top.Points != 900 {
				t.Fatalf("unexpected position %+v", top)
			}

			last, err := service.GetUserRank(ctx, "carol", "")
			if err != nil {
				t.Fatalf("rank carol: %v", err)
			}
			if last.Rank != 3 || last.Percentile != 33.3 || last.Scope != leaderboard.ScopeGlobal {
				t.Fatalf("unexpected position %+v", last)
			}

			weekly, err := service.GetUserRank(ctx, "alice", leaderboard.ScopeWeekly)
			if err != nil {
				t.Fatalf("weekly rank alice: %v", err)
			}
			if weekly.Rank != 0 || weekly.Percentile != 0 {
				t.Fatalf("expected weekly rank 0 without weekly points, got %+v", weekly)
			}

			city, err := service.GetUserRank(ctx, "bob", leaderboard.ScopeCity)
			if err != nil {
				t.Fatalf("city rank bob: %v", err)
			}
			if city.Rank != 2 || city.TotalCount != 2 {
				t.Fatalf("unexpected city position %+v", city)
			}
		})
	}
}

func TestLeaderboardService_GetUserRank_Errors(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "nomad", "", testNow, 10, 0)
	service := newLeaderboardServiceForTest(store, nil)

	if _, err := service.GetUserRank(context.Background(), "ghost", leaderboard.ScopeGlobal); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetUserRank(context.Background(), "nomad", leaderboard.ScopeCity); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing home city, got %v", err)
	}
}

func TestLeaderboardService_FriendsLeaderboard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow.Add(-3*time.Hour), 100, 100)
	seedAccount(t, store, "bob", "", testNow.Add(-2*time.Hour), 300, 300)
	seedAccount(t, store, "carol", "", testNow.Add(-time.Hour), 900, 900)
	seedAccount(t, store, "dave", "", testNow.Add(-time.Hour), 50, 50)

	friendships := []social.Friendship{
		{RequesterID: "alice", AddresseeID: "bob", Status: social.StatusAccepted},
		{RequesterID: "dave", AddresseeID: "alice", Status: social.StatusAccepted},
		{RequesterID: "alice", AddresseeID: "carol", Status: social.StatusPending},
	}
	for _, f := range friendships {
		if err := store.Friendships().Upsert(ctx, f); err != nil {
			t.Fatalf("upsert friendship: %v", err)
		}
	}

	service := newLeaderboardServiceForTest(store, nil)
	result, err := service.FriendsLeaderboard(ctx, "alice", "")
	if err != nil {
		t.Fatalf("FriendsLeaderboard: %v", err)
	}
	if got, want := entryIDs(result.Entries), []string{"bob", "alice", "dave"}; !sameIDs(got, want) {
		t.Fatalf("unexpected friends order %v, want %v", got, want)
	}
	if result.TotalFriends != 2 || result.Metric != account.MetricWeekly {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.Entries[1].IsCurrentUser {
		t.Fatalf("expected alice flagged as current user")
	}

	if _, err := service.FriendsLeaderboard(ctx, "alice", "monthly"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown metric, got %v", err)
	}
}

func TestLeaderboardService_SquadLeaderboard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 0, 0)
	seedAccount(t, store, "bob", "", testNow, 0, 0)

	for _, sq := range []struct {
		id, leader string
		points     int64
	}{
		{id: "sq-a", leader: "alice", points: 40},
		{id: "sq-b", leader: "bob", points: 90},
	} {
		if err := store.Squads().Create(ctx, squad.Squad{
			ID:          sq.id,
			Name:        sq.id,
			LeaderID:    sq.leader,
			MemberCount: 1,
			CreatedAt:   testNow,
			UpdatedAt:   testNow,
		}, squad.Member{SquadID: sq.id, UserID: sq.leader, Role: squad.RoleLeader, JoinedAt: testNow}); err != nil {
			t.Fatalf("create squad: %v", err)
		}
		if err := store.Squads().AddContribution(ctx, sq.id, sq.leader, sq.points); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}

	service := newLeaderboardServiceForTest(store, nil)
	result, err := service.SquadLeaderboard(ctx, account.MetricTotal, leaderboard.Page{})
	if err != nil {
		t.Fatalf("SquadLeaderboard: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Entries[0].SquadID != "sq-b" || result.Entries[0].Rank != 1 || result.Entries[0].Points != 90 {
		t.Fatalf("unexpected leader %+v", result.Entries[0])
	}
}

func TestLeaderboardService_RebuildRankIndexWithoutIndex(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 10, 0)

	service := newLeaderboardServiceForTest(store, nil)
	n, err := service.RebuildRankIndex(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected a no-op rebuild, got n=%d err=%v", n, err)
	}
}
