package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/domain/period"
	"github.com/riskibarqy/questrank/internal/domain/social"
	"github.com/riskibarqy/questrank/internal/domain/squad"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

type LeaderboardQuery struct {
	Scope leaderboard.Scope
	City  string
	// ViewerID marks the viewer's own row when present.
	ViewerID string
	Page     leaderboard.Page
}

type LeaderboardResult struct {
	Scope   leaderboard.Scope
	City    string
	Entries []leaderboard.Entry
	Total   int
	Limit   int
	Offset  int
	Week    *leaderboard.WeekWindow
}

type FriendsLeaderboardResult struct {
	UserID       string
	Metric       account.Metric
	Entries      []leaderboard.Entry
	TotalFriends int
}

type SquadLeaderboardResult struct {
	Metric  account.Metric
	Entries []leaderboard.SquadEntry
	Total   int
	Limit   int
	Offset  int
}

type LeaderboardService struct {
	accounts account.Repository
	squads   squad.Repository
	social   social.Repository
	index    leaderboard.RankIndex
	ranker   ranker
	logger   *logging.Logger
	now      func() time.Time
}

func NewLeaderboardService(
	accounts account.Repository,
	squads squad.Repository,
	socialRepo social.Repository,
	index leaderboard.RankIndex,
	recorder Recorder,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		accounts: accounts,
		squads:   squads,
		social:   socialRepo,
		index:    index,
		ranker:   newRanker(accounts, index, recorder, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// GetLeaderboard lists one page of the global, weekly or city board. The page
// and the population count are loaded concurrently.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, query LeaderboardQuery) (LeaderboardResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetLeaderboard", scopeAttr(string(query.Scope)))
	defer span.End()

	page := query.Page.Normalize()
	filter, err := boardFilter(query.Scope, query.City)
	if err != nil {
		return LeaderboardResult{}, err
	}

	var (
		items []account.Account
		total int
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		items, err = s.accounts.ListRanked(ctx, filter, page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("list ranked accounts: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		total, err = s.accounts.Count(ctx, filter)
		if err != nil {
			return fmt.Errorf("count ranked accounts: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return LeaderboardResult{}, err
	}

	result := LeaderboardResult{
		Scope:   query.Scope,
		City:    filter.City,
		Entries: make([]leaderboard.Entry, 0, len(items)),
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for i, acc := range items {
		entry := toEntry(acc, page.Offset+i+1, filter.Metric, query.ViewerID)
		if query.Scope == leaderboard.ScopeWeekly && acc.LastWeekRank != nil {
			change := *acc.LastWeekRank - entry.Rank
			entry.RankChange = &change
		}
		result.Entries = append(result.Entries, entry)
	}

	if query.Scope == leaderboard.ScopeWeekly {
		window := s.weekWindow()
		result.Week = &window
	}
	return result, nil
}

// GetUserRank returns the user's position within scope. A user outside the
// weekly population is reported with rank 0.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID string, scope leaderboard.Scope) (leaderboard.Position, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetUserRank", userAttr(userID), scopeAttr(string(scope)))
	defer span.End()

	if scope == "" {
		scope = leaderboard.ScopeGlobal
	}
	acc, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return leaderboard.Position{}, err
	}
	filter, _, err := scopeFilter(scope, acc)
	if err != nil {
		return leaderboard.Position{}, err
	}

	var rank, total int
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		rank, err = s.ranker.rank(ctx, scope, acc)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		total, err = s.ranker.count(ctx, scope, acc)
		return err
	})
	if err := p.Wait(); err != nil {
		return leaderboard.Position{}, err
	}

	return leaderboard.Position{
		UserID:     acc.UserID,
		Scope:      scope,
		Rank:       rank,
		TotalCount: total,
		Percentile: leaderboard.Percentile(rank, total),
		Points:     acc.Points(filter.Metric),
	}, nil
}

// FriendsLeaderboard ranks the user and their accepted friends.
func (s *LeaderboardService) FriendsLeaderboard(ctx context.Context, userID string, metric account.Metric) (FriendsLeaderboardResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.FriendsLeaderboard")
	defer span.End()

	if metric == "" {
		metric = account.MetricWeekly
	}
	if !metric.Valid() {
		return FriendsLeaderboardResult{}, fmt.Errorf("%w: unknown leaderboard type %q", ErrInvalidInput, metric)
	}
	acc, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return FriendsLeaderboardResult{}, err
	}

	friendIDs, err := s.social.ListAcceptedFriendIDs(ctx, acc.UserID)
	if err != nil {
		return FriendsLeaderboardResult{}, fmt.Errorf("list friends: %w", err)
	}
	members := append(append(make([]string, 0, len(friendIDs)+1), friendIDs...), acc.UserID)

	items, err := s.accounts.ListRanked(ctx, account.Filter{Metric: metric, UserIDs: members}, len(members), 0)
	if err != nil {
		return FriendsLeaderboardResult{}, fmt.Errorf("list friends leaderboard: %w", err)
	}

	result := FriendsLeaderboardResult{
		UserID:       acc.UserID,
		Metric:       metric,
		Entries:      make([]leaderboard.Entry, 0, len(items)),
		TotalFriends: len(friendIDs),
	}
	for i, item := range items {
		result.Entries = append(result.Entries, toEntry(item, i+1, metric, acc.UserID))
	}
	return result, nil
}

func (s *LeaderboardService) SquadLeaderboard(ctx context.Context, metric account.Metric, page leaderboard.Page) (SquadLeaderboardResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.SquadLeaderboard")
	defer span.End()

	if metric == "" {
		metric = account.MetricWeekly
	}
	if !metric.Valid() {
		return SquadLeaderboardResult{}, fmt.Errorf("%w: unknown leaderboard type %q", ErrInvalidInput, metric)
	}
	page = page.Normalize()

	var (
		items []squad.Squad
		total int
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		items, err = s.squads.ListRanked(ctx, metric, page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("list ranked squads: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		total, err = s.squads.Count(ctx)
		if err != nil {
			return fmt.Errorf("count squads: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return SquadLeaderboardResult{}, err
	}

	result := SquadLeaderboardResult{
		Metric:  metric,
		Entries: make([]leaderboard.SquadEntry, 0, len(items)),
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for i, item := range items {
		points := item.TotalPoints
		if metric == account.MetricWeekly {
			points = item.WeeklyPoints
		}
		result.Entries = append(result.Entries, leaderboard.SquadEntry{
			Rank:         page.Offset + i + 1,
			SquadID:      item.ID,
			Name:         item.Name,
			City:         item.City,
			Points:       points,
			TotalPoints:  item.TotalPoints,
			WeeklyPoints: item.WeeklyPoints,
			MemberCount:  item.MemberCount,
		})
	}
	return result, nil
}

// RebuildRankIndex reloads every board of the index from storage.
func (s *LeaderboardService) RebuildRankIndex(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.RebuildRankIndex")
	defer span.End()

	if s.index == nil {
		return 0, nil
	}

	const batch = 500
	indexed := 0
	for offset := 0; ; offset += batch {
		items, err := s.accounts.ListRanked(ctx, account.Filter{Metric: account.MetricTotal}, batch, offset)
		if err != nil {
			return indexed, fmt.Errorf("list accounts for rank index: %w", err)
		}
		for _, acc := range items {
			s.ranker.syncIndex(ctx, acc, "")
		}
		indexed += len(items)
		if len(items) < batch {
			break
		}
	}

	s.logger.InfoContext(ctx, "rank index rebuilt", "accounts", indexed)
	return indexed, nil
}

func (s *LeaderboardService) weekWindow() leaderboard.WeekWindow {
	now := s.now().UTC()
	return leaderboard.WeekWindow{
		Start:          period.WeekStart(now),
		End:            period.WeekEnd(now),
		TimeUntilReset: period.NextDistribution(now).Sub(now),
	}
}

func boardFilter(scope leaderboard.Scope, city string) (account.Filter, error) {
	switch scope {
	case leaderboard.ScopeGlobal, "":
		return account.Filter{Metric: account.MetricTotal}, nil
	case leaderboard.ScopeWeekly:
		return account.Filter{Metric: account.MetricWeekly, ActiveOnly: true}, nil
	case leaderboard.ScopeCity:
		city = strings.TrimSpace(city)
		if city == "" {
			return account.Filter{}, fmt.Errorf("%w: city is required", ErrInvalidInput)
		}
		return account.Filter{Metric: account.MetricTotal, City: city}, nil
	default:
		return account.Filter{}, fmt.Errorf("%w: unsupported leaderboard scope %q", ErrInvalidInput, scope)
	}
}

func toEntry(acc account.Account, rank int, metric account.Metric, viewerID string) leaderboard.Entry {
	return leaderboard.Entry{
		Rank:          rank,
		UserID:        acc.UserID,
		Username:      acc.Username,
		City:          acc.City,
		Points:        acc.Points(metric),
		CurrentStreak: acc.CurrentStreak,
		IsCurrentUser: viewerID != "" && acc.UserID == viewerID,
	}
}
