package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/account"
	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/platform/logging"
)

const (
	rankSourceIndex   = "index"
	rankSourceStorage = "storage"
)

// ranker answers rank and population questions for account scopes. It reads
// the rank index when one is configured and falls back to storage counts
// when the index is absent, failing, or does not know the account.
type ranker struct {
	accounts account.Repository
	index    leaderboard.RankIndex
	recorder Recorder
	logger   *logging.Logger
}

func newRanker(accounts account.Repository, index leaderboard.RankIndex, recorder Recorder, logger *logging.Logger) ranker {
	if recorder == nil {
		recorder = NewNopRecorder()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return ranker{accounts: accounts, index: index, recorder: recorder, logger: logger}
}

// scopeFilter maps an account scope to its storage filter and index board.
func scopeFilter(scope leaderboard.Scope, acc account.Account) (account.Filter, string, error) {
	switch scope {
	case leaderboard.ScopeGlobal:
		return account.Filter{Metric: account.MetricTotal}, leaderboard.BoardGlobal, nil
	case leaderboard.ScopeWeekly:
		return account.Filter{Metric: account.MetricWeekly, ActiveOnly: true}, leaderboard.BoardWeekly, nil
	case leaderboard.ScopeCity:
		city := strings.TrimSpace(acc.City)
		if city == "" {
			return account.Filter{}, "", fmt.Errorf("%w: user %s has no home city", ErrInvalidInput, acc.UserID)
		}
		return account.Filter{Metric: account.MetricTotal, City: city}, leaderboard.CityBoard(city), nil
	default:
		return account.Filter{}, "", fmt.Errorf("%w: unsupported rank scope %q", ErrInvalidInput, scope)
	}
}

// rank returns the 1-based rank of acc within scope. Accounts outside the
// scope population (no weekly points on the weekly board) rank 0.
func (r ranker) rank(ctx context.Context, scope leaderboard.Scope, acc account.Account) (int, error) {
	filter, board, err := scopeFilter(scope, acc)
	if err != nil {
		return 0, err
	}
	if !filter.Matches(acc) {
		return 0, nil
	}

	start := time.Now()
	if r.index != nil {
		rank, ok, err := r.index.Rank(ctx, board, acc.UserID)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "rank index lookup failed, using storage", "board", board, "user_id", acc.UserID, "error", err)
		case ok:
			r.recorder.RankQuery(string(scope), rankSourceIndex, time.Since(start))
			return rank, nil
		}
	}

	dominating, err := r.accounts.CountDominating(ctx, filter, acc)
	if err != nil {
		return 0, fmt.Errorf("count dominating accounts scope=%s: %w", scope, err)
	}
	r.recorder.RankQuery(string(scope), rankSourceStorage, time.Since(start))
	return dominating + 1, nil
}

func (r ranker) count(ctx context.Context, scope leaderboard.Scope, acc account.Account) (int, error) {
	filter, board, err := scopeFilter(scope, acc)
	if err != nil {
		return 0, err
	}
	if r.index != nil {
		total, err := r.index.Count(ctx, board)
		if err == nil && total > 0 {
			return total, nil
		}
		if err != nil {
			r.logger.WarnContext(ctx, "rank index count failed, using storage", "board", board, "error", err)
		}
	}

	total, err := r.accounts.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count accounts scope=%s: %w", scope, err)
	}
	return total, nil
}

// syncIndex mirrors the ranked counters of acc into the index. previousCity
// is the city board acc must leave, if it moved. Storage stays the source of
// truth, so failures are logged and rank lookups fall back to storage.
func (r ranker) syncIndex(ctx context.Context, acc account.Account, previousCity string) {
	if r.index == nil {
		return
	}

	r.upsertBoard(ctx, leaderboard.BoardGlobal, leaderboard.StandingOf(acc, account.MetricTotal))
	if acc.WeeklyPoints > 0 {
		r.upsertBoard(ctx, leaderboard.BoardWeekly, leaderboard.StandingOf(acc, account.MetricWeekly))
	} else {
		r.removeFromBoard(ctx, leaderboard.BoardWeekly, acc.UserID)
	}

	city := strings.TrimSpace(acc.City)
	previousCity = strings.TrimSpace(previousCity)
	if previousCity != "" && !strings.EqualFold(previousCity, city) {
		r.removeFromBoard(ctx, leaderboard.CityBoard(previousCity), acc.UserID)
	}
	if city != "" {
		r.upsertBoard(ctx, leaderboard.CityBoard(city), leaderboard.StandingOf(acc, account.MetricTotal))
	}
}

func (r ranker) upsertBoard(ctx context.Context, board string, standing leaderboard.Standing) {
	if err := r.index.Upsert(ctx, board, standing); err != nil {
		r.logger.WarnContext(ctx, "rank index upsert failed", "board", board, "user_id", standing.ID, "error", err)
	}
}

func (r ranker) removeFromBoard(ctx context.Context, board, userID string) {
	if err := r.index.Remove(ctx, board, userID); err != nil {
		r.logger.WarnContext(ctx, "rank index remove failed", "board", board, "user_id", userID, "error", err)
	}
}
