package postgres

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/questrank/internal/domain/account"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

func TestIsBindParameterMismatch(t *testing.T) {
	t.Run("matches bind mismatch error", func(t *testing.T) {
		err := fakeErr("pq: bind message supplies 2 parameters, but prepared statement \"\" requires 1 (08P01)")
		if !isBindParameterMismatch(err) {
			t.Fatalf("expected true for bind mismatch error")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		err := fakeErr("pq: relation point_accounts does not exist")
		if isBindParameterMismatch(err) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUnnamedPreparedStatementMissing(t *testing.T) {
	t.Run("matches statement missing message", func(t *testing.T) {
		err := fakeErr("pq: unnamed prepared statement does not exist (26000)")
		if !isUnnamedPreparedStatementMissing(err) {
			t.Fatalf("expected true for statement missing error")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isUnnamedPreparedStatementMissing(fakeErr("pq: relation point_accounts does not exist")) {
			t.Fatalf("expected false for unrelated error")
		}
		if isUnnamedPreparedStatementMissing(nil) {
			t.Fatalf("expected false for nil error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})) {
		t.Fatalf("expected wrapped unique violation to match")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("expected foreign key violation not to match")
	}
	if isUniqueViolation(fakeErr("duplicate key")) {
		t.Fatalf("expected plain error not to match")
	}
}

func TestDominatingCondition(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query, args, err := qb.Select("COUNT(*)").
		From("point_accounts").
		Where(dominatingCondition(metricColumn(account.MetricWeekly, "total_points", "weekly_points"), "user_id", 90, createdAt, "u-5")).
		ToSQL()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	want := "SELECT COUNT(*) FROM point_accounts WHERE (weekly_points > $1 OR (weekly_points = $2 AND created_at < $3) OR (weekly_points = $4 AND created_at = $5 AND user_id < $6))"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 6 || args[5] != "u-5" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestAccountFilterConditions(t *testing.T) {
	conds := accountFilterConditions(account.Filter{
		Metric:     account.MetricWeekly,
		City:       " Lisbon ",
		UserIDs:    []string{"u-1", "u-2"},
		ActiveOnly: true,
	})
	query, args, err := qb.Select("user_id").From("point_accounts").Where(conds...).ToSQL()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "LOWER(city) = LOWER($1)") {
		t.Fatalf("expected case-insensitive city match, got %s", query)
	}
	if !strings.Contains(query, "weekly_points > $2") {
		t.Fatalf("expected active filter on weekly points, got %s", query)
	}
	if !strings.Contains(query, "user_id IN ($3, $4)") {
		t.Fatalf("expected user id restriction, got %s", query)
	}
	if args[0] != "Lisbon" {
		t.Fatalf("expected trimmed city arg, got %v", args[0])
	}

	empty := accountFilterConditions(account.Filter{Metric: account.MetricTotal, UserIDs: []string{}})
	query, _, err = qb.Select("user_id").From("point_accounts").Where(empty...).ToSQL()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasSuffix(query, "WHERE 1=0") {
		t.Fatalf("expected empty id list to match nobody, got %s", query)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
