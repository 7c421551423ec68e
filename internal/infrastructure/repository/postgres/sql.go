package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/questrank/internal/domain/account"
	qb "github.com/riskibarqy/questrank/internal/platform/querybuilder"
)

const pqUniqueViolation = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}

// isBindParameterMismatch matches poolers that reuse an unnamed statement
// across sessions and end up binding the wrong argument count.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "bind message supplies") && strings.Contains(msg, "requires")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unnamed prepared statement does not exist") || strings.Contains(msg, "(26000)")
}

// isTransientStatementError reports pooler statement errors that succeed
// when the same query is sent again.
func isTransientStatementError(err error) bool {
	return isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func metricColumn(metric account.Metric, totalColumn, weeklyColumn string) string {
	if metric == account.MetricWeekly {
		return weeklyColumn
	}
	return totalColumn
}

// dominatingCondition matches rows strictly ahead of (points, createdAt, id)
// under points DESC, created_at ASC, id ASC.
func dominatingCondition(pointsColumn, idColumn string, points int64, createdAt time.Time, id string) qb.Condition {
	return qb.Or(
		qb.Gt(pointsColumn, points),
		qb.And(qb.Eq(pointsColumn, points), qb.Lt("created_at", createdAt)),
		qb.And(qb.Eq(pointsColumn, points), qb.Eq("created_at", createdAt), qb.Lt(idColumn, id)),
	)
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
