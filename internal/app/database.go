package app

import (
	"net/url"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	bindListRegex        = regexp.MustCompile(`\(\s*\$\d+(\s*,\s*\$\d+){3,}\s*\)`)
)

// postgresTarget is the resolved connection string plus the bits the tracer
// reports about it.
type postgresTarget struct {
	DSN  string
	Name string
}

// resolvePostgresTarget tags URL-style DSNs with application_name and, when
// asked, disable_prepared_binary_result. Explicit query values win.
// Keyword-style DSNs pass through untouched.
func resolvePostgresTarget(raw, applicationName string, disablePreparedBinaryResult bool) postgresTarget {
	raw = strings.TrimSpace(raw)
	target := postgresTarget{DSN: raw, Name: dbNameFromDSN(raw)}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return target
	}

	query := parsed.Query()
	changed := false
	if disablePreparedBinaryResult && query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		changed = true
	}
	if name := strings.TrimSpace(applicationName); name != "" && query.Get("application_name") == "" {
		query.Set("application_name", name)
		changed = true
	}
	if changed {
		parsed.RawQuery = query.Encode()
		target.DSN = parsed.String()
	}
	return target
}

func dbNameFromDSN(raw string) string {
	parsed, err := url.Parse(raw)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(raw) {
		value, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name := strings.Trim(strings.TrimSpace(value), `"'`); name != "" {
			return name
		}
	}
	return ""
}

// formatDBQueryForTrace flattens whitespace and folds long positional bind
// lists (friend and squad member IN clauses) so span names stay bounded.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = bindListRegex.ReplaceAllString(normalized, "($...)")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
