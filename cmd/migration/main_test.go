package main

import (
	"strings"
	"testing"
)

func TestParseSteps(t *testing.T) {
	t.Parallel()

	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default of 1 step, got %d err=%v", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d err=%v", got, err)
	}
	if _, err := parseSteps([]string{"0"}); err == nil {
		t.Fatalf("expected error for zero steps")
	}
	if _, err := parseSteps([]string{"two"}); err == nil {
		t.Fatalf("expected error for non-numeric steps")
	}
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	if got, err := parseVersion("1771776034"); err != nil || got != 1771776034 {
		t.Fatalf("unexpected version %d err=%v", got, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if _, err := parseTarget("abc"); err == nil {
		t.Fatalf("expected error for invalid target")
	}
}

func TestNormalizeDBURLAddsFlagByDefault(t *testing.T) {
	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")

	got := normalizeDBURL("postgres://u:p@localhost:5432/questrank?sslmode=disable")
	if !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected prepared binary flag, got %q", got)
	}

	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "false")
	in := "postgres://u:p@localhost:5432/questrank"
	if got := normalizeDBURL(in); got != in {
		t.Fatalf("expected url unchanged, got %q", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"up", "down", "version", "force", "goto", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("expected subcommand %q, err=%v", name, err)
		}
	}
}
