package logging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerKeyValueFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With("component", "points")

	logger.WarnContext(context.Background(), "award failed", "user_id", "u-1", "error", errors.New("boom"), "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "points" {
		t.Fatalf("expected component field, got %v", fields)
	}
	if fields["user_id"] != "u-1" {
		t.Fatalf("expected user_id field, got %v", fields)
	}
	if fields["error"] != "boom" {
		t.Fatalf("expected error field, got %v", fields["error"])
	}
	if _, ok := fields["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept, got %v", fields)
	}
	if _, ok := fields["trace_id"]; ok {
		t.Fatalf("did not expect trace fields without a span")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	logger := FromZap(zap.New(core))
	logger.Info("ignored")
	logger.Error("kept")

	if logs.Len() != 1 {
		t.Fatalf("expected only the error entry, got %d", logs.Len())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"":        LevelInfo,
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		" error ": LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", raw, got, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWithFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questrank.log")
	logger := New(Options{Level: LevelInfo, Service: "questrank-test", File: FileSink{Path: path, MaxSizeMB: 1}})
	logger.Info("hello", "k", "v")
	_ = logger.Sync()
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	t.Parallel()

	var logger *Logger
	logger.Info("no panic")
	if logger.Zap() == nil {
		t.Fatalf("expected nop zap logger")
	}
}
