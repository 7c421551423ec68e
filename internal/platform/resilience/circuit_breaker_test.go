package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteCountsOnlyClassifiedFailures(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute, 1)
	rejected := errors.New("rejected by upstream")
	transient := errors.New("timeout")
	isTransient := func(err error) bool { return errors.Is(err, transient) }

	if err := b.Execute(func() error { return rejected }, isTransient); !errors.Is(err, rejected) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-transient error, got %s", state)
	}

	if err := b.Execute(func() error { return transient }, isTransient); !errors.Is(err, transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if err := b.Execute(func() error { return nil }, isTransient); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestCircuitBreaker_NilIsAlwaysClosed(t *testing.T) {
	var b *CircuitBreaker
	if err := b.Allow(); err != nil {
		t.Fatalf("nil breaker should allow: %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed, got %s", state)
	}
	if NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false}) != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
}
