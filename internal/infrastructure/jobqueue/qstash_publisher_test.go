package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

func TestQStashPublisher_Enqueue(t *testing.T) {
	t.Parallel()

	var gotPath, gotDedup, gotDelay, gotToken, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDedup = r.Header.Get(headerDedupID)
		gotDelay = r.Header.Get(headerDelay)
		gotToken = r.Header.Get(headerForwardToken)
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "secret",
		TargetBaseURL:    "https://api.example.com",
		InternalJobToken: "job-token",
	}, logging.NewNop())

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/powerup-sweep", map[string]any{"dispatchId": "d-1"}, 90*time.Second, "powerup-sweep-all-20260302T000100Z")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if gotPath != "/v2/publish/https://api.example.com/v1/internal/jobs/powerup-sweep" {
		t.Fatalf("unexpected publish path %q", gotPath)
	}
	if gotDedup != "powerup-sweep-all-20260302T000100Z" {
		t.Fatalf("unexpected dedup id %q", gotDedup)
	}
	if gotDelay != "90s" {
		t.Fatalf("unexpected delay %q", gotDelay)
	}
	if gotToken != "job-token" {
		t.Fatalf("expected forwarded job token, got %q", gotToken)
	}
	if !strings.Contains(gotBody, `"dispatchId":"d-1"`) {
		t.Fatalf("unexpected body %s", gotBody)
	}
}

func TestQStashPublisher_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		TargetBaseURL: "https://api.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for range 2 {
		if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
			t.Fatalf("expected transient failure")
		}
	}
	err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected open circuit error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to stop calls, got %d", calls.Load())
	}
}

func TestQStashPublisher_ClientErrorDoesNotTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://api.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, logging.NewNop())

	for range 3 {
		err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
		if err == nil || !strings.Contains(err.Error(), "status=400") {
			t.Fatalf("expected client error, got %v", err)
		}
	}
}

func TestQStashPublisher_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://api.example.com"}, logging.NewNop())
	if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	if err := publisher.Enqueue(context.Background(), " ", nil, 0, ""); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestBuildQStashCurlPreviewMasksSecrets(t *testing.T) {
	t.Parallel()

	preview := buildQStashCurlPreview(publishRequest{
		publishURL: "https://qstash/v2/publish/https://api/jobs",
		delay:      "60s",
		dedupID:    "weekly-distribution-2026-03-02",
	}, 3, `{"a":"it's"}`, true)

	if strings.Contains(preview, "secret") {
		t.Fatalf("preview leaked a secret: %s", preview)
	}
	for _, want := range []string{"Upstash-Retries: 3", "Upstash-Delay: 60s", "Forward-X-Internal-Job-Token: ***", `it'"'"'s`} {
		if !strings.Contains(preview, want) {
			t.Fatalf("expected %q in preview: %s", want, preview)
		}
	}
}
