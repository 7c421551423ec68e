package verification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

func sampleRequest() submission.VerificationRequest {
	return submission.VerificationRequest{
		SubmissionID:       "sub-1",
		POIID:              "poi-belem",
		PhotoURL:           "https://cdn/photo.jpg",
		ReferencePhotoURL:  "https://cdn/ref.jpg",
		Latitude:           38.6916,
		Longitude:          -9.2160,
		VerificationRadius: 50,
	}
}

func TestClientVerify_Passed(t *testing.T) {
	t.Parallel()

	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"passed":true,"score":91.5,"details":{"gps":{"passed":true}},"rejectionReason":null}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL + "/", Logger: logging.NewNop()})
	got, err := client.Verify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !got.Passed || got.Score != 91.5 || got.RejectionReason != "" {
		t.Fatalf("unexpected verdict %+v", got)
	}
	if _, ok := got.Details["gps"]; !ok {
		t.Fatalf("expected details to be decoded, got %+v", got.Details)
	}
	for _, want := range []string{`"submittedPhotoPath":"https://cdn/photo.jpg"`, `"poiId":"poi-belem"`, `"lat":38.6916`} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("expected %s in request body %s", want, gotBody)
		}
	}
}

func TestClientVerify_Rejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"passed":false,"score":0,"rejectionReason":"Location outside valid area (420m away)"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})
	got, err := client.Verify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Passed || !strings.Contains(got.RejectionReason, "outside valid area") {
		t.Fatalf("unexpected verdict %+v", got)
	}
}

func TestClientVerify_ServerErrorIsUnavailableAndTripsBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Verification failed: boom"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for range 3 {
		_, err := client.Verify(context.Background(), sampleRequest())
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open breaker to short-circuit the third call, got %d calls", calls.Load())
	}
}

func TestClientVerify_UnreachableIsUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(ClientConfig{BaseURL: url, Timeout: time.Second, Logger: logging.NewNop()})
	if _, err := client.Verify(context.Background(), sampleRequest()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
