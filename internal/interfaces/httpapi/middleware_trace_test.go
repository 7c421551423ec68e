package httpapi

import "testing"

func TestShouldTraceRequest_ProbeAndScrapePaths(t *testing.T) {
	paths := []string{"/healthz", "/health", "/livez", "/readyz", "/metrics", " /HEALTHZ "}
	for _, path := range paths {
		if shouldTraceRequest(path) {
			t.Fatalf("expected no tracing for path %q", path)
		}
	}
}

func TestShouldTraceRequest_APIPaths(t *testing.T) {
	paths := []string{
		"/v1/leaderboards/global",
		"/v1/users/alice/powerups",
		"/v1/internal/jobs/weekly-distribution",
		"/v1/submissions/sub-1/verify",
		"/docs",
	}
	for _, path := range paths {
		if !shouldTraceRequest(path) {
			t.Fatalf("expected tracing for path %q", path)
		}
	}
}
