package httpapi

import "testing"

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.GlobalLeaderboard", want: true},
		{name: "job token gate", in: "httpapi.RequireInternalJobToken", want: true},
		{name: "purchase limiter gate", in: "httpapi.RateLimitByPathValue", want: true},
		{name: "logging middleware", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldCreateHTTPAPISpan(tt.in); got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}
