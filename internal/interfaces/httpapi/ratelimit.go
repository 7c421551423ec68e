package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("rate limit exceeded")

const limiterIdleTTL = 5 * time.Minute

type keyedLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// KeyedRateLimiter holds one token bucket per key. Idle buckets are dropped
// after limiterIdleTTL.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewKeyedRateLimiter(rps float64, burst int) *KeyedRateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &KeyedRateLimiter{
		limiters: make(map[string]*keyedLimiter),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *KeyedRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, entry := range l.limiters {
		if now.After(entry.expires) {
			delete(l.limiters, k)
		}
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.expires = now.Add(limiterIdleTTL)
	return entry.limiter.AllowN(now, 1)
}

// RateLimitByPathValue limits requests per value of the named path parameter.
func RateLimitByPathValue(limiter *KeyedRateLimiter, param string, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RateLimitByPathValue")
		defer span.End()

		key := strings.TrimSpace(r.PathValue(param))
		if !limiter.Allow(key) {
			w.Header().Set("Retry-After", "1")
			writeError(ctx, w, fmt.Errorf("%w: too many requests for %s=%s", errRateLimited, param, key))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
