package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"modgate/pkg/requestcontext"
)

// RateLimitResult describes the outcome of one limiter check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// SlidingWindowLimiter tracks request timestamps per key. A sliding window
// avoids the burst at fixed-window boundaries that a simple counter allows.
// State is in-process only; with multiple replicas each instance enforces
// the limit independently.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	limit   int
	window  time.Duration

	now func() time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per key
// within the given window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		buckets: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it fits in the window.
func (l *SlidingWindowLimiter) Allow(key string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.buckets[key][:0]
	for _, ts := range l.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.buckets[key] = kept
		return RateLimitResult{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			ResetAt:   kept[0].Add(l.window),
		}
	}

	kept = append(kept, now)
	l.buckets[key] = kept
	return RateLimitResult{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(kept),
		ResetAt:   kept[0].Add(l.window),
	}
}

// RateLimit limits requests per moderator, falling back to the client IP for
// unauthenticated requests. Place it after RequireModerator so the moderator
// identity is available.
func RateLimit(limiter *SlidingWindowLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := "ip:" + requestcontext.ClientIP(ctx)
			if moderatorID := requestcontext.ModeratorID(ctx); !moderatorID.IsNil() {
				key = "moderator:" + moderatorID.String()
			}

			result := limiter.Allow(key)
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				logger.WarnContext(ctx, "rate limit exceeded",
					"key", key,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result, limiter.now())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(result RateLimitResult, now time.Time) int {
	secs := int(result.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
