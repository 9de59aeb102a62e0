package toolserver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-caller token bucket guarding the AUTH_TOKEN boundary
// (§6 AUTH_RATE_LIMIT_WINDOW/AUTH_RATE_LIMIT_MAX). Grounded on the
// ipiton-alert-history-service middleware's per-client rate.Limiter map,
// adapted from a requests-per-minute/IP model to a window+burst pair keyed
// by caller subject (bearer-token session, not IP — this limiter protects
// the MCP server's own call budget, not a public HTTP endpoint).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter builds a limiter allowing up to max requests per window,
// per caller subject, with a burst equal to max (a caller can spend its
// whole window's budget immediately, then must wait for refill).
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
	}
}

func (r *RateLimiter) limiterFor(subject string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[subject]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[subject] = l
	}
	return l
}

// Allow reports whether subject may make one more call right now.
func (r *RateLimiter) Allow(subject string) bool {
	return r.limiterFor(subject).Allow()
}

// Cleanup periodically drops limiters sitting at a full bucket (no recent
// traffic) so a long-running process doesn't accumulate one entry per
// caller forever. Mirrors the teacher-adjacent middleware's stale-entry
// sweep; run it in a goroutine and cancel ctx to stop it.
func (r *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			for subject, l := range r.limiters {
				if l.Tokens() >= float64(r.burst) {
					delete(r.limiters, subject)
				}
			}
			r.mu.Unlock()
		}
	}
}
