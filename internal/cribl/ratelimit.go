package cribl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	backoffStart = 1 * time.Second
	backoffCap   = 32 * time.Second
)

// RateLimiter gates API calls under a calls-per-second ceiling and
// backs off exponentially while the target is throttling. One limiter
// exists per client; it never fails, it only delays, and a caller
// deadline aborts the wait via ctx.
type RateLimiter struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	streak   int
	holdOff  time.Time
	lastWait time.Duration
}

// NewRateLimiter builds a limiter allowing perSecond calls with the
// given burst. Non-positive inputs fall back to 10 rps / burst 5.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Acquire blocks until a call slot is available, honoring any active
// throttle hold-off. It returns ctx.Err() if the context expires first.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	hold := time.Until(r.holdOff)
	r.mu.Unlock()

	if hold > 0 {
		timer := time.NewTimer(hold)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// OnThrottled records a 429/503-class response and schedules the next
// backoff window: 1s doubling per consecutive throttle, capped at 32s.
func (r *RateLimiter) OnThrottled() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	wait := backoffCap
	if r.streak < 6 { // 1s << 5 == 32s
		wait = backoffStart << r.streak
	}
	r.streak++
	r.lastWait = wait
	r.holdOff = time.Now().Add(wait)
	return wait
}

// OnSuccess resets the throttle streak.
func (r *RateLimiter) OnSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streak = 0
	r.lastWait = 0
}

// currentBackoff exposes the last computed delay for tests.
func (r *RateLimiter) currentBackoff() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastWait
}
