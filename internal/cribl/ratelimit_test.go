package cribl

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_BackoffGrowsAndCaps(t *testing.T) {
	r := NewRateLimiter(10, 5)

	expected := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second,
		8 * time.Second, 16 * time.Second, 32 * time.Second,
		32 * time.Second,
	}
	for i, want := range expected {
		got := r.OnThrottled()
		if got != want {
			t.Fatalf("throttle %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestRateLimiter_SuccessResetsStreak(t *testing.T) {
	r := NewRateLimiter(10, 5)

	r.OnThrottled()
	r.OnThrottled()
	if r.currentBackoff() != 2*time.Second {
		t.Fatalf("expected 2s backoff, got %s", r.currentBackoff())
	}

	r.OnSuccess()
	if r.currentBackoff() != 0 {
		t.Fatalf("expected reset backoff, got %s", r.currentBackoff())
	}
	if got := r.OnThrottled(); got != 1*time.Second {
		t.Fatalf("expected streak restart at 1s, got %s", got)
	}
}

func TestRateLimiter_AcquireHonorsDeadline(t *testing.T) {
	r := NewRateLimiter(10, 5)
	r.OnThrottled() // 1s hold-off

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Acquire(ctx)
	if err == nil {
		t.Fatal("expected deadline error during hold-off")
	}
	if ctx.Err() == nil {
		t.Fatal("expected context to be expired")
	}
}

func TestRateLimiter_AcquireImmediateWhenIdle(t *testing.T) {
	r := NewRateLimiter(100, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := r.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("acquire should not block when tokens are available")
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	r := NewRateLimiter(0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error with default limits: %v", err)
	}
}
