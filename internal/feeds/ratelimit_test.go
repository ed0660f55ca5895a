package feeds

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("call %d should not block: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst within the limit took %v, expected near-instant", elapsed)
	}
}

func TestRateLimiterBlocksWhenWindowFull(t *testing.T) {
	limiter := NewRateLimiter(2, 150*time.Millisecond)
	ctx := context.Background()

	limiter.Wait(ctx)
	limiter.Wait(ctx)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("third call should eventually succeed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("third call returned after %v, expected to wait for the window", elapsed)
	}
}

func TestRateLimiterHonorsContextCancel(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	limiter.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error while window is full, got %v", err)
	}
}

func TestDoWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := doWithRetry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoWithRetryReturnsLastError(t *testing.T) {
	sentinel := errors.New("still down")
	attempts := 0
	err := doWithRetry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected last error back, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := doWithRetry(ctx, 5, time.Hour, func() error {
		attempts++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error during backoff, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt before the canceled backoff, got %d", attempts)
	}
}
