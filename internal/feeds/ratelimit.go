// Package feeds implements the market-data adapters behind the core's feed
// interfaces: daily bars and the macro pair from a quote API, headlines from
// an RSS endpoint, and options positioning derived from the option chain.
// Retry, rate limiting, and response validation live here, not in the core.
package feeds

import (
	"context"
	"sync"
	"time"
)

// RateLimiter caps calls inside a rolling window. Wait blocks until a slot
// frees up or the context ends.
type RateLimiter struct {
	mu       sync.Mutex
	calls    []time.Time
	maxCalls int
	period   time.Duration
}

// NewRateLimiter allows maxCalls per period.
func NewRateLimiter(maxCalls int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		calls:    make([]time.Time, 0, maxCalls),
		maxCalls: maxCalls,
		period:   period,
	}
}

// Wait claims a call slot, sleeping until one opens if the window is full.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-r.period)

		recent := r.calls[:0]
		for _, t := range r.calls {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		r.calls = recent

		if len(r.calls) < r.maxCalls {
			r.calls = append(r.calls, now)
			r.mu.Unlock()
			return nil
		}

		wait := r.calls[0].Add(r.period).Sub(now)
		r.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// doWithRetry runs fn up to attempts times, doubling the backoff between
// tries. The final error is returned unwrapped so callers keep the sentinel.
func doWithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
