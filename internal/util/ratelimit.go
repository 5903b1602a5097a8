package util

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket refilled at a fixed rate, holding at most
// burst tokens.
type RateLimiter struct {
	lim *rate.Limiter
	now func() time.Time
}

// NewRateLimiter allows perMinute operations per minute with a burst of one.
func NewRateLimiter(perMinute int) *RateLimiter {
	return NewBurstLimiter(perMinute, 1)
}

// NewBurstLimiter allows perMinute operations per minute and up to burst
// operations back to back. The bucket starts full.
func NewBurstLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		lim: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		now: time.Now,
	}
}

// Allow takes a token if one is available without waiting.
func (rl *RateLimiter) Allow() bool {
	return rl.lim.AllowN(rl.now(), 1)
}

// Wait blocks until a token is available or ctx is done. A cancelled wait
// gives its reservation back.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	now := rl.now()
	r := rl.lim.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limiter: burst %d cannot admit a call", rl.lim.Burst())
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
