// Package ratelimit bounds the number of API requests issued per time
// window. HCP Terraform publishes a limit of 20 requests per second per
// token, which is the default used here.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond matches the published HCP Terraform API
// rate limit guidance.
const DefaultRequestsPerSecond = 20

// Limiter is a token bucket shared by every request a client issues.
// One run of the tool holds exactly one Limiter; nothing is persisted
// across runs.
type Limiter struct {
	lim *rate.Limiter
}

// New returns a Limiter that allows n acquisitions per window. The bucket
// starts full, so the first n acquisitions succeed immediately.
func New(n int, window time.Duration) *Limiter {
	return &Limiter{
		lim: rate.NewLimiter(rate.Limit(float64(n)/window.Seconds()), n),
	}
}

// NewDefault returns a Limiter configured for the published API limit.
func NewDefault() *Limiter {
	return New(DefaultRequestsPerSecond, time.Second)
}

// Unlimited returns a Limiter that never delays. Tests use it to keep
// request pacing out of the picture.
func Unlimited() *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
}

// Acquire consumes a token if one is available. When no token is
// available nothing is consumed and retryAfter reports the minimum time
// the caller must wait before trying again.
func (l *Limiter) Acquire() (ok bool, retryAfter time.Duration) {
	r := l.lim.Reserve()
	if !r.OK() {
		// Cannot happen with the constructors above (burst >= 1), but
		// a reservation the limiter can never satisfy must not be held.
		return false, time.Second
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

// Wait blocks until a token has been consumed or ctx is done. A failed
// acquisition only delays the caller; it is never surfaced as an error.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		ok, retryAfter := l.Acquire()
		if ok {
			return nil
		}
		t := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
