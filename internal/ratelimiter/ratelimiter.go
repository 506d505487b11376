// Package ratelimiter throttles connection admission with a token bucket.
package ratelimiter

import (
	"golang.org/x/time/rate"
)

// RateLimiter admits events at a sustained rate with a bounded burst.
//
// The connector consults it once per accepted socket unless Unlimited
// reports true. A limiter built with a zero rate admits everything, so
// callers never need a nil check.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing perSecond events per second with the
// given burst capacity.
//
// A perSecond of 0 disables limiting. A burst of 0 is raised to perSecond so
// that at least one event per refill period can pass.
func New(perSecond, burst uint) *RateLimiter {
	if perSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = perSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(burst)),
	}
}

// Allow reports whether one event may happen now, consuming a token if so.
// It never blocks.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Unlimited reports whether the limiter admits every event.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}
