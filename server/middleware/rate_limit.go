// Package middleware holds echo middleware shared by the HTTP routes.
package middleware

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter provides per-key rate limiting.
type RateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	rate  rate.Limit
	burst int
}

// NewRateLimiter creates a rate limiter allowing perSecond requests per key
// with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		rate:   rate.Limit(perSecond),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.limits[key]
	rl.mu.RUnlock()
	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Middleware rejects requests over the limit with onLimit. keyFunc picks the
// key of a request, usually the caller identity.
func (rl *RateLimiter) Middleware(keyFunc func(c echo.Context) string, onLimit func(c echo.Context) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(keyFunc(c)) {
				return onLimit(c)
			}
			return next(c)
		}
	}
}
