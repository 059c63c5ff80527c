// Package ratelimit provides per-client request rate limiting.
// It supports sliding window and token bucket algorithms.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/config"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	Allow(ctx context.Context, key string) (*Result, error)

	// GetLimit returns the limit configuration for the given key.
	GetLimit(key string) *Limit

	// Reset resets the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}

// Limit represents rate limit configuration.
type Limit struct {
	// Requests is the maximum number of requests allowed in the window.
	Requests int

	// Window is the time window for the rate limit.
	Window time.Duration

	// Burst is the maximum burst size (for token bucket algorithm).
	Burst int
}

// Result represents the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAfter is the duration until the rate limit resets.
	ResetAfter time.Duration

	// RetryAfter is the duration to wait before retrying (when not allowed).
	RetryAfter time.Duration
}

// Algorithm represents the rate limiting algorithm type.
type Algorithm string

const (
	// AlgorithmSlidingWindow uses the sliding window algorithm.
	AlgorithmSlidingWindow Algorithm = "sliding_window"

	// AlgorithmTokenBucket uses the token bucket algorithm.
	AlgorithmTokenBucket Algorithm = "token_bucket"
)

// NewLimiter builds a Limiter from configuration. A disabled
// configuration yields a NoopLimiter.
func NewLimiter(cfg config.RateLimitConfig, logger *zap.Logger) (Limiter, error) {
	if !cfg.Enabled {
		return NewNoopLimiter(), nil
	}

	switch Algorithm(cfg.Algorithm) {
	case AlgorithmSlidingWindow, "":
		return NewSlidingWindowLimiter(cfg.Requests, cfg.Window.Duration(), logger), nil
	case AlgorithmTokenBucket:
		rate := float64(cfg.Requests) / cfg.Window.Duration().Seconds()
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Requests
		}
		return NewTokenBucketLimiter(rate, burst, logger), nil
	default:
		return nil, fmt.Errorf("unknown rate limit algorithm %q", cfg.Algorithm)
	}
}

// NoopLimiter is a rate limiter that always allows requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(_ context.Context, _ string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

// GetLimit implements Limiter.
func (l *NoopLimiter) GetLimit(_ string) *Limit {
	return nil
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(_ context.Context, _ string) error {
	return nil
}
