package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var _ io.Closer = (*TokenBucketLimiter)(nil)

// TokenBucketLimiter implements token bucket rate limiting with one
// bucket per key. Tokens refill at a fixed rate and each request
// consumes one. Implements io.Closer; call Close when done to stop the
// background cleanup goroutine.
type TokenBucketLimiter struct {
	rate   float64
	burst  int
	logger *zap.Logger

	buckets sync.Map

	cleanupInterval time.Duration
	bucketTTL       time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

// bucket pairs a rate.Limiter with its last use time for cleanup.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
// Starts a background cleanup goroutine to drop idle buckets.
func NewTokenBucketLimiter(ratePerSec float64, burst int, logger *zap.Logger) *TokenBucketLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &TokenBucketLimiter{
		rate:            ratePerSec,
		burst:           burst,
		logger:          logger,
		cleanupInterval: 5 * time.Minute,
		bucketTTL:       10 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go l.startCleanupLoop()

	return l
}

func (l *TokenBucketLimiter) startCleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(l.bucketTTL)
		case <-l.stopCleanup:
			return
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (l *TokenBucketLimiter) Close() error {
	l.cleanupOnce.Do(func() {
		close(l.stopCleanup)
	})
	return nil
}

// Allow implements Limiter.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := time.Now()

	value, _ := l.buckets.LoadOrStore(key, &bucket{
		limiter: rate.NewLimiter(rate.Limit(l.rate), l.burst),
	})
	b := value.(*bucket)

	b.mu.Lock()
	b.lastSeen = now
	reservation := b.limiter.ReserveN(now, 1)
	b.mu.Unlock()

	allowed := reservation.OK() && reservation.DelayFrom(now) == 0
	var retryAfter time.Duration
	if !allowed {
		retryAfter = reservation.DelayFrom(now)
		reservation.CancelAt(now)
	}

	remaining := int(b.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	tokensNeeded := float64(l.burst) - b.limiter.TokensAt(now)
	resetAfter := time.Duration(tokensNeeded / l.rate * float64(time.Second))
	if resetAfter < 0 {
		resetAfter = 0
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.burst,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}, nil
}

// GetLimit implements Limiter.
func (l *TokenBucketLimiter) GetLimit(_ string) *Limit {
	return &Limit{
		Requests: int(l.rate),
		Window:   time.Second,
		Burst:    l.burst,
	}
}

// Reset implements Limiter.
func (l *TokenBucketLimiter) Reset(_ context.Context, key string) error {
	l.buckets.Delete(key)
	return nil
}

// Cleanup removes buckets idle for longer than maxAge.
func (l *TokenBucketLimiter) Cleanup(maxAge time.Duration) {
	now := time.Now()

	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		if now.Sub(b.lastSeen) > maxAge {
			l.buckets.Delete(key)
		}
		b.mu.Unlock()
		return true
	})
}
