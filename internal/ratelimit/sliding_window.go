package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ io.Closer = (*SlidingWindowLimiter)(nil)

// SlidingWindowLimiter implements sliding window rate limiting over an
// exact per-key timestamp log. A request is admitted when fewer than
// the limit of admitted timestamps fall inside the trailing window.
// Rejected requests are not recorded, so sustained over-limit traffic
// cannot extend its own penalty.
type SlidingWindowLimiter struct {
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time

	windows sync.Map

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

// windowState holds the admitted timestamps for one key.
type windowState struct {
	requests []time.Time
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
// Starts a background cleanup goroutine to drop idle keys; call Close
// when done.
func NewSlidingWindowLimiter(limit int, window time.Duration, logger *zap.Logger) *SlidingWindowLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &SlidingWindowLimiter{
		limit:           limit,
		window:          window,
		logger:          logger,
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go l.startCleanupLoop()

	return l
}

// SetClock overrides the limiter's time source. Used in tests.
func (l *SlidingWindowLimiter) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

func (l *SlidingWindowLimiter) startCleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(l.window)
		case <-l.stopCleanup:
			return
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (l *SlidingWindowLimiter) Close() error {
	l.cleanupOnce.Do(func() {
		close(l.stopCleanup)
	})
	return nil
}

// Allow implements Limiter.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := l.now()
	ws := l.getOrCreateWindowState(key)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	l.pruneExpired(ws, now)

	currentCount := len(ws.requests)
	allowed := currentCount < l.limit
	if allowed {
		ws.requests = append(ws.requests, now)
		currentCount++
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  l.calculateRemaining(currentCount),
		ResetAfter: l.calculateResetAfter(ws, now),
		RetryAfter: l.calculateRetryAfter(ws, now, allowed),
	}, nil
}

func (l *SlidingWindowLimiter) getOrCreateWindowState(key string) *windowState {
	value, _ := l.windows.LoadOrStore(key, &windowState{
		requests: make([]time.Time, 0),
	})
	return value.(*windowState)
}

// pruneExpired removes timestamps outside the trailing window. A
// timestamp exactly window old no longer counts.
func (l *SlidingWindowLimiter) pruneExpired(ws *windowState, now time.Time) {
	windowStart := now.Add(-l.window)
	validRequests := make([]time.Time, 0, len(ws.requests))
	for _, t := range ws.requests {
		if t.After(windowStart) {
			validRequests = append(validRequests, t)
		}
	}
	ws.requests = validRequests
}

func (l *SlidingWindowLimiter) calculateRemaining(currentCount int) int {
	remaining := l.limit - currentCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (l *SlidingWindowLimiter) calculateResetAfter(ws *windowState, now time.Time) time.Duration {
	if len(ws.requests) == 0 {
		return l.window
	}

	oldestRequest := ws.requests[0]
	resetAfter := oldestRequest.Add(l.window).Sub(now)
	if resetAfter < 0 {
		resetAfter = 0
	}
	return resetAfter
}

// calculateRetryAfter reports when the oldest admitted timestamp falls
// out of the window, freeing one slot.
func (l *SlidingWindowLimiter) calculateRetryAfter(ws *windowState, now time.Time, allowed bool) time.Duration {
	if allowed || len(ws.requests) == 0 {
		return 0
	}

	oldestRequest := ws.requests[0]
	retryAfter := oldestRequest.Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return retryAfter
}

// GetLimit implements Limiter.
func (l *SlidingWindowLimiter) GetLimit(_ string) *Limit {
	return &Limit{
		Requests: l.limit,
		Window:   l.window,
		Burst:    l.limit,
	}
}

// Reset implements Limiter.
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.windows.Delete(key)
	return nil
}

// Cleanup removes window states whose every timestamp is older than maxAge.
func (l *SlidingWindowLimiter) Cleanup(maxAge time.Duration) {
	now := l.now()
	windowStart := now.Add(-maxAge)

	l.windows.Range(func(key, value any) bool {
		ws := value.(*windowState)
		ws.mu.Lock()

		allOld := true
		for _, t := range ws.requests {
			if t.After(windowStart) {
				allOld = false
				break
			}
		}

		if allOld {
			l.windows.Delete(key)
		}

		ws.mu.Unlock()
		return true
	})
}
