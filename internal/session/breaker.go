package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/config"
)

// breakerStore wraps a Store with a circuit breaker so a struggling
// backend sheds load instead of holding every request to its timeout.
type breakerStore struct {
	inner  Store
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

var _ Store = (*breakerStore)(nil)

// NewBreakerStore decorates the store with a circuit breaker built from
// the given configuration. A disabled configuration returns the store
// unchanged.
func NewBreakerStore(inner Store, cfg config.BreakerConfig, logger *zap.Logger) Store {
	if !cfg.Enabled {
		return inner
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = config.DefaultBreakerFailureThreshold
	}
	openTimeout := cfg.OpenTimeout.Duration()
	if openTimeout <= 0 {
		openTimeout = config.DefaultBreakerOpenTimeout
	}

	bs := &breakerStore{inner: inner, logger: logger}

	settings := gobreaker.Settings{
		Name:        "session-store",
		MaxRequests: threshold,
		Interval:    openTimeout,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("session store circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	bs.cb = gobreaker.NewCircuitBreaker(settings)

	return bs
}

func (b *breakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return result, err
}

func (b *breakerStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.Set(ctx, key, value, ttl)
	})
	return err
}

func (b *breakerStore) Exists(ctx context.Context, key string) (bool, error) {
	result, err := b.execute(func() (any, error) {
		return b.inner.Exists(ctx, key)
	})
	if err != nil {
		return false, err
	}
	exists, _ := result.(bool)
	return exists, nil
}

func (b *breakerStore) Delete(ctx context.Context, key string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, key)
	})
	return err
}

func (b *breakerStore) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

func (b *breakerStore) Close() error {
	return b.inner.Close()
}
