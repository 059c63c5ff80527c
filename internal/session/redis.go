package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/config"
)

// redisStore implements Store on a Redis client.
type redisStore struct {
	logger    *zap.Logger
	client    *redis.Client
	opTimeout time.Duration
}

var _ Store = (*redisStore)(nil)

// NewRedisStore connects to Redis using the given configuration and
// verifies the connection before returning.
func NewRedisStore(cfg *config.RedisConfig, logger *zap.Logger) (Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	applyPoolOptions(opts, cfg)

	client := redis.NewClient(opts)

	if err := pingRedis(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	opTimeout := cfg.OperationTimeout.Duration()
	if opTimeout <= 0 {
		opTimeout = config.DefaultStoreTimeout
	}

	logger.Info("redis session store initialized",
		zap.Int("poolSize", opts.PoolSize),
		zap.Duration("operationTimeout", opTimeout))

	return &redisStore{
		logger:    logger,
		client:    client,
		opTimeout: opTimeout,
	}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used in tests.
func NewRedisStoreFromClient(client *redis.Client, opTimeout time.Duration, logger *zap.Logger) Store {
	if opTimeout <= 0 {
		opTimeout = config.DefaultStoreTimeout
	}
	return &redisStore{
		logger:    logger,
		client:    client,
		opTimeout: opTimeout,
	}
}

// applyPoolOptions applies pool and timeout configuration overrides.
func applyPoolOptions(opts *redis.Options, cfg *config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.ConnectTimeout.Duration()
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout.Duration()
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout.Duration()
	}
}

// pingRedis tests the Redis connection with a timeout.
func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

func (s *redisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Error("redis set failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.logger.Error("redis exists failed", zap.Error(err))
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("redis delete failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	s.logger.Info("redis session store closing")
	return s.client.Close()
}
