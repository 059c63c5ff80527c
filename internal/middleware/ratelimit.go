package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/metrics"
	"github.com/edgegate/gatekeeper/internal/ratelimit"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use.
	Limiter ratelimit.Limiter

	// KeyFunc extracts the rate limit key from the request.
	KeyFunc ratelimit.KeyFunc

	// Logger for logging rate limit events.
	Logger *zap.Logger

	// SkipPaths is a list of paths to skip rate limiting.
	SkipPaths []string

	// IncludeHeaders determines whether to include rate limit headers.
	IncludeHeaders bool
}

// RateLimit returns a middleware that applies rate limiting per client
// key. If the limiter itself cannot be consulted the request is
// rejected rather than admitted unchecked.
func RateLimit(limiter ratelimit.Limiter, keyFunc ratelimit.KeyFunc) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{
		Limiter:        limiter,
		KeyFunc:        keyFunc,
		IncludeHeaders: true,
	})
}

// RateLimitWithConfig returns a rate limit middleware with custom configuration.
func RateLimitWithConfig(config RateLimitConfig) gin.HandlerFunc {
	if config.Limiter == nil {
		config.Limiter = ratelimit.NewNoopLimiter()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = ratelimit.PeerIPKeyFunc
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := config.KeyFunc(c.Request)

		result, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			config.Logger.Error("rate limit check failed",
				zap.String("key", key),
				zap.Error(err))
			metrics.RateLimitRejectionsTotal.WithLabelValues("limiter_error").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "too_many_requests",
				"message": "rate limit exceeded",
			})
			return
		}

		if config.IncludeHeaders && result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(result.ResetAfter).Unix(), 10))
		}

		if !result.Allowed {
			if config.IncludeHeaders {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			}

			config.Logger.Debug("rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", result.Limit))
			metrics.RateLimitRejectionsTotal.WithLabelValues("quota").Inc()

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too_many_requests",
				"message":     "rate limit exceeded",
				"retry_after": int(result.RetryAfter.Seconds()),
			})
			return
		}

		c.Next()
	}
}
