// Package config provides configuration loading and validation for the gatekeeper.
package config

import (
	"fmt"
	"time"

	"github.com/edgegate/gatekeeper/internal/observability"
)

// Default configuration values.
const (
	// DefaultServerAddress is the default listen address.
	DefaultServerAddress = ":8080"

	// DefaultTokenTTL is the default lifetime of an issued session token.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultStoreTimeout is the default per-operation timeout for session
	// store calls.
	DefaultStoreTimeout = 3 * time.Second

	// DefaultRateLimitRequests is the default request quota per window.
	DefaultRateLimitRequests = 100

	// DefaultRateLimitWindow is the default rate limit window.
	DefaultRateLimitWindow = time.Minute

	// DefaultBreakerFailureThreshold is the default request count the
	// session store circuit breaker evaluates before tripping.
	DefaultBreakerFailureThreshold uint32 = 5

	// DefaultBreakerOpenTimeout is the default time the session store
	// circuit breaker stays open before probing again.
	DefaultBreakerOpenTimeout = 30 * time.Second
)

// Config is the top-level gatekeeper configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server" json:"server"`
	Redis     RedisConfig             `yaml:"redis" json:"redis"`
	Auth      AuthConfig              `yaml:"auth" json:"auth"`
	RateLimit RateLimitConfig         `yaml:"rateLimit" json:"rateLimit"`
	CORS      CORSConfig              `yaml:"cors" json:"cors"`
	Logging   observability.LogConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// RedisConfig holds session store configuration.
type RedisConfig struct {
	URL            string   `yaml:"url" json:"url"`
	PoolSize       int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// OperationTimeout bounds every session store call so a stalled Redis
	// cannot hold a request indefinitely.
	OperationTimeout Duration `yaml:"operationTimeout,omitempty" json:"operationTimeout,omitempty"`

	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the session store.
type BreakerConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	FailureThreshold uint32   `yaml:"failureThreshold,omitempty" json:"failureThreshold,omitempty"`
	OpenTimeout      Duration `yaml:"openTimeout,omitempty" json:"openTimeout,omitempty"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// JWTSecret is the process-wide HMAC signing secret.
	JWTSecret string `yaml:"jwtSecret" json:"jwtSecret"`

	// TokenTTL is the lifetime of issued tokens; the revocation record in
	// the session store uses the same value so it cannot outlive the
	// token's embedded expiry.
	TokenTTL Duration `yaml:"tokenTTL,omitempty" json:"tokenTTL,omitempty"`

	// PublicPathPrefixes lists path prefixes that bypass authentication.
	PublicPathPrefixes []string `yaml:"publicPathPrefixes,omitempty" json:"publicPathPrefixes,omitempty"`

	// PublicPaths lists exact paths that bypass authentication.
	PublicPaths []string `yaml:"publicPaths,omitempty" json:"publicPaths,omitempty"`

	// Users seeds the credential store.
	Users []UserConfig `yaml:"users,omitempty" json:"users,omitempty"`
}

// UserConfig is a seeded credential record.
type UserConfig struct {
	Username     string `yaml:"username" json:"username"`
	UserID       string `yaml:"userId" json:"userId"`
	PasswordHash string `yaml:"passwordHash" json:"passwordHash"`
}

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Algorithm string `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`

	// Requests is the quota per window, applied uniformly per client.
	Requests int      `yaml:"requests,omitempty" json:"requests,omitempty"`
	Window   Duration `yaml:"window,omitempty" json:"window,omitempty"`

	// Burst applies to the token bucket algorithm only.
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty"`
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins   []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
	AllowedMethods   []string `yaml:"allowedMethods,omitempty" json:"allowedMethods,omitempty"`
	AllowedHeaders   []string `yaml:"allowedHeaders,omitempty" json:"allowedHeaders,omitempty"`
	AllowCredentials bool     `yaml:"allowCredentials,omitempty" json:"allowCredentials,omitempty"`
	MaxAge           Duration `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultServerAddress,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Redis: RedisConfig{
			URL:              "redis://localhost:6379/0",
			OperationTimeout: Duration(DefaultStoreTimeout),
			Breaker: BreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				OpenTimeout:      Duration(30 * time.Second),
			},
		},
		Auth: AuthConfig{
			TokenTTL:           Duration(DefaultTokenTTL),
			PublicPathPrefixes: []string{"/api/auth/"},
			PublicPaths:        []string{"/", "/health", "/metrics"},
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			Algorithm: "sliding_window",
			Requests:  DefaultRateLimitRequests,
			Window:    Duration(DefaultRateLimitWindow),
		},
		Logging: observability.DefaultLogConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server: address is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis: url is required")
	}
	if c.Redis.OperationTimeout.Duration() <= 0 {
		return fmt.Errorf("redis: operationTimeout must be positive")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rateLimit: %w", err)
	}
	return nil
}

// Validate checks the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwtSecret is required")
	}
	if c.TokenTTL.Duration() <= 0 {
		return fmt.Errorf("tokenTTL must be positive")
	}
	for i, u := range c.Users {
		if u.Username == "" || u.UserID == "" || u.PasswordHash == "" {
			return fmt.Errorf("users[%d]: username, userId and passwordHash are required", i)
		}
	}
	return nil
}

// Validate checks the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive")
	}
	if c.Window.Duration() <= 0 {
		return fmt.Errorf("window must be positive")
	}
	switch c.Algorithm {
	case "", "sliding_window", "token_bucket":
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
	return nil
}
