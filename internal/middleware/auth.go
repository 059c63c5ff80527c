// Package middleware provides the gin middleware chain for the gatekeeper.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/auth"
	"github.com/edgegate/gatekeeper/internal/metrics"
)

// PrincipalKey is the gin context key carrying the authenticated principal.
const PrincipalKey = "principal"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Manager validates bearer tokens.
	Manager auth.Manager

	// PublicPathPrefixes lists path prefixes exempt from authentication.
	PublicPathPrefixes []string

	// PublicPaths lists exact paths exempt from authentication.
	PublicPaths []string

	// Logger for logging auth events.
	Logger *zap.Logger
}

// IsPublicPath reports whether the path is exempt from authentication.
func (c *AuthConfig) IsPublicPath(path string) bool {
	for _, prefix := range c.PublicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, p := range c.PublicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Auth returns a middleware that validates bearer tokens on protected
// routes and attaches the resulting principal to the request context.
// Public paths pass through with no principal attached.
func Auth(config AuthConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if config.IsPublicPath(path) {
			c.Next()
			return
		}

		token, ok := ExtractBearerToken(c.Request)
		if !ok {
			config.Logger.Debug("no bearer token provided",
				zap.String("path", path),
				zap.String("method", c.Request.Method))
			metrics.AuthValidationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authentication required",
			})
			return
		}

		principal, err := config.Manager.Validate(c.Request.Context(), token)
		if err != nil {
			handleValidationError(c, config.Logger, path, err)
			return
		}

		metrics.AuthValidationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}

// handleValidationError translates a validation failure to an HTTP
// response without echoing internal error detail.
func handleValidationError(c *gin.Context, logger *zap.Logger, path string, err error) {
	switch {
	case errors.Is(err, auth.ErrSessionStore):
		logger.Error("token validation failed on session store",
			zap.String("path", path), zap.Error(err))
		metrics.AuthValidationsTotal.WithLabelValues(metrics.ResultStoreError).Inc()
		metrics.SessionStoreErrorsTotal.WithLabelValues("exists").Inc()
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"message": "authentication temporarily unavailable",
		})
	case errors.Is(err, auth.ErrTokenExpiredOrRevoked):
		logger.Debug("token expired or revoked", zap.String("path", path))
		metrics.AuthValidationsTotal.WithLabelValues(metrics.ResultRevoked).Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "token expired or revoked",
		})
	default:
		logger.Debug("token validation failed", zap.String("path", path))
		metrics.AuthValidationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "invalid token",
		})
	}
}

// GetPrincipal returns the principal attached by the auth middleware.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*auth.Principal)
	return principal, ok
}

// ExtractBearerToken extracts a bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
