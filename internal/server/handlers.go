package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/auth"
	"github.com/edgegate/gatekeeper/internal/metrics"
	"github.com/edgegate/gatekeeper/internal/middleware"
)

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "username and password are required",
		})
		return
	}

	result, err := s.manager.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.handleLoginError(c, err)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "invalid username or password",
		})
	case errors.Is(err, auth.ErrSessionStore):
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.ResultStoreError).Inc()
		metrics.SessionStoreErrorsTotal.WithLabelValues("set").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"message": "login temporarily unavailable",
		})
	default:
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.ResultIssuerError).Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "login failed",
		})
	}
}

func (s *Server) handleLogout(c *gin.Context) {
	// Logout never inspects the token beyond using it as a store key, so
	// it works on expired and malformed tokens too.
	token, ok := middleware.ExtractBearerToken(c.Request)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "missing bearer token",
		})
		return
	}

	if err := s.manager.Logout(c.Request.Context(), token); err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("delete").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"message": "logout temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleMe(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, principal)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "gatekeeper",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"checks": gin.H{"sessionStore": "down"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": gin.H{"sessionStore": "up"},
	})
}
