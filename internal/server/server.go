// Package server assembles the gatekeeper HTTP server and its routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/auth"
	"github.com/edgegate/gatekeeper/internal/config"
	"github.com/edgegate/gatekeeper/internal/middleware"
	"github.com/edgegate/gatekeeper/internal/ratelimit"
	"github.com/edgegate/gatekeeper/internal/session"
)

// Server is the gatekeeper HTTP server.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager auth.Manager
	limiter ratelimit.Limiter
	store   session.Store
	engine  *gin.Engine
	httpSrv *http.Server
}

// New wires the middleware chain and routes and returns a Server ready
// to start.
func New(
	cfg *config.Config,
	manager auth.Manager,
	limiter ratelimit.Limiter,
	store session.Store,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		limiter: limiter,
		store:   store,
		engine:  engine,
	}

	// Order matters: recovery outermost, then request identity and
	// logging, then the gate itself. Rate limiting covers every route,
	// public ones and CORS preflights included, and runs before auth so
	// over-quota clients cannot burn store lookups.
	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.LoggingWithConfig(middleware.LoggingConfig{
		Logger:    logger,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	engine.Use(middleware.Metrics())
	engine.Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
		Limiter:        limiter,
		KeyFunc:        ratelimit.PeerIPKeyFunc,
		Logger:         logger,
		IncludeHeaders: true,
	}))
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.Auth(middleware.AuthConfig{
		Manager:            manager,
		PublicPathPrefixes: cfg.Auth.PublicPathPrefixes,
		PublicPaths:        cfg.Auth.PublicPaths,
		Logger:             logger,
	}))

	s.registerRoutes()

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := s.engine.Group("/api/auth")
	{
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/logout", s.handleLogout)
	}

	api := s.engine.Group("/api")
	{
		api.GET("/me", s.handleMe)
	}
}

// Handler returns the underlying HTTP handler. Used in tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("address", s.cfg.Server.Address))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpSrv.Shutdown(ctx)
}
