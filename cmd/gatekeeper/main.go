// Package main is the entry point for the gatekeeper.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/edgegate/gatekeeper/internal/auth"
	"github.com/edgegate/gatekeeper/internal/config"
	"github.com/edgegate/gatekeeper/internal/observability"
	"github.com/edgegate/gatekeeper/internal/ratelimit"
	"github.com/edgegate/gatekeeper/internal/server"
	"github.com/edgegate/gatekeeper/internal/session"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	if err := run(cfg, logger); err != nil {
		logger.Error("gatekeeper failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("GATEKEEPER_CONFIG_PATH", "configs/gatekeeper.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("GATEKEEPER_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("GATEKEEPER_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("gatekeeper version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) *zap.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger *zap.Logger) *config.Config {
	logger.Info("starting gatekeeper",
		zap.String("version", version),
		zap.String("config", configPath))

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("address", cfg.Server.Address),
		zap.Int("users", len(cfg.Auth.Users)),
		zap.Bool("rateLimitEnabled", cfg.RateLimit.Enabled),
		zap.Int("rateLimitRequests", cfg.RateLimit.Requests))

	return cfg
}

// run wires the components, starts the server and blocks until shutdown.
// Returning an error (rather than logging fatally) lets the deferred
// cleanups run before the process exits.
func run(cfg *config.Config, logger *zap.Logger) error {
	store, err := session.NewRedisStore(&cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect to session store: %w", err)
	}
	store = session.NewBreakerStore(store, cfg.Redis.Breaker, logger)
	defer func() { _ = store.Close() }()

	codec, err := auth.NewHMACCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL.Duration())
	if err != nil {
		return fmt.Errorf("initialize token codec: %w", err)
	}

	users := make([]auth.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.User{
			Username:     u.Username,
			UserID:       u.UserID,
			PasswordHash: u.PasswordHash,
		})
	}

	manager := auth.NewManager(
		auth.NewMemoryUserStore(users),
		auth.BcryptVerifier{},
		codec,
		store,
		auth.WithLogger(logger),
	)

	limiter, err := ratelimit.NewLimiter(cfg.RateLimit, logger)
	if err != nil {
		return fmt.Errorf("initialize rate limiter: %w", err)
	}
	if closer, ok := limiter.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	srv := server.New(cfg, manager, limiter, store, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", zap.Error(err))
	}

	logger.Info("gatekeeper stopped")
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
