package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/questforge/pigateway/internal/api"
	"github.com/questforge/pigateway/internal/factory"
	"github.com/questforge/pigateway/internal/pinet"
	"github.com/questforge/pigateway/internal/services/ratelimit"
	"github.com/questforge/pigateway/internal/services/session"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	networkCfg := pinet.DefaultConfig()
	networkCfg.APIKey = os.Getenv("NETWORK_API_KEY")
	if networkCfg.APIKey == "" {
		logger.Error("NETWORK_API_KEY is required")
		os.Exit(1)
	}
	if baseURL := os.Getenv("NETWORK_BASE_URL"); baseURL != "" {
		networkCfg.BaseURL = baseURL
	}

	sessionCfg := session.DefaultConfig()
	sessionCfg.Secret = os.Getenv("SESSION_SECRET")
	if sessionCfg.Secret == "" {
		logger.Error("SESSION_SECRET is required")
		os.Exit(1)
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			logger.Error("invalid SESSION_TTL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sessionCfg.TTL = parsed
	}

	rateCfg := ratelimit.DefaultConfig()
	if limit := os.Getenv("VERIFY_RATE_LIMIT"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			logger.Error("invalid VERIFY_RATE_LIMIT", slog.String("error", err.Error()))
			os.Exit(1)
		}
		rateCfg.Limit = parsed
	}

	cfg := factory.Config{
		Logger:        logger,
		StorageType:   os.Getenv("STORAGE_TYPE"),
		NetworkConfig: networkCfg,
		VerifyMode:    os.Getenv("VERIFY_MODE"),
		RateLimit:     rateCfg,
		SessionConfig: sessionCfg,
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
	case factory.StorageTypePostgres:
		cfg.PostgresURL = os.Getenv("DATABASE_URL")
		if cfg.PostgresURL == "" {
			logger.Error("DATABASE_URL required when STORAGE_TYPE=postgres")
			os.Exit(1)
		}
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:  logger,
		Gateway: app.Gateway,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid PORT", slog.String("error", err.Error()))
			os.Exit(1)
		}
		serverConfig.Port = parsed
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
