package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/metachat/accounts/internal/api"
	"github.com/metachat/accounts/internal/cache"
	"github.com/metachat/accounts/internal/config"
	"github.com/metachat/accounts/internal/event"
	"github.com/metachat/accounts/internal/repository/postgres"
	"github.com/metachat/accounts/internal/search"
	"github.com/metachat/accounts/internal/service"
	"github.com/metachat/accounts/internal/storage"
	"github.com/metachat/accounts/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	repos := postgres.NewRepositories(db)

	// Initialize session cache
	sessions, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Initialize event publisher; events are fire-and-forget, so a missing
	// broker only disables them.
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.RabbitURI != "" {
		publisher, err = event.NewAMQP(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			logger.Warn("broker unavailable, events disabled", "error", err)
			publisher = event.NopPublisher{}
		}
	} else {
		logger.Warn("RABBITMQ_URI not set, events disabled")
	}

	// Initialize search index
	index, err := search.Open(cfg.SearchIndexPath)
	if err != nil {
		logger.Error("failed to open search index", "path", cfg.SearchIndexPath, "error", err)
		os.Exit(1)
	}

	// Initialize avatar storage
	var avatars *storage.AvatarStore
	if cfg.MinioEndpoint != "" {
		avatars, err = storage.NewAvatarStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Error("failed to initialize avatar storage", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set, avatar uploads disabled")
	}

	// Initialize services
	tokens := token.NewService(sessions, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger)
	services := service.NewServices(repos, tokens, sessions, publisher, index, avatars, cfg.OTPTTL, logger)

	// Initialize router
	router := api.NewRouter(services)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
