package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/auth"
	"remitdesk/internal/cache"
	"remitdesk/internal/config"
	"remitdesk/internal/db"
	"remitdesk/internal/entities"
	"remitdesk/internal/handler"
	"remitdesk/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Setup logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("starting remitdesk",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port),
		zap.String("platform", cfg.Upstream.BaseURL),
	)

	// Connect to PostgreSQL (audit journal)
	var database *db.DB
	if cfg.Database.URL != "" {
		database, err = db.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("connected to PostgreSQL")
	} else {
		logger.Warn("DATABASE_URL is off, audit journal disabled")
	}

	// Connect to Redis
	var (
		cacheClient *cache.Client
		sessions    auth.Store
	)
	if cfg.Redis.URL != "" {
		cacheClient, err = cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer cacheClient.Close()
		sessions = auth.NewRedisStore(cacheClient)
		logger.Info("connected to Redis")
	} else {
		sessions = auth.NewMemoryStore()
		logger.Warn("REDIS_URL is off, sessions kept in memory")
	}

	// Platform and entities backends
	onUnauthorized := handler.DropSessionOnUnauthorized(sessions, logger)

	api, err := apiclient.New(apiclient.Options{
		BaseURL:        cfg.Upstream.BaseURL,
		HTTPClient:     &http.Client{Timeout: cfg.Upstream.Timeout},
		Logger:         logger.Named("platform"),
		RequestsPerSec: cfg.Upstream.RequestsPerSec,
		Burst:          cfg.Upstream.Burst,
		OnUnauthorized: onUnauthorized,
	})
	if err != nil {
		return fmt.Errorf("create platform client: %w", err)
	}

	entitiesAPI, err := apiclient.New(apiclient.Options{
		BaseURL:        cfg.Entities.BaseURL,
		HTTPClient:     &http.Client{Timeout: cfg.Entities.Timeout},
		Logger:         logger.Named("entities"),
		RequestsPerSec: cfg.Entities.RequestsPerSec,
		Burst:          cfg.Entities.Burst,
		OnUnauthorized: onUnauthorized,
	})
	if err != nil {
		return fmt.Errorf("create entities client: %w", err)
	}

	srv := server.New(server.Config{
		App:         cfg,
		Database:    database,
		CacheClient: cacheClient,
		API:         api,
		Entities:    entities.NewClient(entitiesAPI),
		Sessions:    sessions,
		Logger:      logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("remitdesk ready", zap.Int("port", cfg.Server.Port))

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
