// Package main provides the API server entry point for the wallet watchdog service.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-watchdog/internal/adapter"
	"github.com/wallet-watchdog/internal/api"
	"github.com/wallet-watchdog/internal/config"
	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/oracle"
	"github.com/wallet-watchdog/internal/service"
	"github.com/wallet-watchdog/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	reportRepo := storage.NewReportRepository(postgres)
	watchlistRepo := storage.NewWatchlistRepository(postgres)
	subscriptionRepo := storage.NewSubscriptionRepository(postgres)
	metricRepo := storage.NewMetricRepository(clickhouse)
	cacheService := storage.NewCacheService(redis, cfg.Cache.TTL)

	// Initialize the analysis oracle
	if cfg.Oracle.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required")
	}
	analysisOracle := oracle.NewOpenAIOracle(cfg.Oracle.APIKey, cfg.Oracle.Model)

	// Initialize the payment provider
	stripe := adapter.NewStripeClient(
		cfg.Payment.APIKey,
		cfg.Payment.BaseURL,
		cfg.Payment.SuccessURL,
		cfg.Payment.CancelURL,
	)

	// Initialize services
	logger.Info("Initializing services...")

	metricService := service.NewMetricService(metricRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)
	reportService := service.NewReportService(analysisOracle, reportRepo, subscriptionService, metricService)
	watchlistService := service.NewWatchlistService(analysisOracle, watchlistRepo, reportRepo, subscriptionService, metricService)
	analyticsService := service.NewAnalyticsService(metricRepo)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    90 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		FreeTierRPS:     cfg.RateLimit.FreeTier,
		PaidTierRPS:     cfg.RateLimit.PaidTier,
	}

	server := api.NewServer(
		serverConfig,
		reportService,
		watchlistService,
		subscriptionService,
		analyticsService,
		stripe,
		cacheService,
		metricService,
	)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
