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

	"github.com/gin-gonic/gin"

	"motomar-api/config"
	"motomar-api/database"
	"motomar-api/jobs"
	"motomar-api/logger"
	"motomar-api/middleware"
	"motomar-api/routes"
	"motomar-api/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, !cfg.IsProduction()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalw("invalid configuration", "error", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DBDriver, cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		logger.Log.Fatalw("failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalw("failed to migrate database", "error", err)
	}

	if err := database.SeedData(db, cfg.AdminPassword); err != nil {
		logger.Log.Warnw("failed to seed database", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ipLimiter := services.PerMinute(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	sweepers := []jobs.Sweeper{ipLimiter}

	var accountCounter services.RateCounter
	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Log.Warnw("redis unavailable, using in-process account rate limit", "error", err)
		} else {
			defer client.Close()
			accountCounter = services.NewRedisRateCounter(client, cfg.UserRateLimitMax, cfg.UserRateLimitWindow)
		}
	}
	if accountCounter == nil {
		local := services.NewLocalRateCounter(cfg.UserRateLimitMax, cfg.UserRateLimitWindow)
		sweepers = append(sweepers, local.Pool())
		accountCounter = local
	}

	var storage services.ImageStorage
	if cfg.MinioEndpoint != "" {
		minioStorage, err := services.NewMinioImageStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
		if err != nil {
			logger.Log.Warnw("object storage unavailable, image upload disabled", "error", err)
		} else {
			storage = minioStorage
		}
	} else {
		logger.Log.Warnw("MINIO_ENDPOINT not set, image upload disabled")
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.NatsURL != "" {
		publisher, err := services.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			logger.Log.Warnw("nats unavailable, domain events disabled", "error", err)
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, routes.Dependencies{
		DB:             db,
		Config:         cfg,
		Mailer:         services.NewEmailService(cfg),
		Storage:        storage,
		Events:         events,
		AccountCounter: accountCounter,
		IPLimiter:      ipLimiter,
		Metrics:        middleware.NewMetrics("motomar"),
	})

	cleanupJob := jobs.NewLimiterCleanupJob("rate-limiters", 10*time.Minute, 30*time.Minute, sweepers...)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infow("MotoMar API listening", "port", cfg.Port, "environment", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("graceful shutdown failed", "error", err)
	}
}
