package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saferoute-microservice/internal/config"
	httpDelivery "github.com/saferoute-microservice/internal/delivery/http"
	"github.com/saferoute-microservice/internal/delivery/http/handler"
	"github.com/saferoute-microservice/internal/pkg/logger"
	"github.com/saferoute-microservice/internal/repository/cache"
	"github.com/saferoute-microservice/internal/repository/postgres"
	"github.com/saferoute-microservice/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting SafeRoute Scoring Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Connect to PostgreSQL (spatial signal store)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis (signal cache)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize repositories
	crimeRepo := postgres.NewCrimeRepository(db)
	lightingRepo := postgres.NewLightingRepository(db)
	institutionRepo := postgres.NewInstitutionRepository(db)
	footTrafficRepo := postgres.NewFootTrafficRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	segmentScorer := usecase.NewSegmentScorer(
		crimeRepo,
		lightingRepo,
		institutionRepo,
		footTrafficRepo,
		cacheRepo,
		cfg.Cache.SignalCacheTTL,
		cfg.Scoring.InstitutionTypes,
		log,
	)

	scoringUC := usecase.NewScoringUseCase(segmentScorer, log)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers and server
	scoreHandler := handler.NewScoreHandler(scoringUC, log)

	server := httpDelivery.NewServer(cfg, log, scoreHandler)

	log.Info("HTTP server initialized")

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
