package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/saferoute-microservice/internal/config"
	"github.com/saferoute-microservice/internal/pkg/logger"
	"github.com/saferoute-microservice/internal/repository/cache"
	"github.com/saferoute-microservice/internal/repository/postgres"
	redisRepo "github.com/saferoute-microservice/internal/repository/redis"
	"github.com/saferoute-microservice/internal/usecase"
	"github.com/saferoute-microservice/internal/worker"
	"github.com/saferoute-microservice/internal/worker/scoring"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Scoring Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize))

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

	// 5. Connect to Redis Streams (job transport)
	streamsClient, err := cache.NewRedisStreams(&cfg.Streams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 6. Initialize repositories
	crimeRepo := postgres.NewCrimeRepository(db)
	lightingRepo := postgres.NewLightingRepository(db)
	institutionRepo := postgres.NewInstitutionRepository(db)
	footTrafficRepo := postgres.NewFootTrafficRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)

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

	// 8. Initialize and register the worker
	scoreWorker := scoring.NewRouteScoreWorker(
		streamRepo,
		scoringUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.BatchSize,
		log,
	)

	manager := worker.NewManager(log)
	manager.Register(scoreWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := manager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
