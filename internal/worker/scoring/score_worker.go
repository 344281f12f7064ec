package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/saferoute-microservice/internal/domain"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/usecase"
	"github.com/saferoute-microservice/internal/usecase/dto"
	"github.com/saferoute-microservice/internal/worker"
	"go.uber.org/zap"
)

const (
	emptyQueueSleep = 100 * time.Millisecond
)

// RouteScoreWorker consumes route scoring jobs from the score stream,
// evaluates them with the scoring engine and publishes done events. Each
// job is independent: a failed job produces a done event carrying the
// error, it never blocks or degrades the jobs around it.
type RouteScoreWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	scorer       usecase.RouteScorer
	consumerName string
	batchSize    int
}

// NewRouteScoreWorker creates a RouteScoreWorker.
func NewRouteScoreWorker(
	streamRepo repository.StreamRepository,
	scorer usecase.RouteScorer,
	consumerGroup string,
	batchSize int,
	logger *zap.Logger,
) *RouteScoreWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &RouteScoreWorker{
		BaseWorker:   worker.NewBaseWorker("route-scoring", consumerGroup, logger),
		streamRepo:   streamRepo,
		scorer:       scorer,
		consumerName: consumerName,
		batchSize:    batchSize,
	}
}

// Start runs the consume loop until the worker is stopped.
func (w *RouteScoreWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RouteScoreWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamRouteScore, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			if processed == 0 {
				time.Sleep(emptyQueueSleep)
			}
		}
	}
}

// processBatch reads and handles one batch of scoring jobs. Returns the
// number of messages consumed.
func (w *RouteScoreWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamRouteScore,
		w.ConsumerGroup(),
		w.consumerName,
		w.batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil // queue is empty
	}

	logger.Info("Processing batch",
		zap.Int("message_count", len(messages)))

	processedIDs := make([]string, 0, len(messages))

	for _, msg := range messages {
		event, err := w.parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK the broken message so it doesn't get stuck
			_ = w.streamRepo.AckMessage(ctx, domain.StreamRouteScore, w.ConsumerGroup(), msg.ID)
			continue
		}

		doneEvent := w.scoreEvent(ctx, event)

		if err := w.streamRepo.PublishToStream(ctx, domain.StreamRouteScoreDone, doneEvent); err != nil {
			logger.Error("Failed to publish done event",
				zap.String("request_id", event.RequestID.String()),
				zap.Error(err))
			// Leave the message un-ACKed so it gets redelivered
			continue
		}

		processedIDs = append(processedIDs, msg.ID)
	}

	if err := w.streamRepo.AckMessages(ctx, domain.StreamRouteScore, w.ConsumerGroup(), processedIDs); err != nil {
		logger.Error("Failed to ack messages", zap.Error(err))
		// Not fatal - the messages will be redelivered
	}

	logger.Info("Batch processed",
		zap.Int("consumed", len(messages)),
		zap.Int("processed", len(processedIDs)))

	return len(messages), nil
}

// scoreEvent runs one scoring job and wraps the outcome in a done event.
func (w *RouteScoreWorker) scoreEvent(ctx context.Context, event *domain.RouteScoreEvent) *domain.RouteScoreDoneEvent {
	resp, err := w.scorer.ScoreRoutes(ctx, dto.ScoreRoutesRequest{Routes: event.Routes})
	if err != nil {
		w.Logger().Error("Scoring failed",
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err))
		return &domain.RouteScoreDoneEvent{
			RequestID: event.RequestID,
			Error:     err.Error(),
		}
	}

	return &domain.RouteScoreDoneEvent{
		RequestID: event.RequestID,
		Routes:    resp.Routes,
	}
}

// parseMessage decodes a stream message into a RouteScoreEvent.
func (w *RouteScoreWorker) parseMessage(msg domain.StreamMessage) (*domain.RouteScoreEvent, error) {
	var event domain.RouteScoreEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &event, nil
}
