package repository

import (
	"context"

	"github.com/saferoute-microservice/internal/domain"
)

// StreamRepository is the Redis Streams transport for async scoring jobs.
type StreamRepository interface {
	// CreateConsumerGroup creates the consumer group for a stream,
	// creating the stream itself if needed.
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch reads up to count pending messages for the consumer.
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error)

	// AckMessage acknowledges one processed message.
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// AckMessages acknowledges a batch of processed messages.
	AckMessages(ctx context.Context, stream, group string, messageIDs []string) error

	// PublishToStream JSON-encodes data and appends it to the stream.
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
