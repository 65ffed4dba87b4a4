package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/service"
	"github.com/shestoi/enrollhub/platform/observability"
)

// MessageReader часть *kafka.Reader, нужная consumer'у
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventHandler получает разобранное событие; ошибка оставляет offset незакоммиченным
type EventHandler func(ctx context.Context, event service.EnrollmentEvent) error

// EventsConsumer читает доменные события записи из Kafka (at-least-once: FetchMessage + CommitMessages)
type EventsConsumer struct {
	logger  *zap.Logger
	reader  MessageReader
	handler EventHandler

	dlq          *DLQPublisher
	processed    ProcessedEvents
	processedTTL time.Duration
}

// ConsumerOption настраивает EventsConsumer
type ConsumerOption func(*EventsConsumer)

// WithDLQ отправляет poison pill в DLQ перед коммитом
func WithDLQ(dlq *DLQPublisher) ConsumerOption {
	return func(c *EventsConsumer) { c.dlq = dlq }
}

// WithProcessedEvents отсеивает повторно доставленные события по event_id
func WithProcessedEvents(store ProcessedEvents, ttl time.Duration) ConsumerOption {
	return func(c *EventsConsumer) {
		c.processed = store
		c.processedTTL = ttl
	}
}

// NewEventsConsumer создаёт consumer
func NewEventsConsumer(logger *zap.Logger, reader MessageReader, handler EventHandler, opts ...ConsumerOption) *EventsConsumer {
	c := &EventsConsumer{logger: logger, reader: reader, handler: handler}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start читает сообщения до отмены ctx
func (c *EventsConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting enrollment events consumer")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			continue
		}

		if !c.processMessage(ctx, m) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

// processMessage возвращает true, если offset нужно закоммитить
func (c *EventsConsumer) processMessage(ctx context.Context, m kafka.Message) bool {
	headers := m.Headers
	ctx = otel.GetTextMapPropagator().Extract(ctx, observability.KafkaHeaderCarrier{Headers: &headers})
	log := observability.L(ctx, c.logger)

	var event service.EnrollmentEvent
	if err := json.Unmarshal(m.Value, &event); err != nil || event.EventID == "" {
		if err == nil {
			err = fmt.Errorf("event_id is missing")
		}
		log.Error("failed to decode enrollment event",
			zap.Error(err),
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		if c.dlq != nil {
			if dlqErr := c.dlq.Publish(ctx, m, err); dlqErr != nil {
				return false
			}
		}
		// poison pill коммитим, чтобы не зациклиться
		return true
	}

	if c.processed != nil {
		done, err := c.processed.IsProcessed(ctx, event.EventID)
		if err != nil {
			log.Warn("failed to check processed event", zap.Error(err), zap.String("event_id", event.EventID))
		} else if done {
			log.Debug("duplicate enrollment event skipped",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
			)
			return true
		}
	}

	if err := c.handler(ctx, event); err != nil {
		log.Warn("failed to handle enrollment event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
		)
		return false
	}

	if c.processed != nil {
		if err := c.processed.MarkProcessed(ctx, event.EventID, c.processedTTL); err != nil {
			log.Warn("failed to mark event processed", zap.Error(err), zap.String("event_id", event.EventID))
		}
	}
	return true
}

// Close закрывает reader и DLQ writer
func (c *EventsConsumer) Close() error {
	err := c.reader.Close()
	if c.dlq != nil {
		err = errors.Join(err, c.dlq.Close())
	}
	return err
}
