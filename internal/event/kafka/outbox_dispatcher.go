package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/platform/observability"
)

// MessageWriter часть *kafka.Writer, нужная dispatcher'у
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DispatcherConfig параметры публикации outbox
type DispatcherConfig struct {
	BatchSize  int           // сколько событий берётся за один проход
	Interval   time.Duration // пауза между проходами
	MaxRetries int           // попыток на событие за проход
	Backoff    time.Duration // базовая задержка, растёт линейно с номером попытки
}

// OutboxDispatcher публикует события из outbox в Kafka.
// Доставка at-least-once: событие помечается sent только после успешной записи.
type OutboxDispatcher struct {
	logger *zap.Logger
	repo   repository.OutboxRepository
	writer MessageWriter
	cfg    DispatcherConfig
	tracer trace.Tracer
}

// NewOutboxDispatcher создаёт dispatcher; writer закрывается в Close
func NewOutboxDispatcher(logger *zap.Logger, repo repository.OutboxRepository, writer MessageWriter, cfg DispatcherConfig) *OutboxDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &OutboxDispatcher{
		logger: logger,
		repo:   repo,
		writer: writer,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/shestoi/enrollhub/internal/event/kafka"),
	}
}

// Start обрабатывает outbox раз в Interval до отмены ctx
func (d *OutboxDispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting outbox dispatcher",
		zap.Int("batch_size", d.cfg.BatchSize),
		zap.Duration("interval", d.cfg.Interval),
		zap.Int("max_retries", d.cfg.MaxRetries),
	)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := d.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("failed to process outbox batch", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher context cancelled, stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessBatch публикует один батч pending событий. Ошибка одного события не останавливает остальные.
func (d *OutboxDispatcher) ProcessBatch(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	events, err := d.repo.GetPendingOutboxEvents(ctx, d.cfg.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("get pending outbox events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	d.logger.Debug("processing outbox batch", zap.Int("count", len(events)))

	for _, event := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.processEvent(ctx, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Error("failed to process outbox event",
				zap.Error(err),
				zap.String("event_id", event.EventID),
				zap.String("topic", event.Topic),
			)
		}
	}
	return nil
}

func (d *OutboxDispatcher) message(ctx context.Context, event repository.OutboxEvent) kafka.Message {
	msg := kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, observability.KafkaHeaderCarrier{Headers: &msg.Headers})
	return msg
}

// processEvent публикует событие с retry; после исчерпания попыток помечает failed и возвращает в pending
func (d *OutboxDispatcher) processEvent(ctx context.Context, event repository.OutboxEvent) error {
	ctx, span := d.tracer.Start(ctx, "outbox publish "+event.Topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", event.Topic),
			attribute.String("messaging.message.id", event.EventID),
		),
	)
	defer span.End()

	msg := d.message(ctx, event)

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		err := d.writer.WriteMessages(ctx, msg)
		if err == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if markErr := d.repo.MarkOutboxEventSent(ctx, event.EventID); markErr != nil {
				span.RecordError(markErr)
				return fmt.Errorf("mark event sent: %w", markErr)
			}

			d.logger.Info("outbox event published",
				zap.String("event_id", event.EventID),
				zap.String("topic", event.Topic),
				zap.String("aggregate_id", event.AggregateID),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		lastErr = err
		d.logger.Warn("failed to publish outbox event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.String("topic", event.Topic),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", d.cfg.MaxRetries),
		)

		if attempt < d.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cfg.Backoff * time.Duration(attempt)):
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "publish failed")

	if ctx.Err() != nil {
		return ctx.Err()
	}

	errMsg := fmt.Sprintf("failed after %d attempts: %v", d.cfg.MaxRetries, lastErr)
	if markErr := d.repo.MarkOutboxEventFailed(ctx, event.EventID, errMsg); markErr != nil {
		return fmt.Errorf("mark event failed: %w", markErr)
	}
	// следующий проход dispatcher'а попробует снова
	if resetErr := d.repo.ResetOutboxEventPending(ctx, event.EventID); resetErr != nil {
		d.logger.Error("failed to reset outbox event to pending",
			zap.Error(resetErr),
			zap.String("event_id", event.EventID),
		)
	}

	return fmt.Errorf("publish event after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}

// Close закрывает Kafka writer
func (d *OutboxDispatcher) Close() error {
	d.logger.Info("closing outbox dispatcher")
	return d.writer.Close()
}
