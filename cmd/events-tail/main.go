// Команда events-tail читает доменные события записи из Kafka и пишет их в лог.
//
// Брокеры, группа и топики берутся из KAFKA_BROKERS, KAFKA_GROUP_ID и KAFKA_TOPICS
// (по умолчанию localhost:19092 и все три топика enrollment.*). Неразбираемые сообщения
// уходят в KAFKA_DLQ_TOPIC, повторные доставки отсеиваются по event_id.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	eventkafka "github.com/shestoi/enrollhub/internal/event/kafka"
	"github.com/shestoi/enrollhub/internal/service"
	platformkafka "github.com/shestoi/enrollhub/platform/kafka"
	platformlogging "github.com/shestoi/enrollhub/platform/logging"
)

func main() {
	_ = godotenv.Load(".env")

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "events-tail",
		Env:         "local",
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      "console",
	})
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer platformlogging.Sync(logger)

	cfg, err := platformkafka.LoadEnv()
	if err != nil {
		logger.Error("failed to load kafka config", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("kafka config loaded",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("topics", cfg.Topics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []eventkafka.ConsumerOption{
		eventkafka.WithProcessedEvents(eventkafka.NewMemoryProcessedEvents(nil), cfg.ProcessedTTL),
	}
	if cfg.DLQTopic != "" {
		opts = append(opts, eventkafka.WithDLQ(
			eventkafka.NewDLQPublisher(logger, platformkafka.NewWriter(cfg), cfg.DLQTopic, nil),
		))
	}

	consumer := eventkafka.NewEventsConsumer(logger, platformkafka.NewReader(cfg), func(_ context.Context, event service.EnrollmentEvent) error {
		logger.Info("event",
			zap.String("event_type", event.EventType),
			zap.String("event_id", event.EventID),
			zap.String("kind", string(event.Kind)),
			zap.String("item_id", event.ItemID),
			zap.String("user_id", event.UserID),
			zap.String("registration_id", event.RegistrationID),
			zap.String("payment_id", event.PaymentID),
			zap.Int64("amount", event.Amount),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}, opts...)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		logger.Error("consumer stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
