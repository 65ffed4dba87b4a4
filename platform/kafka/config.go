package kafka

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/segmentio/kafka-go"
)

// Топики доменных событий записи на курсы/тесты
const (
	TopicRegistrationPaid      = "enrollment.registration.paid"
	TopicRegistrationCompleted = "enrollment.registration.completed"
	TopicPaymentCancelled      = "enrollment.payment.cancelled"

	// TopicEventsDLQ сообщения, которые consumer не смог разобрать
	TopicEventsDLQ = "enrollment.events.dlq"
)

// Config содержит конфигурацию подключения к Kafka.
// Brokers зависит от среды: localhost:19092 при go run, kafka:9092 в Docker.
type Config struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:19092"`
	ClientID     string        `env:"KAFKA_CLIENT_ID" envDefault:"enrollment"`
	GroupID      string        `env:"KAFKA_GROUP_ID" envDefault:"enrollment-events-tail"`
	Topics       []string      `env:"KAFKA_TOPICS" envSeparator:"," envDefault:"enrollment.registration.paid,enrollment.registration.completed,enrollment.payment.cancelled"`
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"10s"`

	// DLQTopic пусто = poison pill только логируется
	DLQTopic string `env:"KAFKA_DLQ_TOPIC" envDefault:"enrollment.events.dlq"`
	// ProcessedTTL сколько consumer помнит event_id для отсева повторов
	ProcessedTTL time.Duration `env:"KAFKA_PROCESSED_TTL" envDefault:"24h"`
}

// LoadEnv загружает конфигурацию из переменных окружения (caarlos0/env)
func LoadEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse kafka env: %w", err)
	}
	if len(cfg.Brokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	return cfg, nil
}

// NewWriter создаёт writer без фиксированного топика: топик берётся из сообщения.
// Hash-балансировщик держит события одной регистрации в одной партиции.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}
}

// NewReader создаёт reader consumer-группы на все топики из cfg.Topics
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
}
