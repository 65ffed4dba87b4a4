package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
	platformkafka "github.com/shestoi/enrollhub/platform/kafka"
)

// Типы доменных событий совпадают с топиками Kafka
const (
	EventRegistrationPaid      = platformkafka.TopicRegistrationPaid
	EventRegistrationCompleted = platformkafka.TopicRegistrationCompleted
	EventPaymentCancelled      = platformkafka.TopicPaymentCancelled
)

// EnrollmentEvent payload события в outbox / Kafka
type EnrollmentEvent struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	EventVersion   int             `json:"event_version"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Kind           repository.Kind `json:"kind"`
	ItemID         string          `json:"item_id"`
	UserID         string          `json:"user_id"`
	RegistrationID string          `json:"registration_id"`
	PaymentID      string          `json:"payment_id,omitempty"`
	Amount         int64           `json:"amount,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
}

// outboxEvent собирает запись outbox; ключ сообщения = id регистрации
func outboxEvent(e EnrollmentEvent) (repository.OutboxEvent, error) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	e.EventVersion = 1

	payload, err := json.Marshal(e)
	if err != nil {
		return repository.OutboxEvent{}, fmt.Errorf("marshal %s event: %w", e.EventType, err)
	}
	return repository.OutboxEvent{
		EventID:     e.EventID,
		EventType:   e.EventType,
		Topic:       e.EventType,
		AggregateID: e.RegistrationID,
		Payload:     payload,
		CreatedAt:   e.OccurredAt,
	}, nil
}
