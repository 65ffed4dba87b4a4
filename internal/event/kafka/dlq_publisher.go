package kafka

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DLQMessage конверт для сообщения, которое не удалось обработать
type DLQMessage struct {
	OriginalTopic     string `json:"original_topic"`
	OriginalPartition int    `json:"original_partition"`
	OriginalOffset    int64  `json:"original_offset"`
	OriginalKey       string `json:"original_key"`   // base64
	OriginalValue     string `json:"original_value"` // base64
	ErrorMessage      string `json:"error_message"`
	FailedAt          string `json:"failed_at"` // RFC3339
}

// DLQPublisher публикует необрабатываемые сообщения в отдельный топик
type DLQPublisher struct {
	logger *zap.Logger
	writer MessageWriter
	topic  string
	now    func() time.Time
}

// NewDLQPublisher создаёт publisher; writer должен быть без фиксированного топика (platformkafka.NewWriter)
func NewDLQPublisher(logger *zap.Logger, writer MessageWriter, topic string, now func() time.Time) *DLQPublisher {
	if now == nil {
		now = time.Now
	}
	return &DLQPublisher{logger: logger, writer: writer, topic: topic, now: now}
}

// Publish отправляет msg в DLQ; ключ сохраняется, чтобы повторы одной регистрации шли в одну партицию
func (p *DLQPublisher) Publish(ctx context.Context, msg kafka.Message, cause error) error {
	errorMsg := "unknown error"
	if cause != nil {
		errorMsg = cause.Error()
	}

	value, err := json.Marshal(DLQMessage{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalKey:       base64.StdEncoding.EncodeToString(msg.Key),
		OriginalValue:     base64.StdEncoding.EncodeToString(msg.Value),
		ErrorMessage:      errorMsg,
		FailedAt:          p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq message: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Topic: p.topic, Key: msg.Key, Value: value}); err != nil {
		p.logger.Error("failed to publish message to DLQ",
			zap.Error(err),
			zap.String("dlq_topic", p.topic),
			zap.String("original_topic", msg.Topic),
			zap.Int64("original_offset", msg.Offset),
		)
		return fmt.Errorf("write dlq message: %w", err)
	}

	p.logger.Info("message sent to DLQ",
		zap.String("dlq_topic", p.topic),
		zap.String("original_topic", msg.Topic),
		zap.Int("original_partition", msg.Partition),
		zap.Int64("original_offset", msg.Offset),
		zap.String("error", errorMsg),
	)
	return nil
}

// Close закрывает writer
func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
