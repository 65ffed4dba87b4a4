package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shestoi/enrollhub/internal/repository"
)

// GetPendingOutboxEvents возвращает до limit pending событий в порядке записи
func (s *Store) GetPendingOutboxEvents(ctx context.Context, limit int) ([]repository.OutboxEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_id, event_type, topic, aggregate_id, payload, status, attempts, COALESCE(last_error, ''), created_at, sent_at
		 FROM outbox_events
		 WHERE status = 'pending'
		 ORDER BY created_at, event_id
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("select pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []repository.OutboxEvent
	for rows.Next() {
		var e repository.OutboxEvent
		if err := rows.Scan(&e.EventID, &e.EventType, &e.Topic, &e.AggregateID, &e.Payload, &e.Status,
			&e.Attempts, &e.LastError, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkOutboxEventSent помечает событие отправленным
func (s *Store) MarkOutboxEventSent(ctx context.Context, eventID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_events SET status = 'sent', sent_at = $2, attempts = attempts + 1, last_error = NULL WHERE event_id = $1`,
		eventID, s.now())
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	return nil
}

// MarkOutboxEventFailed помечает событие failed и сохраняет последнюю ошибку
func (s *Store) MarkOutboxEventFailed(ctx context.Context, eventID, lastError string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_events SET status = 'failed', attempts = attempts + 1, last_error = $2 WHERE event_id = $1`,
		eventID, lastError)
	if err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	return nil
}

// ResetOutboxEventPending возвращает failed событие в очередь
func (s *Store) ResetOutboxEventPending(ctx context.Context, eventID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_events SET status = 'pending' WHERE event_id = $1 AND status = 'failed'`,
		eventID)
	if err != nil {
		return fmt.Errorf("reset outbox event: %w", err)
	}
	return nil
}

// DeleteSentOutboxEvents удаляет отправленные события старше before
func (s *Store) DeleteSentOutboxEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM outbox_events WHERE status = 'sent' AND sent_at < $1`,
		before)
	if err != nil {
		return 0, fmt.Errorf("delete sent outbox events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping проверка готовности для /health
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
