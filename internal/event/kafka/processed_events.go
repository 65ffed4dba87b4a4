package kafka

import (
	"context"
	"sync"
	"time"
)

// ProcessedEvents помнит обработанные event_id: outbox доставляет at-least-once, повторы отсеиваются здесь
type ProcessedEvents interface {
	// MarkProcessed запоминает eventID на ttl
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error

	// IsProcessed true, если eventID уже обработан и ttl не истёк
	IsProcessed(ctx context.Context, eventID string) (bool, error)
}

// MemoryProcessedEvents in-memory реализация для events-tail (одна реплика)
type MemoryProcessedEvents struct {
	mu     sync.Mutex
	now    func() time.Time
	events map[string]time.Time // eventID -> expiresAt
}

// NewMemoryProcessedEvents создаёт пустой store
func NewMemoryProcessedEvents(now func() time.Time) *MemoryProcessedEvents {
	if now == nil {
		now = time.Now
	}
	return &MemoryProcessedEvents{now: now, events: make(map[string]time.Time)}
}

func (s *MemoryProcessedEvents) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()
	s.events[eventID] = s.now().Add(ttl)
	return nil
}

func (s *MemoryProcessedEvents) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.events[eventID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.events, eventID)
		return false, nil
	}
	return true, nil
}

// cleanupExpiredLocked ленивая очистка, вызывается под mu
func (s *MemoryProcessedEvents) cleanupExpiredLocked() {
	now := s.now()
	for id, expiresAt := range s.events {
		if !now.Before(expiresAt) {
			delete(s.events, id)
		}
	}
}
