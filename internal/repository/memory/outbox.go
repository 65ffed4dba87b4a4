package memory

import (
	"context"
	"time"

	"github.com/shestoi/enrollhub/internal/repository"
)

func (s *Store) GetPendingOutboxEvents(_ context.Context, limit int) ([]repository.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []repository.OutboxEvent
	for _, e := range s.st.outbox {
		if len(events) >= limit {
			break
		}
		if e.Status == repository.OutboxPending {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *Store) MarkOutboxEventSent(_ context.Context, eventID string) error {
	now := s.now()
	return s.updateOutbox(eventID, func(e *repository.OutboxEvent) {
		e.Status = repository.OutboxSent
		e.SentAt = &now
		e.Attempts++
		e.LastError = ""
	})
}

func (s *Store) MarkOutboxEventFailed(_ context.Context, eventID, lastError string) error {
	return s.updateOutbox(eventID, func(e *repository.OutboxEvent) {
		e.Status = repository.OutboxFailed
		e.Attempts++
		e.LastError = lastError
	})
}

func (s *Store) ResetOutboxEventPending(_ context.Context, eventID string) error {
	return s.updateOutbox(eventID, func(e *repository.OutboxEvent) {
		if e.Status == repository.OutboxFailed {
			e.Status = repository.OutboxPending
		}
	})
}

func (s *Store) DeleteSentOutboxEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.st.outbox[:0]
	var deleted int64
	for _, e := range s.st.outbox {
		if e.Status == repository.OutboxSent && e.SentAt != nil && e.SentAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.st.outbox = kept
	return deleted, nil
}

// OutboxEvents копия всех событий outbox (для тестов и отладки)
func (s *Store) OutboxEvents() []repository.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.OutboxEvent(nil), s.st.outbox...)
}

func (s *Store) updateOutbox(eventID string, fn func(e *repository.OutboxEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.st.outbox {
		if s.st.outbox[i].EventID == eventID {
			fn(&s.st.outbox[i])
			return nil
		}
	}
	return repository.ErrNotFound
}
