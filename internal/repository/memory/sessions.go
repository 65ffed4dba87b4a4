package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

type session struct {
	userID    string
	expiresAt time.Time
}

// Sessions реализует repository.SessionRepository в памяти (dev без Redis, тесты)
type Sessions struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]session
}

// NewSessions создаёт пустое хранилище сессий
func NewSessions(now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{now: now, sessions: make(map[string]session)}
}

func (s *Sessions) CreateSession(_ context.Context, userID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = session{userID: userID, expiresAt: s.now().Add(ttl)}
	return id, nil
}

func (s *Sessions) GetUserIDBySession(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(sessionID)
	if !ok {
		return "", repository.ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *Sessions) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *Sessions) RefreshSession(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(sessionID)
	if !ok {
		return repository.ErrSessionNotFound
	}
	sess.expiresAt = s.now().Add(ttl)
	s.sessions[sessionID] = sess
	return nil
}

// lookup удаляет истёкшую сессию, как это сделал бы TTL в Redis
func (s *Sessions) lookup(sessionID string) (session, bool) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return session{}, false
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return session{}, false
	}
	return sess, true
}
