package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
)

const (
	hashFieldUserID     = "user_id"
	hashFieldCreatedAt  = "created_at"
	hashFieldLastSeenAt = "last_seen_at"
)

// SessionRepository реализует repository.SessionRepository на Redis hash со скользящим TTL
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionRepository создаёт Redis session repository
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func sessionKey(sessionID string) string {
	return "enrollment:session:" + sessionID
}

// CreateSession создаёт hash сессии и ставит TTL одной транзакцией (MULTI/EXEC)
func (r *SessionRepository) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sessionID := uuid.NewString()
	key := sessionKey(sessionID)
	now := r.now().UTC().Format(time.RFC3339)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, hashFieldUserID, userID, hashFieldCreatedAt, now, hashFieldLastSeenAt, now)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to create session hash in redis",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug("session hash created",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Duration("ttl", ttl),
	)
	return sessionID, nil
}

// GetUserIDBySession возвращает user_id; ErrSessionNotFound для отсутствующей/истёкшей сессии
func (r *SessionRepository) GetUserIDBySession(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.client.HGet(ctx, sessionKey(sessionID), hashFieldUserID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrSessionNotFound
		}
		r.logger.Error("failed to get session hash from redis",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	if userID == "" {
		return "", repository.ErrSessionNotFound
	}
	return userID, nil
}

// DeleteSession удаляет сессию; отсутствие ключа не ошибка
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		r.logger.Error("failed to delete session hash from redis",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RefreshSession продлевает TTL и обновляет last_seen_at.
// EXPIRE на отсутствующем ключе возвращает false, поэтому HSET не воскресит истёкшую сессию.
func (r *SessionRepository) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	key := sessionKey(sessionID)

	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		r.logger.Error("failed to refresh session TTL in redis",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	if !ok {
		return repository.ErrSessionNotFound
	}

	if err := r.client.HSet(ctx, key, hashFieldLastSeenAt, r.now().UTC().Format(time.RFC3339)).Err(); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Ping проверка готовности для /health
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
