package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shestoi/enrollhub/internal/repository"
)

// CreateUser создаёт пользователя; email уникален
func (s *Store) CreateUser(ctx context.Context, user repository.User) (repository.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return repository.User{}, repository.ErrAlreadyExists
		}
		return repository.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByEmail получает пользователя по email
func (s *Store) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	var user repository.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.User{}, repository.ErrNotFound
		}
		return repository.User{}, err
	}
	return user, nil
}
