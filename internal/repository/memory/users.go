package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

// CreateUser создаёт пользователя; email уникален
func (s *Store) CreateUser(_ context.Context, user repository.User) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.st.users[user.Email]; exists {
		return repository.User{}, repository.ErrAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.st.users[user.Email] = user
	return user, nil
}

// GetByEmail получает пользователя по email
func (s *Store) GetByEmail(_ context.Context, email string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.st.users[email]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return user, nil
}
