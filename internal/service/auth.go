package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/platform/observability"
)

// AuthService регистрация, вход и проверка access токенов
type AuthService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	sessions   repository.SessionRepository
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService создаёт сервис; токен живёт sessionTTL, сессия продлевается на каждом запросе
func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	secret string,
	sessionTTL time.Duration,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		logger:     logger,
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        now,
	}
}

// Credentials тело /signup и /login
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Signup создаёт пользователя; email хранится в нижнем регистре
func (s *AuthService) Signup(ctx context.Context, in Credentials) (repository.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return repository.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return repository.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return repository.User{}, &Error{
				Kind:    KindConflict,
				Message: "user already exists",
				Fields:  map[string]string{"email": "a user with this email already exists"},
			}
		}
		return repository.User{}, fmt.Errorf("create user: %w", err)
	}

	observability.Ctx(ctx, s.logger).Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// Token выданный access токен
type Token struct {
	Access    string
	ExpiresIn time.Duration
}

// Login проверяет пароль, открывает сессию и подписывает JWT с sub и sid
func (s *AuthService) Login(ctx context.Context, in Credentials) (*Token, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, unauthenticated("invalid email or password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, unauthenticated("invalid email or password")
	}

	sessionID, err := s.sessions.CreateSession(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.sessionTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{RegisteredClaims: claims, SessionID: sessionID}).
		SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	observability.Ctx(ctx, s.logger).Info("user logged in", zap.String("user_id", user.ID))
	return &Token{Access: signed, ExpiresIn: s.sessionTTL}, nil
}

// Principal аутентифицированный пользователь запроса
type Principal struct {
	UserID    string
	SessionID string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Authenticate проверяет подпись и срок токена, затем наличие сессии; сессия продлевается
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" || claims.SessionID == "" {
		return nil, unauthenticated("invalid or expired token")
	}

	userID, err := s.sessions.GetUserIDBySession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, unauthenticated("session expired")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if userID != claims.Subject {
		return nil, unauthenticated("invalid or expired token")
	}

	if err := s.sessions.RefreshSession(ctx, claims.SessionID, s.sessionTTL); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, unauthenticated("session expired")
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	return &Principal{UserID: userID, SessionID: claims.SessionID}, nil
}

// Logout удаляет сессию; повторный logout не ошибка
func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	if err := s.sessions.DeleteSession(ctx, p.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	observability.Ctx(ctx, s.logger).Info("user logged out", zap.String("user_id", p.UserID))
	return nil
}
