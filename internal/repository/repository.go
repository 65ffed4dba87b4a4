package repository

import (
	"context"
	"errors"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Store --dir=. --output=./mocks --outpkg=mocks
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=TxStore --dir=. --output=./mocks --outpkg=mocks

// Store хранилище каталога, регистраций и платежей.
// Service слой зависит от этого интерфейса, а не от конкретной реализации (postgres, memory).
type Store interface {
	// CreateItem добавляет курс/тест (сидирование в dev и тестах; API этого не умеет)
	CreateItem(ctx context.Context, item Item) (Item, error)

	// GetItem возвращает ErrNotFound, если такого курса/теста нет
	GetItem(ctx context.Context, kind Kind, id string) (Item, error)

	ListItems(ctx context.Context, q ListItemsQuery) ([]ItemView, error)

	// HasActiveRegistration true, если у пользователя есть неотменённая регистрация
	HasActiveRegistration(ctx context.Context, kind Kind, userID, itemID string) (bool, error)

	// ListPayments платежи пользователя, created_at DESC, id DESC
	ListPayments(ctx context.Context, q PaymentQuery) ([]PaymentView, error)

	// InTx выполняет fn в одной транзакции: ошибка fn откатывает все изменения
	InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

// TxStore операции внутри транзакции. Lock* блокируют строку до конца транзакции (SELECT ... FOR UPDATE).
type TxStore interface {
	GetItem(ctx context.Context, kind Kind, id string) (Item, error)

	// CreateRegistration возвращает ErrRegistrationConflict при нарушении уникальности (user, item)
	CreateRegistration(ctx context.Context, reg Registration) (Registration, error)

	// IncrementRegistrationsCount атомарно: registrations_count = registrations_count + 1
	IncrementRegistrationsCount(ctx context.Context, kind Kind, itemID string) error

	// CreatePayment вызывает Stamp; ErrPaymentConflict, если на регистрацию уже есть платёж
	CreatePayment(ctx context.Context, p Payment) (Payment, error)

	// LockRegistrationByUserItem берёт неотменённую регистрацию, а если её нет, последнюю отменённую.
	// ErrNotFound, если регистраций нет совсем.
	LockRegistrationByUserItem(ctx context.Context, kind Kind, userID, itemID string) (Registration, error)

	LockRegistration(ctx context.Context, kind Kind, id string) (Registration, error)

	LockPayment(ctx context.Context, id string) (Payment, error)

	UpdateRegistration(ctx context.Context, reg Registration) error

	// UpdatePayment вызывает Stamp и возвращает сохранённое состояние
	UpdatePayment(ctx context.Context, p Payment) (Payment, error)

	AddOutboxEvent(ctx context.Context, event OutboxEvent) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=UserRepository --dir=. --output=./mocks --outpkg=mocks

// UserRepository хранилище учётных записей
type UserRepository interface {
	// CreateUser возвращает ErrAlreadyExists, если email занят
	CreateUser(ctx context.Context, user User) (User, error)

	// GetByEmail возвращает ErrNotFound, если пользователя нет
	GetByEmail(ctx context.Context, email string) (User, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=SessionRepository --dir=. --output=./mocks --outpkg=mocks

// SessionRepository сессии пользователей (Redis hash со скользящим TTL)
type SessionRepository interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (sessionID string, err error)

	// GetUserIDBySession возвращает ErrSessionNotFound, если сессии нет или она истекла
	GetUserIDBySession(ctx context.Context, sessionID string) (userID string, err error)

	DeleteSession(ctx context.Context, sessionID string) error

	RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OutboxRepository --dir=. --output=./mocks --outpkg=mocks

// OutboxRepository чтение и разметка outbox для dispatcher'а
type OutboxRepository interface {
	GetPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxEventSent(ctx context.Context, eventID string) error
	MarkOutboxEventFailed(ctx context.Context, eventID, lastError string) error
	ResetOutboxEventPending(ctx context.Context, eventID string) error

	// DeleteSentOutboxEvents удаляет отправленные события старше before, возвращает число удалённых
	DeleteSentOutboxEvents(ctx context.Context, before time.Time) (int64, error)
}

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrRegistrationConflict у пользователя уже есть неотменённая регистрация на этот курс/тест
	ErrRegistrationConflict = errors.New("registration conflict")

	// ErrPaymentConflict на регистрацию уже есть платёж
	ErrPaymentConflict = errors.New("payment conflict")

	// ErrAlreadyExists пользователь с таким email уже существует
	ErrAlreadyExists = errors.New("user already exists")

	// ErrSessionNotFound сессия не найдена или истекла
	ErrSessionNotFound = errors.New("session not found")
)
