package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shestoi/enrollhub/internal/repository"
)

// txStore реализует repository.TxStore поверх pgx.Tx
type txStore struct {
	q   querier
	now func() time.Time
}

const registrationColumns = `id, user_id, %s, status, attempted_at, created_at`

const paymentColumns = `id, course_registration_id, test_registration_id, amount, payment_method, status,
	paid_at, canceled_at, created_at, updated_at`

func (s *txStore) GetItem(ctx context.Context, kind repository.Kind, id string) (repository.Item, error) {
	return getItem(ctx, s.q, kind, id)
}

// CreateRegistration вставляет регистрацию; нарушение uniq_active_*_registration = ErrRegistrationConflict
func (s *txStore) CreateRegistration(ctx context.Context, reg repository.Registration) (repository.Registration, error) {
	t, err := tablesFor(reg.Kind)
	if err != nil {
		return repository.Registration{}, err
	}
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.Status == "" {
		reg.Status = repository.RegistrationRegistered
	}
	reg.CreatedAt = s.now()

	_, err = s.q.Exec(ctx,
		`INSERT INTO `+t.registrations+` (`+fmt.Sprintf(registrationColumns, t.itemFK)+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.UserID, reg.ItemID, reg.Status, reg.AttemptedAt, reg.CreatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return repository.Registration{}, repository.ErrRegistrationConflict
		}
		return repository.Registration{}, fmt.Errorf("insert %s: %w", t.registrations, err)
	}
	return reg, nil
}

// IncrementRegistrationsCount атомарный инкремент на стороне БД, без read-modify-write
func (s *txStore) IncrementRegistrationsCount(ctx context.Context, kind repository.Kind, itemID string) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	id, err := parseID(itemID)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx,
		`UPDATE `+t.items+` SET registrations_count = registrations_count + 1, updated_at = $2 WHERE id = $1`,
		id, s.now())
	if err != nil {
		return fmt.Errorf("increment %s.registrations_count: %w", t.items, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreatePayment вставляет платёж; повторный платёж на ту же регистрацию = ErrPaymentConflict
func (s *txStore) CreatePayment(ctx context.Context, p repository.Payment) (repository.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Stamp(now)

	_, err := s.q.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.CourseRegistrationID, p.TestRegistrationID, p.Amount, p.Method, p.Status,
		p.PaidAt, p.CanceledAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return repository.Payment{}, repository.ErrPaymentConflict
		}
		if isPgError(err, pgCheckViolation) {
			return repository.Payment{}, fmt.Errorf("payment violates check constraint: %w", err)
		}
		return repository.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

// LockRegistrationByUserItem: сначала неотменённая, иначе самая новая отменённая
func (s *txStore) LockRegistrationByUserItem(ctx context.Context, kind repository.Kind, userID, itemID string) (repository.Registration, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return repository.Registration{}, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return repository.Registration{}, err
	}
	iid, err := parseID(itemID)
	if err != nil {
		return repository.Registration{}, err
	}

	row := s.q.QueryRow(ctx,
		`SELECT `+fmt.Sprintf(registrationColumns, t.itemFK)+` FROM `+t.registrations+`
		 WHERE user_id = $1 AND `+t.itemFK+` = $2
		 ORDER BY (status = 'cancelled'), created_at DESC, id DESC
		 LIMIT 1
		 FOR UPDATE`,
		uid, iid)
	return scanRegistration(row, kind)
}

// LockRegistration блокирует регистрацию по ID
func (s *txStore) LockRegistration(ctx context.Context, kind repository.Kind, id string) (repository.Registration, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return repository.Registration{}, err
	}
	rid, err := parseID(id)
	if err != nil {
		return repository.Registration{}, err
	}

	row := s.q.QueryRow(ctx,
		`SELECT `+fmt.Sprintf(registrationColumns, t.itemFK)+` FROM `+t.registrations+` WHERE id = $1 FOR UPDATE`,
		rid)
	return scanRegistration(row, kind)
}

func scanRegistration(row pgx.Row, kind repository.Kind) (repository.Registration, error) {
	reg := repository.Registration{Kind: kind}
	err := row.Scan(&reg.ID, &reg.UserID, &reg.ItemID, &reg.Status, &reg.AttemptedAt, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Registration{}, repository.ErrNotFound
		}
		return repository.Registration{}, err
	}
	return reg, nil
}

// LockPayment блокирует платёж по ID
func (s *txStore) LockPayment(ctx context.Context, id string) (repository.Payment, error) {
	pid, err := parseID(id)
	if err != nil {
		return repository.Payment{}, err
	}

	var p repository.Payment
	err = s.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`,
		pid).Scan(&p.ID, &p.CourseRegistrationID, &p.TestRegistrationID, &p.Amount, &p.Method, &p.Status,
		&p.PaidAt, &p.CanceledAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Payment{}, repository.ErrNotFound
		}
		return repository.Payment{}, err
	}
	return p, nil
}

// UpdateRegistration сохраняет status и attempted_at
func (s *txStore) UpdateRegistration(ctx context.Context, reg repository.Registration) error {
	t, err := tablesFor(reg.Kind)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx,
		`UPDATE `+t.registrations+` SET status = $2, attempted_at = $3 WHERE id = $1`,
		reg.ID, reg.Status, reg.AttemptedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.registrations, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdatePayment сохраняет статус, paid_at/canceled_at проставляются по Stamp
func (s *txStore) UpdatePayment(ctx context.Context, p repository.Payment) (repository.Payment, error) {
	now := s.now()
	p.Stamp(now)
	p.UpdatedAt = now

	tag, err := s.q.Exec(ctx,
		`UPDATE payments SET status = $2, paid_at = $3, canceled_at = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Status, p.PaidAt, p.CanceledAt, p.UpdatedAt)
	if err != nil {
		return repository.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

// AddOutboxEvent пишет событие в outbox в рамках текущей транзакции
func (s *txStore) AddOutboxEvent(ctx context.Context, event repository.OutboxEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	_, err := s.q.Exec(ctx,
		`INSERT INTO outbox_events (event_id, event_type, topic, aggregate_id, payload, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6)`,
		event.EventID, event.EventType, event.Topic, event.AggregateID, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
