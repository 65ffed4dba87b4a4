package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/platform/observability"
)

// EnrollmentService координирует запись, завершение и отмену.
// Один и тот же код обслуживает курсы и тесты, тип задаётся repository.Kind.
type EnrollmentService struct {
	logger  *zap.Logger
	store   repository.Store
	now     func() time.Time
	metrics *metrics
}

// NewEnrollmentService создаёт сервис; now = nil означает time.Now
func NewEnrollmentService(logger *zap.Logger, store repository.Store, now func() time.Time) *EnrollmentService {
	if now == nil {
		now = time.Now
	}
	return &EnrollmentService{
		logger:  logger,
		store:   store,
		now:     now,
		metrics: newMetrics(),
	}
}

// ApplyInput запрос на запись с оплатой
type ApplyInput struct {
	UserID        string          `json:"-"`
	Kind          repository.Kind `json:"-"`
	ItemID        string          `json:"-"`
	Amount        int64           `json:"amount" validate:"gte=1"`
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method"`
}

// ApplyOutput результат записи
type ApplyOutput struct {
	RegistrationID string
	PaymentID      string
	Status         repository.PaymentStatus
}

// Apply записывает пользователя и создаёт оплаченный платёж одной транзакцией.
// Проверка дубликата до транзакции лишь быстрый путь: окончательно решает уникальный индекс.
func (s *EnrollmentService) Apply(ctx context.Context, in ApplyInput) (*ApplyOutput, error) {
	out, err := s.apply(ctx, in)
	if err != nil {
		s.metrics.reject(ctx, "apply", err)
		return nil, err
	}
	s.metrics.success(ctx, s.metrics.applications, in.Kind)
	return out, nil
}

func (s *EnrollmentService) apply(ctx context.Context, in ApplyInput) (*ApplyOutput, error) {
	log := observability.Ctx(ctx, s.logger)

	in.PaymentMethod = normalizePaymentMethod(in.PaymentMethod)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, in.Kind, in.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("%s not found", in.Kind)
		}
		return nil, fmt.Errorf("get %s: %w", in.Kind, err)
	}

	now := s.now()
	if !item.IsAvailable(now) {
		return nil, invalidState("%s not available for enrollment", in.Kind)
	}

	registered, err := s.store.HasActiveRegistration(ctx, in.Kind, in.UserID, in.ItemID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if registered {
		return nil, conflict("already registered")
	}

	var out ApplyOutput
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		reg, err := tx.CreateRegistration(ctx, repository.Registration{
			Kind:   in.Kind,
			UserID: in.UserID,
			ItemID: in.ItemID,
			Status: repository.RegistrationRegistered,
		})
		if err != nil {
			if errors.Is(err, repository.ErrRegistrationConflict) {
				return conflict("registration conflict: already registered")
			}
			return fmt.Errorf("create registration: %w", err)
		}

		if err := tx.IncrementRegistrationsCount(ctx, in.Kind, in.ItemID); err != nil {
			return fmt.Errorf("increment registrations_count: %w", err)
		}

		payment := repository.Payment{
			Amount: in.Amount,
			Method: repository.PaymentMethod(in.PaymentMethod),
			Status: repository.PaymentPaid,
		}
		payment.SetTarget(in.Kind, reg.ID)
		payment, err = tx.CreatePayment(ctx, payment)
		if err != nil {
			if errors.Is(err, repository.ErrPaymentConflict) {
				return conflict("payment already created for this registration")
			}
			return fmt.Errorf("create payment: %w", err)
		}

		event, err := outboxEvent(EnrollmentEvent{
			EventType:      EventRegistrationPaid,
			OccurredAt:     now,
			Kind:           in.Kind,
			ItemID:         in.ItemID,
			UserID:         in.UserID,
			RegistrationID: reg.ID,
			PaymentID:      payment.ID,
			Amount:         payment.Amount,
			PaymentMethod:  string(payment.Method),
		})
		if err != nil {
			return err
		}
		if err := tx.AddOutboxEvent(ctx, event); err != nil {
			return fmt.Errorf("add outbox event: %w", err)
		}

		out = ApplyOutput{RegistrationID: reg.ID, PaymentID: payment.ID, Status: payment.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("registration paid",
		zap.String("kind", string(in.Kind)),
		zap.String("item_id", in.ItemID),
		zap.String("user_id", in.UserID),
		zap.String("registration_id", out.RegistrationID),
		zap.String("payment_id", out.PaymentID),
		zap.Int64("amount", in.Amount),
	)
	return &out, nil
}

// CompleteInput запрос на завершение
type CompleteInput struct {
	UserID string
	Kind   repository.Kind
	ItemID string
}

// CompleteOutput результат завершения
type CompleteOutput struct {
	RegistrationID string
	Status         repository.RegistrationStatus
	AttemptedAt    time.Time
}

// Complete переводит регистрацию пользователя в completed под блокировкой строки
func (s *EnrollmentService) Complete(ctx context.Context, in CompleteInput) (*CompleteOutput, error) {
	out, err := s.complete(ctx, in)
	if err != nil {
		s.metrics.reject(ctx, "complete", err)
		return nil, err
	}
	s.metrics.success(ctx, s.metrics.completions, in.Kind)
	return out, nil
}

func (s *EnrollmentService) complete(ctx context.Context, in CompleteInput) (*CompleteOutput, error) {
	var out CompleteOutput
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		item, err := tx.GetItem(ctx, in.Kind, in.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("%s not found", in.Kind)
			}
			return fmt.Errorf("get %s: %w", in.Kind, err)
		}

		now := s.now()
		if !item.IsAvailable(now) {
			return invalidState("%s not available for completion", in.Kind)
		}

		reg, err := tx.LockRegistrationByUserItem(ctx, in.Kind, in.UserID, in.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("registration not found")
			}
			return fmt.Errorf("lock registration: %w", err)
		}

		if !reg.Workable() {
			switch reg.Status {
			case repository.RegistrationCompleted:
				return conflict("already completed")
			case repository.RegistrationCancelled:
				return invalidState("cancelled registration cannot be completed")
			default:
				return conflict("registration is not in a completable state")
			}
		}

		reg.Status = repository.RegistrationCompleted
		if reg.AttemptedAt == nil {
			reg.AttemptedAt = &now
		}
		if err := tx.UpdateRegistration(ctx, reg); err != nil {
			return fmt.Errorf("update registration: %w", err)
		}

		event, err := outboxEvent(EnrollmentEvent{
			EventType:      EventRegistrationCompleted,
			OccurredAt:     now,
			Kind:           in.Kind,
			ItemID:         in.ItemID,
			UserID:         in.UserID,
			RegistrationID: reg.ID,
		})
		if err != nil {
			return err
		}
		if err := tx.AddOutboxEvent(ctx, event); err != nil {
			return fmt.Errorf("add outbox event: %w", err)
		}

		out = CompleteOutput{RegistrationID: reg.ID, Status: reg.Status, AttemptedAt: *reg.AttemptedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.Ctx(ctx, s.logger).Info("registration completed",
		zap.String("kind", string(in.Kind)),
		zap.String("item_id", in.ItemID),
		zap.String("user_id", in.UserID),
		zap.String("registration_id", out.RegistrationID),
	)
	return &out, nil
}

// CancelInput запрос на отмену платежа
type CancelInput struct {
	UserID    string
	PaymentID string
}

// CancelOutput результат отмены
type CancelOutput struct {
	RegistrationID string
	PaymentID      string
	Status         repository.PaymentStatus
}

// Cancel отменяет платёж и связанную регистрацию.
// Порядок блокировок: платёж, затем регистрация. registrations_count не уменьшается.
func (s *EnrollmentService) Cancel(ctx context.Context, in CancelInput) (*CancelOutput, error) {
	out, err := s.cancel(ctx, in)
	if err != nil {
		s.metrics.reject(ctx, "cancel", err)
		return nil, err
	}
	s.metrics.success(ctx, s.metrics.cancellations, out.kind)
	return &out.CancelOutput, nil
}

type cancelResult struct {
	CancelOutput
	kind repository.Kind
}

func (s *EnrollmentService) cancel(ctx context.Context, in CancelInput) (*cancelResult, error) {
	var out cancelResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		payment, err := tx.LockPayment(ctx, in.PaymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("payment not found")
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		kind, regID, ok := payment.Target()
		if !ok {
			return invalidState("payment has no linked registration")
		}
		reg, err := tx.LockRegistration(ctx, kind, regID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalidState("payment has no linked registration")
			}
			return fmt.Errorf("lock registration: %w", err)
		}

		if reg.UserID != in.UserID {
			return forbidden("you can only cancel your own payments")
		}

		if !reg.Workable() {
			switch reg.Status {
			case repository.RegistrationCompleted:
				return conflict("completed registration cannot be cancelled")
			case repository.RegistrationCancelled:
				return conflict("already cancelled")
			default:
				return conflict("registration is not in a cancellable state")
			}
		}

		reg.Status = repository.RegistrationCancelled
		if err := tx.UpdateRegistration(ctx, reg); err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		payment.Status = repository.PaymentCancelled
		payment, err = tx.UpdatePayment(ctx, payment)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		event, err := outboxEvent(EnrollmentEvent{
			EventType:      EventPaymentCancelled,
			OccurredAt:     s.now(),
			Kind:           kind,
			ItemID:         reg.ItemID,
			UserID:         reg.UserID,
			RegistrationID: reg.ID,
			PaymentID:      payment.ID,
			Amount:         payment.Amount,
			PaymentMethod:  string(payment.Method),
		})
		if err != nil {
			return err
		}
		if err := tx.AddOutboxEvent(ctx, event); err != nil {
			return fmt.Errorf("add outbox event: %w", err)
		}

		out = cancelResult{
			CancelOutput: CancelOutput{RegistrationID: reg.ID, PaymentID: payment.ID, Status: payment.Status},
			kind:         kind,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.Ctx(ctx, s.logger).Info("payment cancelled",
		zap.String("kind", string(out.kind)),
		zap.String("user_id", in.UserID),
		zap.String("registration_id", out.RegistrationID),
		zap.String("payment_id", out.PaymentID),
	)
	return &out, nil
}
