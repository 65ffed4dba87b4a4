package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
)

const (
	dateLayout     = "2006-01-02"
	dateRangeField = "from/to"
)

// PaymentService листинг платежей пользователя
type PaymentService struct {
	logger   *zap.Logger
	store    repository.Store
	location *time.Location
}

// NewPaymentService создаёт сервис; границы дня считаются в loc (nil = UTC)
func NewPaymentService(logger *zap.Logger, store repository.Store, loc *time.Location) *PaymentService {
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentService{logger: logger, store: store, location: loc}
}

// ListPaymentsInput query-параметры GET /me/payments
type ListPaymentsInput struct {
	UserID string
	Status string
	From   string
	To     string
}

// ListMyPayments возвращает платежи пользователя, новые первыми.
// from/to фильтруют по paid_at, canceled_at или created_at в зависимости от status.
func (s *PaymentService) ListMyPayments(ctx context.Context, in ListPaymentsInput) ([]repository.PaymentView, error) {
	q := repository.PaymentQuery{UserID: in.UserID}

	switch in.Status {
	case "":
	case string(repository.PaymentPaid), string(repository.PaymentCancelled):
		st := repository.PaymentStatus(in.Status)
		q.Status = &st
	default:
		return nil, fieldError("status", "must be one of: paid, cancelled")
	}

	// обе даты проверяются вместе и отчитываются одним полем from/to
	if in.From != "" {
		d, err := time.ParseInLocation(dateLayout, in.From, s.location)
		if err != nil {
			return nil, fieldError(dateRangeField, "dates must be in YYYY-MM-DD format")
		}
		from := now.With(d).BeginningOfDay()
		q.From = &from
	}
	if in.To != "" {
		d, err := time.ParseInLocation(dateLayout, in.To, s.location)
		if err != nil {
			return nil, fieldError(dateRangeField, "dates must be in YYYY-MM-DD format")
		}
		to := now.With(d).EndOfDay()
		q.To = &to
	}

	payments, err := s.store.ListPayments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
