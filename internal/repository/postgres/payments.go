package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

// ListPayments платежи пользователя с курсом/тестом и регистрацией, created_at DESC, id DESC
func (s *Store) ListPayments(ctx context.Context, q repository.PaymentQuery) ([]repository.PaymentView, error) {
	uid, err := uuid.Parse(q.UserID)
	if err != nil {
		// id пользователя приходит из JWT; не-uuid не может владеть платежами, значит список пуст
		return []repository.PaymentView{}, nil
	}

	var a args
	where := []string{`COALESCE(cr.user_id, tr.user_id) = ` + a.add(uid)}
	if q.Status != nil {
		where = append(where, `p.status = `+a.add(*q.Status))
	}
	col := `p.` + q.DateColumn()
	if q.From != nil {
		where = append(where, col+` >= `+a.add(*q.From))
	}
	if q.To != nil {
		where = append(where, col+` <= `+a.add(*q.To))
	}

	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.course_registration_id, p.test_registration_id, p.amount, p.payment_method, p.status,
		        p.paid_at, p.canceled_at, p.created_at, p.updated_at,
		        COALESCE(c.id, t.id), COALESCE(c.title, t.title), COALESCE(cr.attempted_at, tr.attempted_at)
		 FROM payments p
		 LEFT JOIN course_registrations cr ON cr.id = p.course_registration_id
		 LEFT JOIN courses c ON c.id = cr.course_id
		 LEFT JOIN test_registrations tr ON tr.id = p.test_registration_id
		 LEFT JOIN tests t ON t.id = tr.test_id
		 WHERE `+strings.Join(where, ` AND `)+`
		 ORDER BY p.created_at DESC, p.id DESC`,
		a...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	views := make([]repository.PaymentView, 0)
	for rows.Next() {
		var v repository.PaymentView
		if err := rows.Scan(&v.ID, &v.CourseRegistrationID, &v.TestRegistrationID, &v.Amount, &v.Method, &v.Status,
			&v.PaidAt, &v.CanceledAt, &v.CreatedAt, &v.UpdatedAt,
			&v.ItemID, &v.ItemTitle, &v.AttemptedAt); err != nil {
			return nil, err
		}
		v.Target, v.RegistrationID, _ = v.Payment.Target()
		views = append(views, v)
	}
	return views, rows.Err()
}
