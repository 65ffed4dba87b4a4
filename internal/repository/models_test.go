package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_IsAvailable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := Item{IsActive: true, StartAt: now.Add(-24 * time.Hour), EndAt: now.Add(24 * time.Hour)}

	tests := []struct {
		name string
		item func() Item
		want bool
	}{
		{"inside window", func() Item { return window }, true},
		{"inactive", func() Item { i := window; i.IsActive = false; return i }, false},
		{"starts exactly now", func() Item { i := window; i.StartAt = now; return i }, true},
		{"ends exactly now", func() Item { i := window; i.EndAt = now; return i }, true},
		{"not started", func() Item { i := window; i.StartAt = now.Add(time.Second); return i }, false},
		{"finished", func() Item { i := window; i.EndAt = now.Add(-time.Second); return i }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item().IsAvailable(now))
		})
	}
}

func TestRegistration_Workable(t *testing.T) {
	for status, want := range map[RegistrationStatus]bool{
		RegistrationRegistered: true,
		RegistrationInProgress: true,
		RegistrationCompleted:  false,
		RegistrationCancelled:  false,
		"archived":             false,
	} {
		assert.Equal(t, want, Registration{Status: status}.Workable(), status)
	}
}

func TestPayment_Stamp(t *testing.T) {
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	p := Payment{Status: PaymentPaid}
	p.Stamp(first)
	require.NotNil(t, p.PaidAt)
	require.Nil(t, p.CanceledAt)

	// paid_at не перезаписывается
	p.Stamp(later)
	require.Equal(t, first, *p.PaidAt)

	p.Status = PaymentCancelled
	p.Stamp(later)
	require.Equal(t, first, *p.PaidAt)
	require.NotNil(t, p.CanceledAt)
	require.Equal(t, later, *p.CanceledAt)

	refunded := Payment{Status: PaymentRefunded}
	refunded.Stamp(first)
	require.NotNil(t, refunded.CanceledAt)

	pending := Payment{Status: PaymentPending}
	pending.Stamp(first)
	require.Nil(t, pending.PaidAt)
	require.Nil(t, pending.CanceledAt)
}

func TestPayment_Target(t *testing.T) {
	var p Payment
	_, _, ok := p.Target()
	require.False(t, ok)

	p.SetTarget(KindTest, "reg-1")
	kind, id, ok := p.Target()
	require.True(t, ok)
	require.Equal(t, KindTest, kind)
	require.Equal(t, "reg-1", id)

	p.SetTarget(KindCourse, "reg-2")
	kind, id, ok = p.Target()
	require.True(t, ok)
	require.Equal(t, KindCourse, kind)
	require.Equal(t, "reg-2", id)
	require.Nil(t, p.TestRegistrationID)

	both := "reg-3"
	p.TestRegistrationID = &both
	_, _, ok = p.Target()
	require.False(t, ok)
}

func TestPaymentQuery_DateColumn(t *testing.T) {
	paid, cancelled := PaymentPaid, PaymentCancelled
	require.Equal(t, "paid_at", PaymentQuery{Status: &paid}.DateColumn())
	require.Equal(t, "canceled_at", PaymentQuery{Status: &cancelled}.DateColumn())
	require.Equal(t, "created_at", PaymentQuery{}.DateColumn())
}
