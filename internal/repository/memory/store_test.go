package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/enrollhub/internal/repository"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	return NewStore(c.now), c
}

func seedItem(t *testing.T, s *Store, kind repository.Kind, title string) repository.Item {
	t.Helper()
	item, err := s.CreateItem(context.Background(), repository.Item{
		Kind: kind, Title: title, IsActive: true,
		StartAt: s.now().Add(-time.Hour), EndAt: s.now().Add(time.Hour),
	})
	require.NoError(t, err)
	return item
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	item := seedItem(t, s, repository.KindCourse, "Go")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		_, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindCourse, UserID: "u1", ItemID: item.ID})
		require.NoError(t, err)
		require.NoError(t, tx.IncrementRegistrationsCount(ctx, repository.KindCourse, item.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetItem(ctx, repository.KindCourse, item.ID)
	require.NoError(t, err)
	require.Zero(t, got.RegistrationsCount)

	has, err := s.HasActiveRegistration(ctx, repository.KindCourse, "u1", item.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestStore_RegistrationUniqueness(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	item := seedItem(t, s, repository.KindTest, "Midterm")

	var first repository.Registration
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		var err error
		first, err = tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindTest, UserID: "u1", ItemID: item.ID})
		return err
	}))

	err := s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		_, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindTest, UserID: "u1", ItemID: item.ID})
		return err
	})
	require.ErrorIs(t, err, repository.ErrRegistrationConflict)

	// другой пользователь не конфликтует
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		_, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindTest, UserID: "u2", ItemID: item.ID})
		return err
	}))

	c.advance(time.Minute)
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		first.Status = repository.RegistrationCancelled
		if err := tx.UpdateRegistration(ctx, first); err != nil {
			return err
		}
		_, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindTest, UserID: "u1", ItemID: item.ID})
		return err
	}))

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		reg, err := tx.LockRegistrationByUserItem(ctx, repository.KindTest, "u1", item.ID)
		require.NoError(t, err)
		require.Equal(t, repository.RegistrationRegistered, reg.Status)
		require.NotEqual(t, first.ID, reg.ID)

		_, err = tx.LockRegistrationByUserItem(ctx, repository.KindTest, "u3", item.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	}))
}

func TestStore_PaymentConstraints(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	item := seedItem(t, s, repository.KindCourse, "Go")

	err := s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		reg, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindCourse, UserID: "u1", ItemID: item.ID})
		require.NoError(t, err)

		p := repository.Payment{Amount: 100, Method: repository.MethodCard, Status: repository.PaymentPaid}
		_, err = tx.CreatePayment(ctx, p)
		require.Error(t, err, "payment without target")

		p.SetTarget(repository.KindCourse, reg.ID)
		p.Amount = 0
		_, err = tx.CreatePayment(ctx, p)
		require.Error(t, err, "non-positive amount")

		p.Amount = 100
		created, err := tx.CreatePayment(ctx, p)
		require.NoError(t, err)
		require.NotNil(t, created.PaidAt)

		_, err = tx.CreatePayment(ctx, p)
		require.ErrorIs(t, err, repository.ErrPaymentConflict)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ListItems(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	a := seedItem(t, s, repository.KindCourse, "Algorithms")
	c.advance(time.Minute)
	b := seedItem(t, s, repository.KindCourse, "Backend with Go")
	c.advance(time.Minute)
	d := seedItem(t, s, repository.KindCourse, "Databases")
	_ = seedItem(t, s, repository.KindTest, "Not a course")

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		if _, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindCourse, UserID: "u1", ItemID: a.ID}); err != nil {
			return err
		}
		return tx.IncrementRegistrationsCount(ctx, repository.KindCourse, a.ID)
	}))

	ids := func(views []repository.ItemView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	created, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, UserID: "u1", Sort: repository.SortCreated, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{d.ID, b.ID, a.ID}, ids(created))
	require.True(t, created[2].IsRegistered)

	popular, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, Sort: repository.SortPopular, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, d.ID, b.ID}, ids(popular))

	cursor := repository.CursorOf(popular[0].Item)
	next, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, Sort: repository.SortPopular, Limit: 1, After: &cursor})
	require.NoError(t, err)
	require.Equal(t, []string{d.ID}, ids(next))

	offset, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, Sort: repository.SortCreated, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, ids(offset))

	available, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, UserID: "u1", AvailableOnly: true, Now: s.now(), Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{d.ID, b.ID}, ids(available))

	search, err := s.ListItems(ctx, repository.ListItemsQuery{Kind: repository.KindCourse, Search: "WITH go", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, ids(search))
}

func TestStore_ListPaymentsDateColumn(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	item := seedItem(t, s, repository.KindCourse, "Go")

	var paymentID string
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		reg, err := tx.CreateRegistration(ctx, repository.Registration{Kind: repository.KindCourse, UserID: "u1", ItemID: item.ID})
		if err != nil {
			return err
		}
		p := repository.Payment{Amount: 100, Method: repository.MethodCard, Status: repository.PaymentPaid}
		p.SetTarget(repository.KindCourse, reg.ID)
		p, err = tx.CreatePayment(ctx, p)
		paymentID = p.ID
		return err
	}))

	c.advance(48 * time.Hour)
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		p.Status = repository.PaymentCancelled
		_, err = tx.UpdatePayment(ctx, p)
		return err
	}))

	cancelled := repository.PaymentCancelled
	from := c.t.Add(-time.Hour)
	views, err := s.ListPayments(ctx, repository.PaymentQuery{UserID: "u1", Status: &cancelled, From: &from})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Go", views[0].ItemTitle)
	require.NotNil(t, views[0].PaidAt)
	require.NotNil(t, views[0].CanceledAt)

	// без статуса фильтр идёт по created_at, а платёж создан двое суток назад
	views, err = s.ListPayments(ctx, repository.PaymentQuery{UserID: "u1", From: &from})
	require.NoError(t, err)
	require.Empty(t, views)

	views, err = s.ListPayments(ctx, repository.PaymentQuery{UserID: "someone-else"})
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestStore_Outbox(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		for _, id := range []string{"e1", "e2"} {
			if err := tx.AddOutboxEvent(ctx, repository.OutboxEvent{EventID: id, Topic: "t", Payload: []byte(`{}`)}); err != nil {
				return err
			}
		}
		return nil
	}))

	pending, err := s.GetPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, s.MarkOutboxEventSent(ctx, "e1"))
	require.NoError(t, s.MarkOutboxEventFailed(ctx, "e2", "broker down"))
	pending, err = s.GetPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.NoError(t, s.ResetOutboxEventPending(ctx, "e2"))
	pending, err = s.GetPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 1, pending[0].Attempts)

	c.advance(time.Hour)
	deleted, err := s.DeleteSentOutboxEvents(ctx, c.t)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
	require.Len(t, s.OutboxEvents(), 1)
}

func TestSessions_Expiry(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	sessions := NewSessions(c.now)

	id, err := sessions.CreateSession(ctx, "u1", time.Hour)
	require.NoError(t, err)

	c.advance(50 * time.Minute)
	require.NoError(t, sessions.RefreshSession(ctx, id, time.Hour))

	c.advance(50 * time.Minute)
	userID, err := sessions.GetUserIDBySession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "u1", userID)

	c.advance(time.Hour)
	_, err = sessions.GetUserIDBySession(ctx, id)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
	require.ErrorIs(t, sessions.RefreshSession(ctx, id, time.Hour), repository.ErrSessionNotFound)
}
