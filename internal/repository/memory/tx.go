package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

// txStore работает прямо с состоянием Store; мьютекс уже взят в InTx
type txStore struct {
	st  *state
	now func() time.Time
}

func (t *txStore) GetItem(_ context.Context, kind repository.Kind, id string) (repository.Item, error) {
	if err := checkKind(kind); err != nil {
		return repository.Item{}, err
	}
	return t.st.getItem(kind, id)
}

func (t *txStore) CreateRegistration(_ context.Context, reg repository.Registration) (repository.Registration, error) {
	if err := checkKind(reg.Kind); err != nil {
		return repository.Registration{}, err
	}
	if _, ok := t.st.items[reg.Kind][reg.ItemID]; !ok {
		return repository.Registration{}, repository.ErrNotFound
	}
	if t.st.hasActiveRegistration(reg.Kind, reg.UserID, reg.ItemID) {
		return repository.Registration{}, repository.ErrRegistrationConflict
	}

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.Status == "" {
		reg.Status = repository.RegistrationRegistered
	}
	reg.CreatedAt = t.now()
	t.st.regs[reg.Kind][reg.ID] = reg
	return reg, nil
}

func (t *txStore) IncrementRegistrationsCount(_ context.Context, kind repository.Kind, itemID string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	item, ok := t.st.items[kind][itemID]
	if !ok {
		return repository.ErrNotFound
	}
	item.RegistrationsCount++
	item.UpdatedAt = t.now()
	t.st.items[kind][itemID] = item
	return nil
}

func (t *txStore) CreatePayment(_ context.Context, p repository.Payment) (repository.Payment, error) {
	kind, regID, ok := p.Target()
	if !ok {
		return repository.Payment{}, errors.New("payment must reference exactly one registration")
	}
	if p.Amount <= 0 {
		return repository.Payment{}, errors.New("payment amount must be positive")
	}
	if !slices.Contains(repository.PaymentMethods, p.Method) {
		return repository.Payment{}, errors.New("unsupported payment method")
	}
	if _, ok := t.st.regs[kind][regID]; !ok {
		return repository.Payment{}, repository.ErrNotFound
	}
	for _, existing := range t.st.payments {
		if k, id, ok := existing.Target(); ok && k == kind && id == regID {
			return repository.Payment{}, repository.ErrPaymentConflict
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := t.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Stamp(now)
	t.st.payments[p.ID] = p
	return p, nil
}

// LockRegistrationByUserItem: блокировки не нужны, транзакции и так последовательны
func (t *txStore) LockRegistrationByUserItem(_ context.Context, kind repository.Kind, userID, itemID string) (repository.Registration, error) {
	if err := checkKind(kind); err != nil {
		return repository.Registration{}, err
	}

	var best *repository.Registration
	for _, r := range t.st.regs[kind] {
		if r.UserID != userID || r.ItemID != itemID {
			continue
		}
		if best == nil || preferRegistration(r, *best) {
			r := r
			best = &r
		}
	}
	if best == nil {
		return repository.Registration{}, repository.ErrNotFound
	}
	return *best, nil
}

// preferRegistration порядок (status = 'cancelled'), created_at DESC, id DESC
func preferRegistration(a, b repository.Registration) bool {
	aCancelled := a.Status == repository.RegistrationCancelled
	bCancelled := b.Status == repository.RegistrationCancelled
	if aCancelled != bCancelled {
		return !aCancelled
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (t *txStore) LockRegistration(_ context.Context, kind repository.Kind, id string) (repository.Registration, error) {
	if err := checkKind(kind); err != nil {
		return repository.Registration{}, err
	}
	reg, ok := t.st.regs[kind][id]
	if !ok {
		return repository.Registration{}, repository.ErrNotFound
	}
	return reg, nil
}

func (t *txStore) LockPayment(_ context.Context, id string) (repository.Payment, error) {
	p, ok := t.st.payments[id]
	if !ok {
		return repository.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (t *txStore) UpdateRegistration(_ context.Context, reg repository.Registration) error {
	if err := checkKind(reg.Kind); err != nil {
		return err
	}
	current, ok := t.st.regs[reg.Kind][reg.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if reg.Status != repository.RegistrationCancelled && current.Status == repository.RegistrationCancelled &&
		t.st.hasActiveRegistration(reg.Kind, current.UserID, current.ItemID) {
		return repository.ErrRegistrationConflict
	}
	current.Status = reg.Status
	current.AttemptedAt = reg.AttemptedAt
	t.st.regs[reg.Kind][reg.ID] = current
	return nil
}

func (t *txStore) UpdatePayment(_ context.Context, p repository.Payment) (repository.Payment, error) {
	current, ok := t.st.payments[p.ID]
	if !ok {
		return repository.Payment{}, repository.ErrNotFound
	}
	now := t.now()
	current.Status = p.Status
	current.PaidAt = p.PaidAt
	current.CanceledAt = p.CanceledAt
	current.Stamp(now)
	current.UpdatedAt = now
	t.st.payments[p.ID] = current
	return current, nil
}

func (t *txStore) AddOutboxEvent(_ context.Context, event repository.OutboxEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = t.now()
	}
	event.Status = repository.OutboxPending
	t.st.outbox = append(t.st.outbox, event)
	return nil
}
