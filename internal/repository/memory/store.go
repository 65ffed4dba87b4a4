package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

// Store реализует repository.Store, UserRepository и OutboxRepository в памяти.
// Используется для разработки и тестов; ограничения те же, что у схемы PostgreSQL.
// InTx держит общий мьютекс всю транзакцию, при ошибке состояние восстанавливается из снимка.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
	st  *state
}

type state struct {
	items    map[repository.Kind]map[string]repository.Item
	regs     map[repository.Kind]map[string]repository.Registration
	payments map[string]repository.Payment
	users    map[string]repository.User // email -> user
	outbox   []repository.OutboxEvent
}

// NewStore создаёт пустое in-memory хранилище
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now: now,
		st: &state{
			items: map[repository.Kind]map[string]repository.Item{
				repository.KindCourse: {},
				repository.KindTest:   {},
			},
			regs: map[repository.Kind]map[string]repository.Registration{
				repository.KindCourse: {},
				repository.KindTest:   {},
			},
			payments: map[string]repository.Payment{},
			users:    map[string]repository.User{},
		},
	}
}

func (s *state) clone() *state {
	c := &state{
		items:    make(map[repository.Kind]map[string]repository.Item, len(s.items)),
		regs:     make(map[repository.Kind]map[string]repository.Registration, len(s.regs)),
		payments: maps.Clone(s.payments),
		users:    maps.Clone(s.users),
		outbox:   slices.Clone(s.outbox),
	}
	for k, v := range s.items {
		c.items[k] = maps.Clone(v)
	}
	for k, v := range s.regs {
		c.regs[k] = maps.Clone(v)
	}
	return c
}

// InTx выполняет fn атомарно: при ошибке все изменения fn отменяются
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	if err := fn(ctx, &txStore{st: s.st, now: s.now}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Ping всегда успешен
func (s *Store) Ping(context.Context) error {
	return nil
}

func checkKind(kind repository.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown item kind %q", kind)
	}
	return nil
}

// CreateItem добавляет курс/тест; start_at должен быть раньше end_at
func (s *Store) CreateItem(_ context.Context, item repository.Item) (repository.Item, error) {
	if err := checkKind(item.Kind); err != nil {
		return repository.Item{}, err
	}
	if !item.StartAt.Before(item.EndAt) {
		return repository.Item{}, errors.New("start_at must be before end_at")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	item.UpdatedAt = item.CreatedAt
	s.st.items[item.Kind][item.ID] = item
	return item, nil
}

// GetItem получает курс/тест по ID
func (s *Store) GetItem(_ context.Context, kind repository.Kind, id string) (repository.Item, error) {
	if err := checkKind(kind); err != nil {
		return repository.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getItem(kind, id)
}

func (s *state) getItem(kind repository.Kind, id string) (repository.Item, error) {
	item, ok := s.items[kind][id]
	if !ok {
		return repository.Item{}, repository.ErrNotFound
	}
	return item, nil
}

func (s *state) hasActiveRegistration(kind repository.Kind, userID, itemID string) bool {
	for _, r := range s.regs[kind] {
		if r.UserID == userID && r.ItemID == itemID && r.Status != repository.RegistrationCancelled {
			return true
		}
	}
	return false
}

// HasActiveRegistration проверяет наличие неотменённой регистрации
func (s *Store) HasActiveRegistration(_ context.Context, kind repository.Kind, userID, itemID string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.hasActiveRegistration(kind, userID, itemID), nil
}

// ListItems листинг с той же сортировкой и пагинацией, что и в PostgreSQL
func (s *Store) ListItems(_ context.Context, q repository.ListItemsQuery) ([]repository.ItemView, error) {
	if err := checkKind(q.Kind); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(q.Search)
	views := make([]repository.ItemView, 0, len(s.st.items[q.Kind]))
	for _, item := range s.st.items[q.Kind] {
		registered := q.UserID != "" && s.st.hasActiveRegistration(q.Kind, q.UserID, item.ID)
		if q.AvailableOnly && (!item.IsAvailable(q.Now) || registered) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Title), search) {
			continue
		}
		if q.After != nil && !before(q.Sort, repository.CursorOf(item), *q.After) {
			continue
		}
		views = append(views, repository.ItemView{Item: item, IsRegistered: registered})
	}

	slices.SortFunc(views, func(a, b repository.ItemView) int {
		ka, kb := repository.CursorOf(a.Item), repository.CursorOf(b.Item)
		switch {
		case before(q.Sort, kb, ka):
			return -1
		case before(q.Sort, ka, kb):
			return 1
		default:
			return 0
		}
	})

	if q.After == nil && q.Offset > 0 {
		if q.Offset >= len(views) {
			return []repository.ItemView{}, nil
		}
		views = views[q.Offset:]
	}
	if q.Limit > 0 && len(views) > q.Limit {
		views = views[:q.Limit]
	}
	return views, nil
}

// before сообщает, что ключ a меньше ключа b в порядке кортежа сортировки.
// Листинг идёт по убыванию, поэтому меньший ключ идёт позже.
func before(sort repository.ItemSort, a, b repository.ItemCursor) bool {
	if sort == repository.SortPopular && a.RegistrationsCount != b.RegistrationsCount {
		return a.RegistrationsCount < b.RegistrationsCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ListPayments платежи пользователя, created_at DESC, id DESC
func (s *Store) ListPayments(_ context.Context, q repository.PaymentQuery) ([]repository.PaymentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]repository.PaymentView, 0)
	for _, p := range s.st.payments {
		kind, regID, ok := p.Target()
		if !ok {
			continue
		}
		reg, ok := s.st.regs[kind][regID]
		if !ok || reg.UserID != q.UserID {
			continue
		}
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		if !inRange(dateOf(p, q.DateColumn()), q.From, q.To) {
			continue
		}
		item := s.st.items[kind][reg.ItemID]
		views = append(views, repository.PaymentView{
			Payment:        p,
			Target:         kind,
			ItemID:         reg.ItemID,
			ItemTitle:      item.Title,
			RegistrationID: reg.ID,
			AttemptedAt:    reg.AttemptedAt,
		})
	}

	slices.SortFunc(views, func(a, b repository.PaymentView) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return views, nil
}

func dateOf(p repository.Payment, column string) *time.Time {
	switch column {
	case "paid_at":
		return p.PaidAt
	case "canceled_at":
		return p.CanceledAt
	default:
		t := p.CreatedAt
		return &t
	}
}

// inRange повторяет SQL: сравнение с NULL ложно
func inRange(t *time.Time, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
