package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/enrollhub/internal/repository"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// querier общая часть pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store реализует repository.Store, UserRepository и OutboxRepository используя PostgreSQL
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore создаёт PostgreSQL хранилище; now используется для created_at/paid_at/canceled_at
func NewStore(pool *pgxpool.Pool, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{pool: pool, now: now}
}

// InTx открывает транзакцию (read committed), откатывает её при ошибке fn
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback после Commit ничего не делает
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txStore{q: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// kindTables имена таблиц и колонок для типа курс/тест
type kindTables struct {
	items         string
	registrations string
	itemFK        string
	paymentFK     string
}

func tablesFor(kind repository.Kind) (kindTables, error) {
	switch kind {
	case repository.KindCourse:
		return kindTables{items: "courses", registrations: "course_registrations", itemFK: "course_id", paymentFK: "course_registration_id"}, nil
	case repository.KindTest:
		return kindTables{items: "tests", registrations: "test_registrations", itemFK: "test_id", paymentFK: "test_registration_id"}, nil
	default:
		return kindTables{}, fmt.Errorf("unknown item kind %q", kind)
	}
}

// parseID: невалидный uuid не может существовать в таблице, поэтому это ErrNotFound
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, repository.ErrNotFound
	}
	return parsed, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// args накапливает параметры запроса и возвращает плейсхолдеры $1, $2, ...
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}
