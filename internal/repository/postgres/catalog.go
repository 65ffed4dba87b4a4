package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shestoi/enrollhub/internal/repository"
)

const itemColumns = `id, title, start_at, end_at, is_active, registrations_count, created_at, updated_at`

// CreateItem добавляет курс/тест; пустой ID генерируется
func (s *Store) CreateItem(ctx context.Context, item repository.Item) (repository.Item, error) {
	t, err := tablesFor(item.Kind)
	if err != nil {
		return repository.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	item.UpdatedAt = item.CreatedAt

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+t.items+` (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Title, item.StartAt, item.EndAt, item.IsActive, item.RegistrationsCount, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return repository.Item{}, fmt.Errorf("insert %s: %w", t.items, err)
	}
	return item, nil
}

// GetItem получает курс/тест по ID
func (s *Store) GetItem(ctx context.Context, kind repository.Kind, id string) (repository.Item, error) {
	return getItem(ctx, s.pool, kind, id)
}

func getItem(ctx context.Context, q querier, kind repository.Kind, id string) (repository.Item, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return repository.Item{}, err
	}
	itemID, err := parseID(id)
	if err != nil {
		return repository.Item{}, err
	}

	item, err := scanItem(q.QueryRow(ctx, `SELECT `+itemColumns+` FROM `+t.items+` WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Item{}, repository.ErrNotFound
		}
		return repository.Item{}, err
	}
	item.Kind = kind
	return item, nil
}

func scanItem(row pgx.Row) (repository.Item, error) {
	var item repository.Item
	err := row.Scan(&item.ID, &item.Title, &item.StartAt, &item.EndAt, &item.IsActive,
		&item.RegistrationsCount, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

// ListItems листинг с сортировкой, фильтрами и offset/keyset пагинацией
func (s *Store) ListItems(ctx context.Context, q repository.ListItemsQuery) ([]repository.ItemView, error) {
	t, err := tablesFor(q.Kind)
	if err != nil {
		return nil, err
	}

	var a args
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(q.UserID); err == nil {
		userID = &parsed
	}
	userParam := a.add(userID)

	registered := `EXISTS (SELECT 1 FROM ` + t.registrations + ` r
		WHERE r.` + t.itemFK + ` = i.id AND r.user_id = ` + userParam + ` AND r.status <> 'cancelled')`

	var where []string
	if q.AvailableOnly {
		now := a.add(q.Now)
		where = append(where, `i.is_active`, `i.start_at <= `+now, `i.end_at >= `+now, `NOT `+registered)
	}
	if q.Search != "" {
		where = append(where, `i.title ILIKE '%' || `+a.add(escapeLike(q.Search))+` || '%'`)
	}

	orderBy := `i.created_at DESC, i.id DESC`
	if q.Sort == repository.SortPopular {
		orderBy = `i.registrations_count DESC, i.created_at DESC, i.id DESC`
	}

	if q.After != nil {
		afterID, err := uuid.Parse(q.After.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor id: %w", err)
		}
		if q.Sort == repository.SortPopular {
			where = append(where, `(i.registrations_count, i.created_at, i.id) < (`+
				a.add(q.After.RegistrationsCount)+`, `+a.add(q.After.CreatedAt)+`, `+a.add(afterID)+`)`)
		} else {
			where = append(where, `(i.created_at, i.id) < (`+a.add(q.After.CreatedAt)+`, `+a.add(afterID)+`)`)
		}
	}

	sql := `SELECT i.id, i.title, i.start_at, i.end_at, i.is_active, i.registrations_count, i.created_at, i.updated_at, ` +
		registered + ` FROM ` + t.items + ` i`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, ` AND `)
	}
	sql += ` ORDER BY ` + orderBy + ` LIMIT ` + a.add(q.Limit)
	if q.After == nil && q.Offset > 0 {
		sql += ` OFFSET ` + a.add(q.Offset)
	}

	rows, err := s.pool.Query(ctx, sql, a...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.items, err)
	}
	defer rows.Close()

	views := make([]repository.ItemView, 0, q.Limit)
	for rows.Next() {
		var v repository.ItemView
		if err := rows.Scan(&v.ID, &v.Title, &v.StartAt, &v.EndAt, &v.IsActive,
			&v.RegistrationsCount, &v.CreatedAt, &v.UpdatedAt, &v.IsRegistered); err != nil {
			return nil, err
		}
		v.Kind = q.Kind
		views = append(views, v)
	}
	return views, rows.Err()
}

// HasActiveRegistration проверяет наличие неотменённой регистрации
func (s *Store) HasActiveRegistration(ctx context.Context, kind repository.Kind, userID, itemID string) (bool, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return false, err
	}
	// строка не-uuid не может быть ключом в таблице, такой регистрации нет
	uid, err := parseID(userID)
	if err != nil {
		return false, nil
	}
	iid, err := parseID(itemID)
	if err != nil {
		return false, nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+t.registrations+`
		 WHERE user_id = $1 AND `+t.itemFK+` = $2 AND status <> 'cancelled')`,
		uid, iid).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// escapeLike экранирует спецсимволы LIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
