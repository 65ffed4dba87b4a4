package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
)

// CatalogService листинг курсов и тестов
type CatalogService struct {
	logger *zap.Logger
	store  repository.Store
	now    func() time.Time
}

// NewCatalogService создаёт сервис каталога
func NewCatalogService(logger *zap.Logger, store repository.Store, now func() time.Time) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{logger: logger, store: store, now: now}
}

// ListItemsInput параметры GET /courses и GET /tests
type ListItemsInput struct {
	UserID string
	Kind   repository.Kind
	// Sort created (по умолчанию) или popular
	Sort string
	// Status "" или available
	Status string
	Search string
	Page   PageParams
}

// ListItemsOutput страница листинга
type ListItemsOutput struct {
	Items []repository.ItemView
	Meta  PageMeta
}

// ListItems возвращает страницу курсов/тестов; is_registered не учитывает отменённые регистрации
func (s *CatalogService) ListItems(ctx context.Context, in ListItemsInput) (*ListItemsOutput, error) {
	sort := repository.SortCreated
	switch in.Sort {
	case "", string(repository.SortCreated):
	case string(repository.SortPopular):
		sort = repository.SortPopular
	default:
		return nil, fieldError("sort", "must be one of: created, popular")
	}

	var availableOnly bool
	switch in.Status {
	case "":
	case "available":
		availableOnly = true
	default:
		return nil, fieldError("status", "must be: available")
	}

	pg, err := parsePage(in.Page, sort)
	if err != nil {
		return nil, err
	}

	views, err := s.store.ListItems(ctx, repository.ListItemsQuery{
		Kind:          in.Kind,
		UserID:        in.UserID,
		Sort:          sort,
		AvailableOnly: availableOnly,
		Now:           s.now(),
		Search:        strings.TrimSpace(in.Search),
		Limit:         pg.fetchLimit(),
		Offset:        pg.offset,
		After:         pg.after,
	})
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", in.Kind, err)
	}

	views, meta := pg.meta(views, sort)
	return &ListItemsOutput{Items: views, Meta: meta}, nil
}
