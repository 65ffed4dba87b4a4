package service

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/shestoi/enrollhub/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageMode способ пагинации, выбирается по параметрам запроса
type PageMode string

const (
	PageModeCursor PageMode = "cursor"
	PageModePage   PageMode = "page"
	PageModeOffset PageMode = "offset"
)

// PageParams сырые параметры запроса limit/page/offset/cursor
type PageParams struct {
	Limit  string
	Page   string
	Offset string
	Cursor string
}

// PageMeta метаданные ответа; заполняются поля режима Mode
type PageMeta struct {
	Mode       PageMode
	Limit      int
	Page       int
	NextPage   *int
	PrevPage   *int
	Offset     int
	NextOffset *int
	NextCursor *string
}

type page struct {
	mode   PageMode
	limit  int
	page   int
	offset int
	after  *repository.ItemCursor
}

// cursorPayload содержимое курсора; Sort не даёт применить курсор к другой сортировке
type cursorPayload struct {
	Sort repository.ItemSort `json:"s"`
	repository.ItemCursor
}

// parsePage: page -> постраничный режим, offset -> смещение, иначе keyset-курсор
func parsePage(p PageParams, sort repository.ItemSort) (page, error) {
	pg := page{mode: PageModeCursor, limit: defaultPageLimit}

	if p.Limit != "" {
		limit, err := strconv.Atoi(p.Limit)
		if err != nil || limit < 1 {
			return page{}, fieldError("limit", "must be a positive integer")
		}
		pg.limit = min(limit, maxPageLimit)
	}

	switch {
	case p.Page != "":
		n, err := strconv.Atoi(p.Page)
		if err != nil || n < 1 {
			return page{}, fieldError("page", "must be a positive integer")
		}
		// (n-1)*limit не должен переполнить int
		if n-1 > math.MaxInt/pg.limit {
			return page{}, fieldError("page", "is too large")
		}
		pg.mode, pg.page, pg.offset = PageModePage, n, (n-1)*pg.limit
	case p.Offset != "":
		n, err := strconv.Atoi(p.Offset)
		if err != nil || n < 0 {
			return page{}, fieldError("offset", "must be a non-negative integer")
		}
		if n > math.MaxInt-pg.limit {
			return page{}, fieldError("offset", "is too large")
		}
		pg.mode, pg.offset = PageModeOffset, n
	case p.Cursor != "":
		c, err := decodeCursor(p.Cursor)
		if err != nil || c.Sort != sort {
			return page{}, fieldError("cursor", "invalid cursor")
		}
		pg.after = &c.ItemCursor
	}
	return pg, nil
}

// fetchLimit в режиме курсора берём на одну строку больше, чтобы знать, есть ли следующая страница
func (p page) fetchLimit() int {
	if p.mode == PageModeCursor {
		return p.limit + 1
	}
	return p.limit
}

// meta обрезает лишнюю строку и считает ссылки на соседние страницы
func (p page) meta(views []repository.ItemView, sort repository.ItemSort) ([]repository.ItemView, PageMeta) {
	m := PageMeta{Mode: p.mode, Limit: p.limit}
	full := len(views) >= p.limit

	switch p.mode {
	case PageModePage:
		m.Page = p.page
		if full {
			next := p.page + 1
			m.NextPage = &next
		}
		if p.page > 1 {
			prev := p.page - 1
			m.PrevPage = &prev
		}
	case PageModeOffset:
		m.Offset = p.offset
		if full {
			next := p.offset + p.limit
			m.NextOffset = &next
		}
	case PageModeCursor:
		if len(views) > p.limit {
			views = views[:p.limit]
			c := encodeCursor(cursorPayload{Sort: sort, ItemCursor: repository.CursorOf(views[len(views)-1].Item)})
			m.NextCursor = &c
		}
	}
	return views, m
}

func encodeCursor(c cursorPayload) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (cursorPayload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursorPayload{}, err
	}
	var c cursorPayload
	if err := json.Unmarshal(raw, &c); err != nil {
		return cursorPayload{}, err
	}
	// id идёт в запрос как uuid: мусор отсекается здесь, а не ошибкой хранилища
	if _, err := uuid.Parse(c.ID); err != nil {
		return cursorPayload{}, err
	}
	return c, nil
}
