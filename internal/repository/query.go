package repository

import "time"

// ItemSort порядок листинга
type ItemSort string

const (
	// SortCreated created_at DESC, id DESC
	SortCreated ItemSort = "created"
	// SortPopular registrations_count DESC, created_at DESC, id DESC
	SortPopular ItemSort = "popular"
)

// ItemCursor ключ последней строки страницы для keyset-пагинации
type ItemCursor struct {
	RegistrationsCount int64     `json:"c,omitempty"`
	CreatedAt          time.Time `json:"t"`
	ID                 string    `json:"id"`
}

// ListItemsQuery параметры листинга курсов/тестов
type ListItemsQuery struct {
	Kind   Kind
	UserID string // для is_registered и status=available
	Sort   ItemSort
	// AvailableOnly: активные, в окне на Now и без неотменённой регистрации UserID
	AvailableOnly bool
	Now           time.Time
	// Search подстрока названия без учёта регистра
	Search string
	Limit  int
	Offset int
	// After при заданном курсоре Offset игнорируется
	After *ItemCursor
}

// ItemView строка листинга
type ItemView struct {
	Item
	IsRegistered bool
}

// CursorOf возвращает курсор, указывающий на item
func CursorOf(item Item) ItemCursor {
	return ItemCursor{
		RegistrationsCount: item.RegistrationsCount,
		CreatedAt:          item.CreatedAt,
		ID:                 item.ID,
	}
}

// PaymentQuery фильтры /me/payments; From/To применяются к колонке DateColumn
type PaymentQuery struct {
	UserID string
	Status *PaymentStatus
	From   *time.Time
	To     *time.Time
}

// DateColumn колонка для фильтра по датам: paid_at для paid, canceled_at для cancelled, иначе created_at
func (q PaymentQuery) DateColumn() string {
	if q.Status != nil {
		switch *q.Status {
		case PaymentPaid:
			return "paid_at"
		case PaymentCancelled:
			return "canceled_at"
		}
	}
	return "created_at"
}

// PaymentView платёж пользователя вместе с регистрацией и названием курса/теста
type PaymentView struct {
	Payment
	Target         Kind
	ItemID         string
	ItemTitle      string
	RegistrationID string
	AttemptedAt    *time.Time
}
