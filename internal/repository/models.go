package repository

import (
	"time"
)

// Kind тип записываемой сущности: курс или тест.
// Схемы у них одинаковые, различаются только таблицы.
type Kind string

const (
	KindCourse Kind = "course"
	KindTest   Kind = "test"
)

// Valid сообщает, известен ли тип
func (k Kind) Valid() bool {
	return k == KindCourse || k == KindTest
}

// Item курс или тест с окном доступности и счётчиком регистраций
type Item struct {
	ID                 string
	Kind               Kind
	Title              string
	StartAt            time.Time
	EndAt              time.Time
	IsActive           bool
	RegistrationsCount int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAvailable: is_active и start_at <= now <= end_at.
// Одно и то же условие для записи и для завершения.
func (i Item) IsAvailable(now time.Time) bool {
	return i.IsActive && !now.Before(i.StartAt) && !now.After(i.EndAt)
}

// RegistrationStatus статус регистрации пользователя
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationInProgress RegistrationStatus = "in_progress"
	RegistrationCompleted  RegistrationStatus = "completed"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// Registration запись пользователя на курс/тест.
// Не более одной неотменённой регистрации на пару (UserID, ItemID).
type Registration struct {
	ID          string
	Kind        Kind
	UserID      string
	ItemID      string
	Status      RegistrationStatus
	AttemptedAt *time.Time
	CreatedAt   time.Time
}

// Workable: из registered/in_progress возможны complete и cancel
func (r Registration) Workable() bool {
	return r.Status == RegistrationRegistered || r.Status == RegistrationInProgress
}

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodKakaoPay     PaymentMethod = "kakaopay"
	MethodNaverPay     PaymentMethod = "naverpay"
	MethodTossPay      PaymentMethod = "tosspay"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethods все поддерживаемые способы оплаты
var PaymentMethods = []PaymentMethod{MethodCard, MethodKakaoPay, MethodNaverPay, MethodTossPay, MethodBankTransfer}

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment платёж, привязанный ровно к одной регистрации (курса или теста)
type Payment struct {
	ID                   string
	CourseRegistrationID *string
	TestRegistrationID   *string
	Amount               int64
	Method               PaymentMethod
	Status               PaymentStatus
	PaidAt               *time.Time
	CanceledAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Target возвращает тип и id связанной регистрации; ok=false, если ссылки нет или их две
func (p Payment) Target() (kind Kind, registrationID string, ok bool) {
	switch {
	case p.CourseRegistrationID != nil && p.TestRegistrationID == nil:
		return KindCourse, *p.CourseRegistrationID, true
	case p.TestRegistrationID != nil && p.CourseRegistrationID == nil:
		return KindTest, *p.TestRegistrationID, true
	default:
		return "", "", false
	}
}

// SetTarget ставит ссылку на регистрацию нужного типа
func (p *Payment) SetTarget(kind Kind, registrationID string) {
	id := registrationID
	p.CourseRegistrationID, p.TestRegistrationID = nil, nil
	if kind == KindCourse {
		p.CourseRegistrationID = &id
	} else {
		p.TestRegistrationID = &id
	}
}

// Stamp проставляет paid_at/canceled_at по статусу. Уже заданные значения не перезаписываются.
// Вызывается хранилищем при каждой записи платежа.
func (p *Payment) Stamp(now time.Time) {
	switch p.Status {
	case PaymentPaid:
		if p.PaidAt == nil {
			t := now
			p.PaidAt = &t
		}
	case PaymentCancelled, PaymentRefunded:
		if p.CanceledAt == nil {
			t := now
			p.CanceledAt = &t
		}
	}
}

// User учётная запись
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// OutboxStatus статус события в outbox
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEvent доменное событие, записанное в той же транзакции, что и изменение
type OutboxEvent struct {
	EventID     string
	EventType   string
	Topic       string
	AggregateID string // id регистрации, ключ сообщения в Kafka
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	SentAt      *time.Time
}
