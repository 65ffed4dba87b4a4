package httpapi

import (
	"encoding/json"
	"time"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/internal/service"
)

// credentialsRequest тело /signup и /login
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Access    string `json:"access"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// applyRequest тело enroll/apply. amount читается как json.Number, чтобы дробь или строка
// давали ошибку поля, а не ошибку разбора всего тела
type applyRequest struct {
	Amount        json.Number `json:"amount"`
	PaymentMethod string      `json:"payment_method"`
}

type applyResponse struct {
	RegistrationID string `json:"registration_id"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
}

type completeResponse struct {
	RegistrationID string    `json:"registration_id"`
	Status         string    `json:"status"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

type cancelResponse struct {
	Detail         string `json:"detail"`
	RegistrationID string `json:"registration_id"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
}

type itemResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	RegistrationsCount int64     `json:"registrations_count"`
	StartAt            time.Time `json:"start_at"`
	EndAt              time.Time `json:"end_at"`
	IsRegistered       bool      `json:"is_registered"`
}

type listResponse[T any] struct {
	Meta    map[string]any `json:"meta"`
	Results []T            `json:"results"`
}

type paymentResponse struct {
	ID             string     `json:"id"`
	Amount         int64      `json:"amount"`
	PaymentMethod  string     `json:"payment_method"`
	Target         string     `json:"target"`
	ItemID         string     `json:"item_id"`
	ItemTitle      string     `json:"item_title"`
	RegistrationID string     `json:"registration_id"`
	Status         string     `json:"status"`
	AttemptedAt    *time.Time `json:"attempted_at"`
	PaidAt         *time.Time `json:"paid_at"`
	CanceledAt     *time.Time `json:"canceled_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toItemResponses(views []repository.ItemView) []itemResponse {
	out := make([]itemResponse, 0, len(views))
	for _, v := range views {
		out = append(out, itemResponse{
			ID:                 v.ID,
			Title:              v.Title,
			RegistrationsCount: v.RegistrationsCount,
			StartAt:            v.StartAt,
			EndAt:              v.EndAt,
			IsRegistered:       v.IsRegistered,
		})
	}
	return out
}

// toMeta оставляет только поля, относящиеся к режиму пагинации
func toMeta(m service.PageMeta) map[string]any {
	meta := map[string]any{"limit": m.Limit}
	switch m.Mode {
	case service.PageModePage:
		meta["page"] = m.Page
		meta["next_page"] = m.NextPage
		meta["prev_page"] = m.PrevPage
	case service.PageModeOffset:
		meta["offset"] = m.Offset
		meta["next_offset"] = m.NextOffset
	default:
		meta["next_cursor"] = m.NextCursor
	}
	return meta
}

func toPaymentResponses(views []repository.PaymentView) []paymentResponse {
	out := make([]paymentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, paymentResponse{
			ID:             v.ID,
			Amount:         v.Amount,
			PaymentMethod:  string(v.Method),
			Target:         string(v.Target),
			ItemID:         v.ItemID,
			ItemTitle:      v.ItemTitle,
			RegistrationID: v.RegistrationID,
			Status:         string(v.Status),
			AttemptedAt:    v.AttemptedAt,
			PaidAt:         v.PaidAt,
			CanceledAt:     v.CanceledAt,
			CreatedAt:      v.CreatedAt,
		})
	}
	return out
}
