package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/authctx"
	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/internal/service"
)

// Handler HTTP-обработчики enrollment API.
// Знает только service слой: транзакции, блокировки и хранилище за ним.
type Handler struct {
	logger     *zap.Logger
	auth       *service.AuthService
	catalog    *service.CatalogService
	enrollment *service.EnrollmentService
	payments   *service.PaymentService
}

// NewHandler создаёт HTTP handler
func NewHandler(
	logger *zap.Logger,
	auth *service.AuthService,
	catalog *service.CatalogService,
	enrollment *service.EnrollmentService,
	payments *service.PaymentService,
) *Handler {
	return &Handler{
		logger:     logger,
		auth:       auth,
		catalog:    catalog,
		enrollment: enrollment,
		payments:   payments,
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required", nil)
		}
		return badRequest("malformed JSON body", nil)
	}
	return nil
}

// userID достаётся из контекста, который заполнил middleware.RequireAuth
func userID(r *http.Request) string {
	id, _ := authctx.UserIDFromContext(r.Context())
	return id
}

// Signup обрабатывает POST /signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), service.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, signupResponse{ID: user.ID, Email: user.Email})
}

// Login обрабатывает POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.auth.Login(r.Context(), service.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Access:    token.Access,
		TokenType: "Bearer",
		ExpiresIn: int64(token.ExpiresIn.Seconds()),
	})
}

// Logout обрабатывает POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := authctx.SessionIDFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), service.Principal{UserID: userID(r), SessionID: sid}); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListItems обрабатывает GET /courses и GET /tests
func (h *Handler) ListItems(kind repository.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := h.catalog.ListItems(r.Context(), service.ListItemsInput{
			UserID: userID(r),
			Kind:   kind,
			Sort:   q.Get("sort"),
			Status: q.Get("status"),
			Search: q.Get("q"),
			Page: service.PageParams{
				Limit:  q.Get("limit"),
				Page:   q.Get("page"),
				Offset: q.Get("offset"),
				Cursor: q.Get("cursor"),
			},
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[itemResponse]{
			Meta:    toMeta(out.Meta),
			Results: toItemResponses(out.Items),
		})
	}
}

// Apply обрабатывает POST /courses/{id}/enroll и POST /tests/{id}/apply
func (h *Handler) Apply(kind repository.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		var amount int64
		if req.Amount != "" {
			n, err := strconv.ParseInt(req.Amount.String(), 10, 64)
			if err != nil {
				writeError(w, r, h.logger, badRequest("invalid request", map[string]string{"amount": "must be a positive integer"}))
				return
			}
			amount = n
		}

		out, err := h.enrollment.Apply(r.Context(), service.ApplyInput{
			UserID:        userID(r),
			Kind:          kind,
			ItemID:        chi.URLParam(r, "id"),
			Amount:        amount,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, applyResponse{
			RegistrationID: out.RegistrationID,
			PaymentID:      out.PaymentID,
			Status:         string(out.Status),
		})
	}
}

// Complete обрабатывает POST /courses/{id}/complete и POST /tests/{id}/complete
func (h *Handler) Complete(kind repository.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.enrollment.Complete(r.Context(), service.CompleteInput{
			UserID: userID(r),
			Kind:   kind,
			ItemID: chi.URLParam(r, "id"),
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, completeResponse{
			RegistrationID: out.RegistrationID,
			Status:         string(out.Status),
			AttemptedAt:    out.AttemptedAt,
		})
	}
}

// CancelPayment обрабатывает POST /payments/{id}/cancel
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	out, err := h.enrollment.Cancel(r.Context(), service.CancelInput{
		UserID:    userID(r),
		PaymentID: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Detail:         "payment cancelled",
		RegistrationID: out.RegistrationID,
		PaymentID:      out.PaymentID,
		Status:         string(out.Status),
	})
}

// ListMyPayments обрабатывает GET /me/payments
func (h *Handler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.payments.ListMyPayments(r.Context(), service.ListPaymentsInput{
		UserID: userID(r),
		Status: q.Get("status"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}
