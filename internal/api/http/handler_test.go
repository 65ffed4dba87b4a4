package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/internal/repository/memory"
	"github.com/shestoi/enrollhub/internal/service"
	platformhealth "github.com/shestoi/enrollhub/platform/health/http"
)

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	store  *memory.Store
	now    time.Time
	course repository.Item
	test   repository.Item
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return now }
	logger := zap.NewNop()

	store := memory.NewStore(clock)
	auth := service.NewAuthService(logger, store, memory.NewSessions(clock), "secret", time.Hour, clock)
	handler := NewHandler(logger,
		auth,
		service.NewCatalogService(logger, store, clock),
		service.NewEnrollmentService(logger, store, clock),
		service.NewPaymentService(logger, store, time.UTC),
	)
	checks := map[string]platformhealth.Check{"postgres": store.Ping}
	srv := httptest.NewServer(NewRouter(handler, auth, checks, logger))
	t.Cleanup(srv.Close)

	api := &testAPI{t: t, srv: srv, store: store, now: now}
	api.course = api.seed(repository.KindCourse, "Distributed systems")
	api.test = api.seed(repository.KindTest, "Go certification")
	return api
}

func (a *testAPI) seed(kind repository.Kind, title string) repository.Item {
	a.t.Helper()
	item, err := a.store.CreateItem(context.Background(), repository.Item{
		Kind: kind, Title: title, IsActive: true,
		StartAt: a.now.Add(-24 * time.Hour), EndAt: a.now.Add(24 * time.Hour),
	})
	require.NoError(a.t, err)
	return item
}

// do выполняет запрос и декодирует JSON ответа в out (если out != nil)
func (a *testAPI) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, r)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) login(email string) string {
	a.t.Helper()
	creds := map[string]string{"email": email, "password": "password-123"}
	require.Equal(a.t, http.StatusCreated, a.do(http.MethodPost, "/signup", "", creds, nil))

	var tok loginResponse
	require.Equal(a.t, http.StatusOK, a.do(http.MethodPost, "/login", "", creds, &tok))
	require.Equal(a.t, "Bearer", tok.TokenType)
	require.Equal(a.t, int64(3600), tok.ExpiresIn)
	return tok.Access
}

func TestAPI_EnrollCompleteCancelFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")

	var applied applyResponse
	status := api.do(http.MethodPost, "/courses/"+api.course.ID+"/enroll", alice,
		map[string]any{"amount": 10000, "payment_method": "card"}, &applied)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "paid", applied.Status)

	var errResp errorResponse
	status = api.do(http.MethodPost, "/courses/"+api.course.ID+"/enroll", alice,
		map[string]any{"amount": 10000, "payment_method": "card"}, &errResp)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "CONFLICT", errResp.Code)

	var list listResponse[itemResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/courses", alice, nil, &list))
	require.Len(t, list.Results, 1)
	require.True(t, list.Results[0].IsRegistered)
	require.Equal(t, int64(1), list.Results[0].RegistrationsCount)
	require.Contains(t, list.Meta, "next_cursor")

	var cancelled cancelResponse
	status = api.do(http.MethodPost, "/payments/"+applied.PaymentID+"/cancel", alice, nil, &cancelled)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "payment cancelled", cancelled.Detail)
	require.Equal(t, "cancelled", cancelled.Status)
	require.Equal(t, applied.RegistrationID, cancelled.RegistrationID)

	var payments []paymentResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/me/payments?status=cancelled", alice, nil, &payments))
	require.Len(t, payments, 1)
	require.Equal(t, "course", payments[0].Target)
	require.Equal(t, "Distributed systems", payments[0].ItemTitle)
	require.NotNil(t, payments[0].CanceledAt)

	// после отмены можно записаться снова и завершить
	status = api.do(http.MethodPost, "/courses/"+api.course.ID+"/enroll", alice,
		map[string]any{"amount": 5000, "payment_method": "naverpay"}, &applied)
	require.Equal(t, http.StatusCreated, status)

	var completed completeResponse
	status = api.do(http.MethodPost, "/courses/"+api.course.ID+"/complete", alice, nil, &completed)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "completed", completed.Status)
	require.True(t, api.now.Equal(completed.AttemptedAt), completed.AttemptedAt.String())

	status = api.do(http.MethodPost, "/payments/"+applied.PaymentID+"/cancel", alice, nil, &errResp)
	require.Equal(t, http.StatusConflict, status)
}

func TestAPI_TestApplyErrors(t *testing.T) {
	api := newTestAPI(t)
	bob := api.login("bob@example.com")
	path := "/tests/" + api.test.ID + "/apply"

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{name: "unknown payment method", path: path, body: map[string]any{"amount": 10000, "payment_method": "unknown"},
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantField: "payment_method"},
		{name: "fractional amount", path: path, body: map[string]any{"amount": 10.5, "payment_method": "card"},
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantField: "amount"},
		{name: "negative amount", path: path, body: map[string]any{"amount": -1, "payment_method": "card"},
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantField: "amount"},
		{name: "missing body", path: path,
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "unknown test", path: "/tests/00000000-0000-0000-0000-000000000000/apply",
			body:       map[string]any{"amount": 100, "payment_method": "card"},
			wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			require.Equal(t, tt.wantStatus, api.do(http.MethodPost, tt.path, bob, tt.body, &resp))
			require.Equal(t, tt.wantCode, resp.Code)
			if tt.wantField != "" {
				require.Contains(t, resp.Fields, tt.wantField)
			}
		})
	}

	var list listResponse[itemResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/tests", bob, nil, &list))
	require.Zero(t, list.Results[0].RegistrationsCount)
}

func TestAPI_CancelForeignPayment(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	mallory := api.login("mallory@example.com")

	var applied applyResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/tests/"+api.test.ID+"/apply", alice,
		map[string]any{"amount": 100, "payment_method": "bank_transfer"}, &applied))

	var resp errorResponse
	require.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/payments/"+applied.PaymentID+"/cancel", mallory, nil, &resp))
	require.Equal(t, "FORBIDDEN", resp.Code)

	var payments []paymentResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/me/payments", alice, nil, &payments))
	require.Equal(t, "paid", payments[0].Status)
}

func TestAPI_ListValidationAndPagination(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("carol@example.com")
	api.seed(repository.KindCourse, "Second course")

	var resp errorResponse
	require.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/courses?sort=oldest", token, nil, &resp))
	require.Contains(t, resp.Fields, "sort")

	require.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/me/payments?from=yesterday", token, nil, &resp))
	require.Contains(t, resp.Fields, "from/to")

	var page listResponse[itemResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/courses?limit=1&page=1", token, nil, &page))
	require.Len(t, page.Results, 1)
	require.EqualValues(t, 1, page.Meta["page"])
	require.EqualValues(t, 2, page.Meta["next_page"])
	require.Nil(t, page.Meta["prev_page"])
}

func TestAPI_AuthRequired(t *testing.T) {
	api := newTestAPI(t)

	var resp errorResponse
	require.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/courses", "", nil, &resp))
	require.Equal(t, "UNAUTHENTICATED", resp.Code)

	token := api.login("dave@example.com")
	require.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/logout", token, nil, nil))
	require.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/me/payments", token, nil, &resp))

	var health map[string]any
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, &health))
	require.Equal(t, "ok", health["status"])
}
