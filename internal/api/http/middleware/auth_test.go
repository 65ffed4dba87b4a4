package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/authctx"
	"github.com/shestoi/enrollhub/internal/service"
)

type authFunc func(ctx context.Context, token string) (*service.Principal, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*service.Principal, error) {
	return f(ctx, token)
}

func TestRequireAuth(t *testing.T) {
	auth := authFunc(func(_ context.Context, token string) (*service.Principal, error) {
		switch token {
		case "good":
			return &service.Principal{UserID: "user-1", SessionID: "sid-1"}, nil
		case "broken":
			return nil, errors.New("redis: connection refused")
		default:
			return nil, &service.Error{Kind: service.KindUnauthenticated, Message: "session expired"}
		}
	})

	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = authctx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAuth(auth, zap.NewNop())(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusNoContent},
		{name: "missing header", wantStatus: http.StatusUnauthorized,
			wantBody: `{"code":"UNAUTHENTICATED","detail":"authentication credentials were not provided"}`},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "expired session", header: "Bearer stale", wantStatus: http.StatusUnauthorized,
			wantBody: `{"code":"UNAUTHENTICATED","detail":"session expired"}`},
		{name: "session store down", header: "Bearer broken", wantStatus: http.StatusInternalServerError,
			wantBody: `{"code":"INTERNAL","detail":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/courses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				require.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent {
				require.Equal(t, "user-1", gotUser)
			}
		})
	}
}
