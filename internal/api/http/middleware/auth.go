package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/authctx"
	"github.com/shestoi/enrollhub/internal/service"
	"github.com/shestoi/enrollhub/platform/observability"
)

// Authenticator проверяет access токен (реализует service.AuthService)
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// RequireAuth читает Authorization: Bearer <token>, при невалидном токене или сессии отвечает 401,
// иначе кладёт пользователя в context
func RequireAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, _ := strings.Cut(r.Header.Get("Authorization"), " ")
			if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}

			p, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				var serr *service.Error
				if errors.As(err, &serr) && serr.Kind == service.KindUnauthenticated {
					unauthorized(w, serr.Message)
					return
				}
				observability.Ctx(r.Context(), logger).Error("authentication failed", zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"code": "INTERNAL", "detail": "internal server error"})
				return
			}

			ctx := authctx.WithUser(r.Context(), p.UserID, p.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":   string(service.KindUnauthenticated),
		"detail": detail,
	})
}
