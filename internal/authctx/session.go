package authctx

import (
	"context"
)

type ctxKeyUser struct{}

type user struct {
	id        string
	sessionID string
}

// WithUser сохраняет id пользователя и его сессии в контексте (кладёт HTTP middleware после проверки токена)
func WithUser(ctx context.Context, userID, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, user{id: userID, sessionID: sessionID})
}

// UserIDFromContext возвращает id аутентифицированного пользователя
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(user)
	if !ok || u.id == "" {
		return "", false
	}
	return u.id, true
}

// SessionIDFromContext возвращает id сессии, нужен для logout
func SessionIDFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(user)
	if !ok || u.sessionID == "" {
		return "", false
	}
	return u.sessionID, true
}
