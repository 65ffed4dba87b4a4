package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/api/http/middleware"
	"github.com/shestoi/enrollhub/internal/repository"
	platformhealth "github.com/shestoi/enrollhub/platform/health/http"
	platformobservability "github.com/shestoi/enrollhub/platform/observability"
)

// NewRouter собирает HTTP роутер.
// checks - проверки зависимостей для /health (postgres, redis); /health, /signup и /login без авторизации.
func NewRouter(
	handler *Handler,
	auth middleware.Authenticator,
	checks map[string]platformhealth.Check,
	logger *zap.Logger,
) chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)

	// Observability: trace context + span на каждый запрос, logger с trace_id в контексте
	router.Use(platformobservability.HTTPMiddleware("enrollment", logger))

	router.Get("/health", platformhealth.Handler(checks, 2*time.Second))
	router.Post("/signup", handler.Signup)
	router.Post("/login", handler.Login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth, logger))

		r.Post("/logout", handler.Logout)

		r.Get("/courses", handler.ListItems(repository.KindCourse))
		r.Post("/courses/{id}/enroll", handler.Apply(repository.KindCourse))
		r.Post("/courses/{id}/complete", handler.Complete(repository.KindCourse))

		r.Get("/tests", handler.ListItems(repository.KindTest))
		r.Post("/tests/{id}/apply", handler.Apply(repository.KindTest))
		r.Post("/tests/{id}/complete", handler.Complete(repository.KindTest))

		r.Post("/payments/{id}/cancel", handler.CancelPayment)
		r.Get("/me/payments", handler.ListMyPayments)
	})

	return router
}
