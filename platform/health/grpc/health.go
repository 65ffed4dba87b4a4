package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Health оборачивает стандартный grpc health server.
// Статус "" (весь сервер) используется kubelet/grpc_health_probe.
type Health struct {
	srv *health.Server
}

// New создаёт Health в NOT_SERVING: готовность включает Probe после первой успешной проверки
func New() *Health {
	srv := health.NewServer()
	srv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &Health{srv: srv}
}

// Register регистрирует health service, вызывать до Serve
func (h *Health) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.srv)
}

// SetServing переводит сервис в SERVING
func (h *Health) SetServing(service string) {
	h.srv.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}

// SetNotServing переводит сервис в NOT_SERVING
func (h *Health) SetNotServing(service string) {
	h.srv.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Probe раз в interval вызывает check и выставляет статус сервера.
// Блокируется до отмены ctx; после отмены статус остаётся NOT_SERVING.
func (h *Health) Probe(ctx context.Context, interval time.Duration, check func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()

		if err != nil {
			h.SetNotServing("")
		} else {
			h.SetServing("")
		}

		select {
		case <-ctx.Done():
			h.SetNotServing("")
			return
		case <-ticker.C:
		}
	}
}
