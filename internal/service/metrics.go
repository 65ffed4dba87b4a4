package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shestoi/enrollhub/internal/repository"
)

// metrics счётчики транзакций записи; без Init это noop meter
type metrics struct {
	applications  metric.Int64Counter
	completions   metric.Int64Counter
	cancellations metric.Int64Counter
	rejections    metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter("github.com/shestoi/enrollhub/internal/service")
	m := &metrics{}
	// ошибки создания инструментов возможны только при невалидном имени
	m.applications, _ = meter.Int64Counter("enrollment.applications", metric.WithDescription("successful applications"))
	m.completions, _ = meter.Int64Counter("enrollment.completions", metric.WithDescription("completed registrations"))
	m.cancellations, _ = meter.Int64Counter("enrollment.cancellations", metric.WithDescription("cancelled payments"))
	m.rejections, _ = meter.Int64Counter("enrollment.rejections", metric.WithDescription("rejected enrollment operations"))
	return m
}

func (m *metrics) success(ctx context.Context, c metric.Int64Counter, kind repository.Kind) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *metrics) reject(ctx context.Context, op string, err error) {
	if m.rejections == nil {
		return
	}
	reason := string(KindOf(err))
	if reason == "" {
		reason = "INTERNAL"
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("reason", reason),
	))
}
