package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
)

// RetentionJob по расписанию cron удаляет отправленные события outbox старше retention
type RetentionJob struct {
	logger    *zap.Logger
	repo      repository.OutboxRepository
	schedule  string
	retention time.Duration
	now       func() time.Time
}

// NewRetentionJob создаёт job; schedule в стандартном 5-польном формате cron ("0 3 * * *")
func NewRetentionJob(logger *zap.Logger, repo repository.OutboxRepository, schedule string, retention time.Duration, now func() time.Time) *RetentionJob {
	if now == nil {
		now = time.Now
	}
	return &RetentionJob{logger: logger, repo: repo, schedule: schedule, retention: retention, now: now}
}

// Start регистрирует job в cron и блокируется до отмены ctx; запущенный прогон дожидается завершения
func (j *RetentionJob) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("outbox retention failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule outbox retention %q: %w", j.schedule, err)
	}

	j.logger.Info("starting outbox retention job",
		zap.String("schedule", j.schedule),
		zap.Duration("retention", j.retention),
	)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info("outbox retention job stopped")
	return nil
}

// RunOnce удаляет отправленные события старше now - retention
func (j *RetentionJob) RunOnce(ctx context.Context) (int64, error) {
	before := j.now().Add(-j.retention)
	deleted, err := j.repo.DeleteSentOutboxEvents(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("delete sent outbox events: %w", err)
	}
	j.logger.Info("outbox retention completed",
		zap.Int64("deleted", deleted),
		zap.Time("before", before),
	)
	return deleted, nil
}

// ValidateSchedule проверяет выражение cron при загрузке конфигурации
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}
