package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository/mocks"
)

func TestRetentionJob_RunOnce(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 0, 0, 0, time.UTC)
	repo := mocks.NewOutboxRepository(t)
	repo.On("DeleteSentOutboxEvents", mock.Anything, now.Add(-7*24*time.Hour)).Return(int64(42), nil)

	job := NewRetentionJob(zap.NewNop(), repo, "0 3 * * *", 7*24*time.Hour, func() time.Time { return now })
	deleted, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), deleted)
}

func TestRetentionJob_Start(t *testing.T) {
	repo := mocks.NewOutboxRepository(t)

	t.Run("invalid schedule", func(t *testing.T) {
		job := NewRetentionJob(zap.NewNop(), repo, "every day", time.Hour, nil)
		require.Error(t, job.Start(context.Background()))
	})

	t.Run("stops on cancel", func(t *testing.T) {
		job := NewRetentionJob(zap.NewNop(), repo, "0 3 * * *", time.Hour, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, job.Start(ctx))
	})
}

func TestValidateSchedule(t *testing.T) {
	require.NoError(t, ValidateSchedule("*/15 * * * *"))
	require.Error(t, ValidateSchedule("61 * * * *"))
}
