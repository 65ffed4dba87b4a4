package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryProcessedEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	store := NewMemoryProcessedEvents(func() time.Time { return now })

	done, err := store.IsProcessed(ctx, "e1")
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, store.MarkProcessed(ctx, "e1", time.Minute))
	done, err = store.IsProcessed(ctx, "e1")
	require.NoError(t, err)
	require.True(t, done)

	now = now.Add(time.Minute)
	done, err = store.IsProcessed(ctx, "e1")
	require.NoError(t, err)
	require.False(t, done, "entry expires after ttl")

	require.NoError(t, store.MarkProcessed(ctx, "e2", time.Second))
	now = now.Add(time.Hour)
	require.NoError(t, store.MarkProcessed(ctx, "e3", time.Hour))
	require.NotContains(t, store.events, "e2", "expired entries are swept on write")
}
