package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/internal/repository/memory"
	"github.com/shestoi/enrollhub/internal/repository/mocks"
	"github.com/shestoi/enrollhub/internal/service"
)

type fakeWriter struct {
	mu       sync.Mutex
	failures int
	calls    int
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errors.New("kafka: leader not available")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// enrolled проводит запись через сервис, чтобы в outbox оказалось настоящее событие
func enrolled(t *testing.T) *memory.Store {
	t.Helper()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewStore(clock)

	item, err := store.CreateItem(context.Background(), repository.Item{
		Kind: repository.KindCourse, Title: "Kafka in practice", IsActive: true,
		StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	svc := service.NewEnrollmentService(zap.NewNop(), store, clock)
	_, err = svc.Apply(context.Background(), service.ApplyInput{
		UserID: "user-1", Kind: repository.KindCourse, ItemID: item.ID, Amount: 100, PaymentMethod: "card",
	})
	require.NoError(t, err)
	return store
}

func TestOutboxDispatcher_PublishesPendingEvents(t *testing.T) {
	store := enrolled(t)
	writer := &fakeWriter{}
	d := NewOutboxDispatcher(zap.NewNop(), store, writer, DispatcherConfig{BatchSize: 10, MaxRetries: 3})

	require.NoError(t, d.ProcessBatch(context.Background()))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, service.EventRegistrationPaid, msg.Topic)

	var payload service.EnrollmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	require.Equal(t, payload.RegistrationID, string(msg.Key))
	require.Equal(t, payload.EventID, headerValue(msg.Headers, "event_id"))

	events := store.OutboxEvents()
	require.Equal(t, repository.OutboxSent, events[0].Status)
	require.NotNil(t, events[0].SentAt)

	// повторный проход ничего не отправляет
	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Len(t, writer.messages, 1)
}

func TestOutboxDispatcher_RetriesThenGivesBack(t *testing.T) {
	store := enrolled(t)
	writer := &fakeWriter{failures: 2}
	d := NewOutboxDispatcher(zap.NewNop(), store, writer, DispatcherConfig{BatchSize: 10, MaxRetries: 2, Backoff: time.Millisecond})

	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Equal(t, 2, writer.calls)
	require.Empty(t, writer.messages)

	events := store.OutboxEvents()
	require.Equal(t, repository.OutboxPending, events[0].Status)
	require.Equal(t, 1, events[0].Attempts)
	require.Contains(t, events[0].LastError, "leader not available")

	// брокер ожил: следующий проход публикует
	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Len(t, writer.messages, 1)
	require.Equal(t, repository.OutboxSent, store.OutboxEvents()[0].Status)
}

func TestOutboxDispatcher_RepositoryError(t *testing.T) {
	repo := mocks.NewOutboxRepository(t)
	repo.On("GetPendingOutboxEvents", mock.Anything, 100).Return(nil, errors.New("pool closed"))

	d := NewOutboxDispatcher(zap.NewNop(), repo, &fakeWriter{}, DispatcherConfig{})
	err := d.ProcessBatch(context.Background())
	require.ErrorContains(t, err, "pool closed")
}

func TestOutboxDispatcher_StartStopsOnCancel(t *testing.T) {
	store := enrolled(t)
	writer := &fakeWriter{}
	d := NewOutboxDispatcher(zap.NewNop(), store, writer, DispatcherConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, func() bool {
		return store.OutboxEvents()[0].Status == repository.OutboxSent
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
