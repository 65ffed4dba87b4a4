package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ReverseOrderAndErrors(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	m.Add("postgres", func(context.Context) error {
		order = append(order, "postgres")
		return nil
	})
	m.Add("kafka", func(context.Context) error {
		order = append(order, "kafka")
		return errors.New("writer closed")
	})
	m.Add("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})

	err := m.Shutdown()
	require.Error(t, err)
	require.Contains(t, err.Error(), "kafka: writer closed")
	require.Equal(t, []string{"http", "kafka", "postgres"}, order)

	// повторный вызов ничего не делает
	require.NoError(t, m.Shutdown())
	require.Len(t, order, 3)
}

func TestManager_WaitReturnsOnContextCancel(t *testing.T) {
	m := New(time.Second, zap.NewNop())
	called := false
	m.Add("step", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.Wait(ctx))
	require.True(t, called)
}

func TestCancelFunc_WaitsForWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stopped)
	}()

	fn := CancelFunc(cancel, func() { <-stopped })
	require.NoError(t, fn(context.Background()))
}
