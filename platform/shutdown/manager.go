package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager ждёт SIGINT/SIGTERM (или отмену контекста) и закрывает ресурсы
// в обратном порядке регистрации: то, что поднято последним, гасится первым.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	steps []step
	done  bool
}

type step struct {
	name string
	fn   func(context.Context) error
}

// New создаёт Manager; timeout применяется к каждой функции отдельно
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{timeout: timeout, logger: logger}
}

// Add регистрирует shutdown функцию
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// Wait блокируется до сигнала или отмены ctx, затем выполняет Shutdown
func (m *Manager) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	m.logger.Info("shutdown requested", zap.Error(context.Cause(sigCtx)))

	return m.Shutdown()
}

// Shutdown выполняет зарегистрированные функции ровно один раз.
// Ошибки не прерывают остальные шаги, а собираются в одну.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	steps := make([]step, len(m.steps))
	copy(steps, m.steps)
	m.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()
		err := s.fn(ctx)
		cancel()

		if err != nil {
			m.logger.Error("shutdown step failed",
				zap.String("name", s.name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		m.logger.Info("shutdown step completed",
			zap.String("name", s.name),
			zap.Duration("duration", time.Since(start)),
		)
	}

	m.logger.Info("graceful shutdown completed")
	return errors.Join(errs...)
}

// ShutdownHTTPServer адаптирует http.Server.Shutdown
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return srv.Shutdown
}

// ShutdownGRPCServer делает GracefulStop, по таймауту жёсткий Stop
func ShutdownGRPCServer(srv interface {
	GracefulStop()
	Stop()
}) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return errors.New("graceful stop timeout exceeded, forced stop")
		}
	}
}

// ClosePool адаптирует ресурсы с Close() без ошибки (pgxpool.Pool)
func ClosePool(pool interface{ Close() }) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}

// CloseWithError адаптирует io.Closer-подобные ресурсы (redis, kafka writer)
func CloseWithError(c interface{ Close() error }) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}

// CancelFunc останавливает фоновые воркеры, завязанные на context
func CancelFunc(cancel context.CancelFunc, wait func()) func(context.Context) error {
	return func(ctx context.Context) error {
		cancel()
		done := make(chan struct{})
		go func() {
			wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetHealthNotServing переводит health в NOT_SERVING до остановки серверов
func SetHealthNotServing(health interface{ SetNotServing(string) }) func(context.Context) error {
	return func(context.Context) error {
		health.SetNotServing("")
		return nil
	}
}
