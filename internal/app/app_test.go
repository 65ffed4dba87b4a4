package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shestoi/enrollhub/internal/config"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:         config.EnvLocal,
		HTTPAddr:       "127.0.0.1:0",
		GRPCHealthAddr: "127.0.0.1:0",
		Tuning: config.Tuning{
			LogLevel:                "error",
			StorageDriver:           config.DriverMemory,
			SessionDriver:           config.DriverMemory,
			ShutdownTimeout:         time.Second,
			SessionTTL:              time.Hour,
			JWTSecret:               "test-secret",
			OutboxRetention:         time.Hour,
			OutboxRetentionSchedule: "0 3 * * *",
		},
		Location: time.UTC,
	}
}

func TestBuild_MemoryDrivers(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.shutdownMgr.Shutdown() })

	names := make([]string, 0, len(a.workers))
	for _, w := range a.workers {
		names = append(names, w.name)
	}
	require.ElementsMatch(t, []string{"health_probe", "outbox_retention"}, names)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","checks":{"memory":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuild_InvalidPostgresDSN(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageDriver = config.DriverPostgres
	cfg.PostgresDSN = "://not-a-dsn"

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
