package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	httpapi "github.com/shestoi/enrollhub/internal/api/http"
	"github.com/shestoi/enrollhub/internal/config"
	eventkafka "github.com/shestoi/enrollhub/internal/event/kafka"
	"github.com/shestoi/enrollhub/internal/repository"
	"github.com/shestoi/enrollhub/internal/repository/memory"
	"github.com/shestoi/enrollhub/internal/repository/postgres"
	redisrepo "github.com/shestoi/enrollhub/internal/repository/redis"
	"github.com/shestoi/enrollhub/internal/service"
	"github.com/shestoi/enrollhub/migrations"
	platformhealthgrpc "github.com/shestoi/enrollhub/platform/health/grpc"
	platformhealth "github.com/shestoi/enrollhub/platform/health/http"
	platformkafka "github.com/shestoi/enrollhub/platform/kafka"
	platformlogging "github.com/shestoi/enrollhub/platform/logging"
	platformobservability "github.com/shestoi/enrollhub/platform/observability"
	platformshutdown "github.com/shestoi/enrollhub/platform/shutdown"
)

const serviceName = "enrollment"

// storage то, что app требует от хранилища: и postgres.Store, и memory.Store это реализуют
type storage interface {
	repository.Store
	repository.UserRepository
	repository.OutboxRepository
	Ping(ctx context.Context) error
}

// worker фоновый процесс, блокирующийся до отмены ctx
type worker struct {
	name string
	run  func(ctx context.Context) error
}

// App содержит все зависимости для запуска и корректного shutdown enrollment сервиса
type App struct {
	logger       *zap.Logger
	httpServer   *http.Server
	grpcServer   *grpc.Server
	grpcListener net.Listener
	shutdownMgr  *platformshutdown.Manager

	workers   []worker
	workerCtx context.Context
	wg        sync.WaitGroup
}

// Build создаёт и настраивает все зависимости сервиса.
// При ошибке уже открытые ресурсы закрываются через shutdown manager.
func Build(ctx context.Context, cfg config.Config) (_ *App, err error) {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}
	cfg.Log(logger)

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	defer func() {
		if err != nil {
			_ = shutdownMgr.Shutdown()
		}
	}()

	otelShutdown, err := platformobservability.Init(ctx, platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTLPEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		MetricInterval:        cfg.OTelMetricInterval,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	// регистрируется первым, значит закрывается последним: spans остальных шагов успевают уйти
	shutdownMgr.Add("otel", otelShutdown)

	checks := make(map[string]platformhealth.Check)

	store, err := buildStorage(ctx, cfg, logger, shutdownMgr)
	if err != nil {
		return nil, err
	}
	checks[cfg.StorageDriver] = store.Ping

	sessions, err := buildSessions(ctx, cfg, logger, shutdownMgr, checks)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(logger, store, sessions, cfg.JWTSecret, cfg.SessionTTL, nil)
	handler := httpapi.NewHandler(logger,
		authService,
		service.NewCatalogService(logger, store, nil),
		service.NewEnrollmentService(logger, store, nil),
		service.NewPaymentService(logger, store, cfg.Location),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, authService, checks, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// gRPC только для health: kubelet/grpc_health_probe
	grpcListener, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc health: %w", err)
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(platformobservability.GRPCUnaryServerInterceptor(serviceName, logger)),
	)
	health := platformhealthgrpc.New()
	health.Register(grpcServer)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	app := &App{
		logger:       logger,
		httpServer:   httpServer,
		grpcServer:   grpcServer,
		grpcListener: grpcListener,
		shutdownMgr:  shutdownMgr,
		workerCtx:    workerCtx,
	}

	app.workers = append(app.workers, worker{name: "health_probe", run: func(ctx context.Context) error {
		health.Probe(ctx, 5*time.Second, func(ctx context.Context) error {
			for name, check := range checks {
				if err := check(ctx); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			return nil
		})
		return nil
	}})

	retention := eventkafka.NewRetentionJob(logger, store, cfg.OutboxRetentionSchedule, cfg.OutboxRetention, nil)
	app.workers = append(app.workers, worker{name: "outbox_retention", run: retention.Start})

	if cfg.KafkaEnabled {
		dispatcher := eventkafka.NewOutboxDispatcher(logger, store, platformkafka.NewWriter(cfg.Kafka), eventkafka.DispatcherConfig{
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			MaxRetries: cfg.OutboxMaxRetries,
			Backoff:    cfg.OutboxBackoff,
		})
		shutdownMgr.Add("kafka_writer", func(context.Context) error { return dispatcher.Close() })
		app.workers = append(app.workers, worker{name: "outbox_dispatcher", run: dispatcher.Start})
	} else {
		logger.Info("kafka disabled, outbox events stay pending")
	}

	// порядок выполнения обратный: readiness гаснет первой, пулы закрываются последними
	shutdownMgr.Add("background_workers", platformshutdown.CancelFunc(cancelWorkers, app.wg.Wait))
	shutdownMgr.Add("grpc_server", platformshutdown.ShutdownGRPCServer(grpcServer))
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))
	shutdownMgr.Add("health_readiness", platformshutdown.SetHealthNotServing(health))

	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *zap.Logger, shutdownMgr *platformshutdown.Manager) (storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(nil), nil
	}

	logger.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied successfully")
	}

	return postgres.NewStore(pool, nil), nil
}

// migrate накатывает встроенные goose миграции через database/sql драйвер pgx
func migrate(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migrations db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func buildSessions(ctx context.Context, cfg config.Config, logger *zap.Logger, shutdownMgr *platformshutdown.Manager, checks map[string]platformhealth.Check) (repository.SessionRepository, error) {
	if cfg.SessionDriver == config.DriverMemory {
		logger.Warn("using in-memory sessions")
		return memory.NewSessions(nil), nil
	}

	logger.Info("connecting to Redis", zap.String("addr", cfg.RedisAddr))
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	shutdownMgr.Add("redis_client", platformshutdown.CloseWithError(client))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Redis connection established")

	sessions := redisrepo.NewSessionRepository(client, logger)
	checks[config.DriverRedis] = sessions.Ping
	return sessions, nil
}

// Run запускает серверы и фоновые процессы и блокируется до сигнала shutdown или отмены ctx
func (a *App) Run(ctx context.Context) error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("starting enrollment service",
		zap.String("http_addr", a.httpServer.Addr),
		zap.String("grpc_health_addr", a.grpcListener.Addr().String()),
	)

	var serveWG sync.WaitGroup
	serveWG.Add(2)
	go func() {
		defer serveWG.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	go func() {
		defer serveWG.Done()
		if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			a.logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	for _, w := range a.workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := w.run(a.workerCtx); err != nil {
				a.logger.Error("background worker failed", zap.String("worker", w.name), zap.Error(err))
			}
		}()
	}

	err := a.shutdownMgr.Wait(ctx)

	serveWG.Wait()
	a.logger.Info("enrollment service stopped")
	return err
}
