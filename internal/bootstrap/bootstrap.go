package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/engine"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/usecase"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/queue/nats"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/resilience"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/schema"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Engine     *engine.Engine
	ValidateUC *usecase.ValidateShipmentUseCase
	Reader     ports.ValidationReader
	Queue      *nats.Queue // nil when NATS_URL is unset
	EnqueueUC  *usecase.EnqueueValidationUseCase

	Metrics  *metrics.ValidationMetrics
	Executor *resilience.Executor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("load engine options: %w", err)
	}
	eng, err := engine.New(registry.Default(), opts)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("init request schema: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	validationMetrics := metrics.NewValidationMetrics(service)

	app := &App{
		Config:   cfg,
		Engine:   eng,
		Metrics:  validationMetrics,
		Executor: executor,
	}

	var (
		db        *sql.DB
		repo      ports.ValidationRepository
		publisher ports.ResultPublisher
	)
	if cfg.PersistenceEnabled() {
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pgRepo := postgres.NewValidationRepository(db, executor)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = pgRepo
	}

	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Subjects{
			Requests:   cfg.NATSRequestSubject,
			Results:    cfg.NATSResultSubject,
			QueueGroup: cfg.NATSQueueGroup,
		}, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.EnqueueUC = usecase.NewEnqueueValidationUseCase(validator, queue)
		publisher = queue
	}

	app.ValidateUC = usecase.NewValidateShipmentUseCase(eng, validator, repo, publisher, validationMetrics)
	app.Reader = app.ValidateUC

	app.closeFn = func() {
		if app.Queue != nil {
			app.Queue.Close()
		}
		if db != nil {
			_ = db.Close()
		}
	}
	return app, nil
}

// resilienceConfig maps the RESILIENCE_* settings onto the executor
// defaults; non-positive values keep the default.
func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.ResilienceMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.ResilienceMaxAttempts
	}
	if cfg.ResiliencePublishAttempts > 0 {
		out.Operations[resilience.OpPublish] = resilience.Policy{MaxAttempts: cfg.ResiliencePublishAttempts}
	}
	if cfg.ResilienceInitialBackoff > 0 {
		out.RetryInitialBackoff = cfg.ResilienceInitialBackoff
	}
	if cfg.ResilienceMaxBackoff > 0 {
		out.RetryMaxBackoff = cfg.ResilienceMaxBackoff
	}
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	if cfg.ResilienceBreakerFailureRate > 0 {
		out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRate
	}
	if cfg.ResilienceBreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	}
	return out
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
