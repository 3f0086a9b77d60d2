package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/bootstrap"
	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/logging"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, service)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Queue == nil {
		slog.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	workerMetrics := metrics.NewWorkerMetrics(service, app.Metrics.Collectors()...)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	timeout := time.Duration(cfg.WorkerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	slog.Info("worker_subscribed",
		"subject", app.Queue.Subjects().Requests,
		"queue_group", app.Queue.Subjects().QueueGroup,
		"metrics_addr", metricsServer.Addr,
	)
	err = app.Queue.SubscribeValidationRequests(ctx, func(handlerCtx context.Context, payload []byte) error {
		validateCtx, cancel := context.WithTimeout(handlerCtx, timeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartRequest(service, len(payload))
		run, err := app.ValidateUC.ValidatePayload(validateCtx, payload)
		workerMetrics.FinishRequest(service, time.Since(start), err)
		if err != nil {
			return err
		}
		slog.Info("validation_completed", "validation_id", run.ID, "documents", run.DocumentCount)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
