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

	httpadapter "github.com/kirillkom/tradedoc-reconciler/internal/adapters/http"
	"github.com/kirillkom/tradedoc-reconciler/internal/bootstrap"
	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/logging"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/metrics"
)

const service = "api"

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

	httpMetrics := metrics.NewHTTPServerMetrics(service, app.Metrics.Collectors()...)
	rt := httpadapter.NewRouter(cfg, app.ValidateUC, app.Reader).
		WithMetrics(httpMetrics).
		WithHealth(app.Executor.States)
	if app.EnqueueUC != nil {
		rt = rt.WithQueue(app.EnqueueUC)
	}
	router := rt.Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr, "persistence", cfg.PersistenceEnabled(), "queue", app.Queue != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api_shutdown_failed", "error", err)
	}
}
