package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/tradedoc-reconciler/internal/adapters/mcp"
	"github.com/kirillkom/tradedoc-reconciler/internal/bootstrap"
	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/logging"
)

const service = "mcp"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	slog.SetDefault(logging.NewStderrLogger(service, cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, service)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	reader := app.Reader
	if !cfg.PersistenceEnabled() {
		reader = nil
	}

	slog.Info("mcp_serving_stdio", "persistence", cfg.PersistenceEnabled())
	if err := server.ServeStdio(mcpadapter.NewServer(app.ValidateUC, reader)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		app.Close()
		os.Exit(1)
	}
}
