package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/smartcare-assistant/internal/adapters/mcp"
	"github.com/kirillkom/smartcare-assistant/internal/bootstrap"
	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/observability/logging"
)

const (
	serviceName = "smartcare-mcp"
	version     = "0.1.0"
)

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, serviceName)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := server.ServeStdio(mcpadapter.NewServer(version, app.ChatUC)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
