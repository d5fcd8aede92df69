package main

import (
	"context"
	"log"
	"log/slog"

	mcpadapter "github.com/kirillkom/resume-categorizer/internal/adapters/mcp"
	"github.com/kirillkom/resume-categorizer/internal/bootstrap"
	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/observability/logging"

	"github.com/mark3labs/mcp-go/server"
)

const (
	service = "categorizer-mcp"
	version = "0.1.0"
)

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logger := logging.NewStderrLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Service: service, Logger: logger})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	tools := mcpadapter.NewTools(app.CategorizeUC, app.Registry, mcpadapter.Options{
		DefaultOutputDir: cfg.OutputDir,
		MaxFileBytes:     cfg.MaxUploadBytes,
		Logger:           logger,
	})
	if err := server.ServeStdio(mcpadapter.NewServer("resume-categorizer", version, tools)); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
