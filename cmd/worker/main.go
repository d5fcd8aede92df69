package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/resume-categorizer/internal/adapters/inbox"
	"github.com/kirillkom/resume-categorizer/internal/bootstrap"
	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/observability/logging"
	"github.com/kirillkom/resume-categorizer/internal/observability/metrics"
)

const service = "categorizer-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    service,
		Logger:     logger,
		Registerer: workerMetrics.Registerer(),
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	worker := inbox.New(cfg.InboxDir, app.CategorizeUC, inbox.Options{
		OutputDir:       cfg.OutputDir,
		Settle:          cfg.InboxSettle(),
		RemoveProcessed: cfg.InboxRemoveProcessed,
		MaxFileBytes:    cfg.MaxUploadBytes,
		Observer:        workerMetrics,
		Logger:          logger,
	})
	if err := worker.Run(ctx); err != nil {
		log.Fatalf("inbox worker error: %v", err)
	}
}
