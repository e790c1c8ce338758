package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docsort/internal/bootstrap"
	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/infrastructure/workerpool"
	"github.com/kirillkom/docsort/internal/observability/logging"
	"github.com/kirillkom/docsort/internal/observability/metrics"
)

const serviceName = "docsort-worker"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName, workerMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, pipelineMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	pool, err := workerpool.New(cfg.WorkerConcurrency)
	if err != nil {
		logger.Error("worker_pool_init_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	processTimeout := time.Duration(cfg.OCRTimeoutSeconds)*time.Second + time.Minute

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "concurrency", pool.Cap())
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		err := pool.Submit(handlerCtx, func(jobCtx context.Context) {
			if doc, err := app.Repo.GetByID(jobCtx, documentID); err == nil {
				workerMetrics.ObserveQueueLag(doc.UploadedAt)
			}

			processCtx, cancel := context.WithTimeout(context.WithoutCancel(jobCtx), processTimeout)
			defer cancel()

			workerMetrics.StartDocument()
			start := time.Now()
			result, err := app.ProcessUC.ProcessByID(processCtx, documentID)
			workerMetrics.FinishDocument(time.Since(start), result, err)
			if err != nil {
				logger.Error("document_process_failed", "document_id", documentID, "error", err)
				return
			}
			logger.Info("document_processed",
				"document_id", documentID,
				"extraction_status", result.Status,
				"strategy", result.Strategy,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
		if err != nil {
			workerMetrics.RejectJob()
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
