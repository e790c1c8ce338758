package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/docsort/internal/adapters/http"
	"github.com/kirillkom/docsort/internal/adapters/http/openapi"
	"github.com/kirillkom/docsort/internal/bootstrap"
	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/observability/logging"
	"github.com/kirillkom/docsort/internal/observability/metrics"
)

const serviceName = "docsort-api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName, httpMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, pipelineMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	spec, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("openapi_load_failed", "error", err)
		os.Exit(1)
	}

	router, err := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Ingest:     app.IngestUC,
		Catalog:    app.CatalogUC,
		Extractor:  app.ExtractUC,
		Classifier: app.ClassifyUC,
		Metrics:    httpMetrics,
		Spec:       spec,
	})
	if err != nil {
		logger.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Handler:      router.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: time.Duration(cfg.OCRTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("api_listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
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
