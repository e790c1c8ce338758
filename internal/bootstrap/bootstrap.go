package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
	"github.com/kirillkom/docsort/internal/core/usecase"
	"github.com/kirillkom/docsort/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docsort/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docsort/internal/infrastructure/resilience"
	"github.com/kirillkom/docsort/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docsort/internal/infrastructure/storage/minio"
)

type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	Repo       ports.DocumentRepository
	IngestUC   ports.DocumentIngestor
	ProcessUC  ports.DocumentProcessor
	CatalogUC  ports.DocumentCatalog
	ExtractUC  ports.TextExtractor
	ClassifyUC ports.DocumentClassifier

	closeFn func()
}

// New wires the full service: postgres, object storage, NATS and the
// extraction pipeline. observer may be nil.
func New(ctx context.Context, cfg config.Config, observer ports.ExtractionObserver) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db, domain.DefaultCategories()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	categories := postgres.NewCategoryRepository(db, executor)

	storage, err := newObjectStorage(ctx, cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueue,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pipeline, err := NewPipeline(ctx, cfg, categories, observer)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, pipeline.Extract, pipeline.Classify, cfg.OCRTempDir)
	catalogUC := usecase.NewCatalogUseCase(repo, categories, storage)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		CatalogUC:  catalogUC,
		ExtractUC:  pipeline.Extract,
		ClassifyUC: pipeline.Classify,

		closeFn: func() {
			pipeline.Close()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "local", "localfs":
		return localfs.New(cfg.StoragePath)
	case "minio", "s3":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return minio.New(connectCtx, minio.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, executor)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func logStartup(cfg config.Config, rules int) {
	slog.Info("pipeline_ready",
		"ocr_language", cfg.OCRLanguage,
		"ocr_pool_size", cfg.OCRPoolSize,
		"ocr_timeout_seconds", cfg.OCRTimeoutSeconds,
		"rules", rules,
	)
}
