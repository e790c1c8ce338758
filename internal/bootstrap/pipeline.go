package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
	"github.com/kirillkom/docsort/internal/core/usecase"
	"github.com/kirillkom/docsort/internal/infrastructure/extractor/pdfimage"
	"github.com/kirillkom/docsort/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/docsort/internal/infrastructure/imaging"
	"github.com/kirillkom/docsort/internal/infrastructure/ocr"
	"github.com/kirillkom/docsort/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/docsort/internal/infrastructure/repository/memory"
	"github.com/kirillkom/docsort/internal/infrastructure/rules"
)

// Pipeline is the extraction and classification core without any transport
// or persistence around it.
type Pipeline struct {
	Extract  *usecase.ExtractUseCase
	Classify *usecase.ClassifyUseCase

	recognizer *tesseract.Pool
}

// NewPipeline verifies the OCR model bundle, loads the rule table and starts
// the recognizer pool. A missing model file aborts startup.
func NewPipeline(ctx context.Context, cfg config.Config, categories ports.CategoryStore, observer ports.ExtractionObserver) (*Pipeline, error) {
	if err := ocr.VerifyModelBundle(cfg.TessdataPrefix, cfg.OCRLanguage); err != nil {
		return nil, fmt.Errorf("verify ocr models: %w", err)
	}

	ruleTable, err := rules.NewLoader(cfg.RulesPath).LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}

	pool, err := tesseract.NewPool(tesseract.Config{
		TessdataPrefix: cfg.TessdataPrefix,
		Language:       cfg.OCRLanguage,
		Size:           cfg.OCRPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init ocr engine: %w", err)
	}

	extractUC := usecase.NewExtractUseCase(
		pdftext.New(),
		pdfimage.New(cfg.OCRTempDir),
		imaging.New(cfg.OCRTempDir),
		pool,
		usecase.ExtractOptions{
			Timeout:         time.Duration(cfg.OCRTimeoutSeconds) * time.Second,
			PageConcurrency: cfg.OCRPageWorkers,
			Observer:        observer,
		},
	)
	classifyUC := usecase.NewClassifyUseCase(ruleTable, categories, observer)

	logStartup(cfg, len(ruleTable))

	return &Pipeline{
		Extract:    extractUC,
		Classify:   classifyUC,
		recognizer: pool,
	}, nil
}

// NewLocalPipeline backs classification with the seeded in-memory category
// store. Used by the CLI and the MCP server.
func NewLocalPipeline(ctx context.Context, cfg config.Config, observer ports.ExtractionObserver) (*Pipeline, error) {
	return NewPipeline(ctx, cfg, memory.NewCategoryStore(domain.DefaultCategories()), observer)
}

func (p *Pipeline) Close() {
	if p.recognizer != nil {
		p.recognizer.Close()
	}
}
