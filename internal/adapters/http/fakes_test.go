package httpadapter

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/docsort/internal/adapters/http/openapi"
	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/core/domain"
)

type ingestFake struct {
	mu       sync.Mutex
	owner    string
	filename string
	mimeType string
	body     []byte
	err      error
}

func (f *ingestFake) Upload(_ context.Context, ownerID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.owner, f.filename, f.mimeType, f.body = ownerID, filename, mimeType, raw
	f.mu.Unlock()

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "anonymous/doc-1_" + filename,
		OwnerID:     ownerID,
		Status:      domain.StatusUploaded,
		UploadedAt:  now,
		UpdatedAt:   now,
	}, nil
}

type catalogFake struct {
	doc        *domain.Document
	text       *domain.DocumentText
	categories []domain.Category
	err        error

	lastFilter  domain.DocumentFilter
	setID       string
	setCategory *int64
	deletedID   string

	months     []domain.MonthlyUploads
	topCounts  []domain.CategoryCount
	statsOwner string
}

func (f *catalogFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", io.EOF)
	}
	copied := *f.doc
	return &copied, nil
}

func (f *catalogFake) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == nil {
		return nil, nil
	}
	return []domain.Document{*f.doc}, nil
}

func (f *catalogFake) Details(ctx context.Context, id string) (*domain.DocumentDetails, error) {
	doc, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentDetails{Document: *doc, Text: f.text}, nil
}

func (f *catalogFake) SetCategory(_ context.Context, id string, categoryID *int64) error {
	if f.err != nil {
		return f.err
	}
	f.setID = id
	f.setCategory = categoryID
	if f.doc != nil {
		f.doc.CategoryID = categoryID
	}
	return nil
}

func (f *catalogFake) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedID = id
	return nil
}

func (f *catalogFake) Categories(context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *catalogFake) UploadsByMonth(_ context.Context, ownerID string) ([]domain.MonthlyUploads, error) {
	f.statsOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return f.months, nil
}

func (f *catalogFake) TopCategories(_ context.Context, ownerID string) ([]domain.CategoryCount, error) {
	f.statsOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return f.topCounts, nil
}

type extractorFake struct {
	fn func(path, filename string) domain.ExtractionResult
}

func (f extractorFake) Extract(_ context.Context, path, filename string) domain.ExtractionResult {
	if f.fn == nil {
		return domain.ExtractionEmpty(domain.StrategyImageOCR)
	}
	return f.fn(path, filename)
}

type classifierFake struct {
	outcome domain.ClassificationOutcome
	err     error
	texts   []string
}

func (f *classifierFake) Classify(_ context.Context, text string) (domain.ClassificationOutcome, error) {
	f.texts = append(f.texts, text)
	return f.outcome, f.err
}

func newTestHandler(t *testing.T, cfg config.Config, deps Dependencies) http.Handler {
	t.Helper()
	if cfg.OCRTempDir == "" {
		cfg.OCRTempDir = t.TempDir()
	}
	if deps.Ingest == nil {
		deps.Ingest = &ingestFake{}
	}
	if deps.Catalog == nil {
		deps.Catalog = &catalogFake{}
	}
	if deps.Extractor == nil {
		deps.Extractor = extractorFake{}
	}
	if deps.Classifier == nil {
		deps.Classifier = &classifierFake{}
	}
	router, err := NewRouter(cfg, deps)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router.Handler()
}

func loadSpec(t *testing.T) Dependencies {
	t.Helper()
	doc, err := openapi.Load(context.Background())
	if err != nil {
		t.Fatalf("openapi.Load() error = %v", err)
	}
	return Dependencies{Spec: doc}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
