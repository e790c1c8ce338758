package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, ownerID, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentCatalog covers listing, details and manual edits of stored documents.
type DocumentCatalog interface {
	DocumentReader
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	Details(ctx context.Context, id string) (*domain.DocumentDetails, error)
	SetCategory(ctx context.Context, id string, categoryID *int64) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]domain.Category, error)
	UploadsByMonth(ctx context.Context, ownerID string) ([]domain.MonthlyUploads, error)
	TopCategories(ctx context.Context, ownerID string) ([]domain.CategoryCount, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) (domain.ExtractionResult, error)
}

// TextExtractor turns a file on disk into an extraction result. It never fails:
// every problem is reported through the result status.
type TextExtractor interface {
	Extract(ctx context.Context, path, filename string) domain.ExtractionResult
}

// DocumentClassifier maps extracted text to a stored category.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (domain.ClassificationOutcome, error)
}
