package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveCategory(ctx context.Context, id string, categoryID *int64) error
	SaveText(ctx context.Context, text domain.DocumentText) error
	GetText(ctx context.Context, documentID string) (*domain.DocumentText, error)
	Delete(ctx context.Context, id string) error
	// UploadsByMonth groups uploads by calendar month, oldest first. An empty
	// ownerID covers every owner.
	UploadsByMonth(ctx context.Context, ownerID string) ([]domain.MonthlyUploads, error)
	TopCategories(ctx context.Context, ownerID string, limit int) ([]domain.CategoryCount, error)
}

// CategoryStore is the read-only category lookup. FindByName returns
// domain.ErrCategoryNotFound when no category carries the exact name.
type CategoryStore interface {
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	ListAll(ctx context.Context) ([]domain.Category, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// ImagePreprocessor normalizes an image for recognition. It always returns a
// usable path: either a fresh artifact or the input path itself. release
// deletes the artifact and is safe to call more than once.
type ImagePreprocessor interface {
	Preprocess(ctx context.Context, path string) (artifactPath string, release func())
}

// Recognizer runs OCR on an image file and returns trimmed plain text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// PDFTextReader returns the embedded text of each page in page order.
type PDFTextReader interface {
	PageTexts(ctx context.Context, path string) ([]string, error)
}

// PageImageSource writes the raster images of a PDF's pages to scoped temporary
// files. release removes them.
type PageImageSource interface {
	PageImages(ctx context.Context, path string) (images []domain.PageImage, release func(), err error)
}

// RuleSource loads the ordered classification rule table.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]domain.ClassificationRule, error)
}

// ExtractionObserver records extraction and classification outcomes.
type ExtractionObserver interface {
	ObserveExtraction(result domain.ExtractionResult, seconds float64)
	ObserveClassification(outcome domain.ClassificationOutcome)
}
