package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	tempDir    string
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	tempDir string,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		storage:    storage,
		extractor:  extractor,
		classifier: classifier,
		tempDir:    tempDir,
	}
}

// ProcessByID runs extraction and classification for a stored document and
// returns the extraction result. An error means the document was marked failed.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) (domain.ExtractionResult, error) {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return domain.ExtractionResult{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.ExtractionResult{}, err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, result.Reason); err != nil {
		return result, fmt.Errorf("set status=ready: %w", err)
	}

	return result, nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (domain.ExtractionResult, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	result := uc.extractText(ctx, doc)

	if err := uc.persistText(ctx, doc.ID, result); err != nil {
		return domain.ExtractionResult{}, err
	}

	if !result.Succeeded() {
		return result, nil
	}

	outcome, err := uc.classify(ctx, result.Text)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	if outcome.CategoryID != nil {
		if err := uc.persistCategory(ctx, doc.ID, outcome.CategoryID); err != nil {
			return domain.ExtractionResult{}, err
		}
	}

	return result, nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

// extractText copies the stored object into a scoped local file, since the
// extractor works on paths.
func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) domain.ExtractionResult {
	localPath, cleanup, err := uc.materialize(ctx, doc)
	if err != nil {
		return domain.ExtractionFailedWith(domain.StrategyNone, err.Error())
	}
	defer cleanup()

	return uc.extractor.Extract(ctx, localPath, doc.Filename)
}

func (uc *ProcessDocumentUseCase) materialize(ctx context.Context, doc *domain.Document) (string, func(), error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	ext := strings.ToLower(filepath.Ext(doc.Filename))
	f, err := os.CreateTemp(uc.tempDir, "docsort-src-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create local copy: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy source document: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close local copy: %w", err)
	}
	return path, cleanup, nil
}

func (uc *ProcessDocumentUseCase) classify(ctx context.Context, text string) (domain.ClassificationOutcome, error) {
	outcome, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return domain.ClassificationOutcome{}, fmt.Errorf("classify document: %w", err)
	}
	return outcome, nil
}

func (uc *ProcessDocumentUseCase) persistText(ctx context.Context, documentID string, result domain.ExtractionResult) error {
	err := uc.repo.SaveText(ctx, domain.DocumentText{
		DocumentID:       documentID,
		Text:             result.Text,
		ExtractionStatus: result.Status,
		ExtractionError:  result.Reason,
	})
	if err != nil {
		return fmt.Errorf("save extracted text: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) persistCategory(ctx context.Context, documentID string, categoryID *int64) error {
	if err := uc.repo.SaveCategory(ctx, documentID, categoryID); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
