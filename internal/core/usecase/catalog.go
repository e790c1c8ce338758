package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	topCategoryCount = 5
)

type CatalogUseCase struct {
	repo       ports.DocumentRepository
	categories ports.CategoryStore
	storage    ports.ObjectStorage
}

func NewCatalogUseCase(
	repo ports.DocumentRepository,
	categories ports.CategoryStore,
	storage ports.ObjectStorage,
) *CatalogUseCase {
	return &CatalogUseCase{
		repo:       repo,
		categories: categories,
		storage:    storage,
	}
}

func (uc *CatalogUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", errors.New("document id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *CatalogUseCase) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list documents", errors.New("'to' precedes 'from'"))
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	docs, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (uc *CatalogUseCase) Details(ctx context.Context, id string) (*domain.DocumentDetails, error) {
	doc, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &domain.DocumentDetails{Document: *doc}

	text, err := uc.repo.GetText(ctx, id)
	switch {
	case err == nil:
		details.Text = text
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		// not processed yet
	default:
		return nil, fmt.Errorf("load extracted text: %w", err)
	}
	return details, nil
}

// SetCategory reassigns a document's category by hand. A nil id clears it.
func (uc *CatalogUseCase) SetCategory(ctx context.Context, id string, categoryID *int64) error {
	if categoryID != nil {
		known, err := uc.categories.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if !containsCategory(known, *categoryID) {
			return domain.WrapError(domain.ErrInvalidInput, "set category", fmt.Errorf("unknown category id %d", *categoryID))
		}
	}
	if err := uc.repo.SaveCategory(ctx, id, categoryID); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (uc *CatalogUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
		slog.Warn("document_object_delete_failed", "document_id", id, "storage_path", doc.StoragePath, "error", err)
	}
	return nil
}

// Categories returns all stored categories ordered by name.
func (uc *CatalogUseCase) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := uc.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

// UploadsByMonth reports recognized and unrecognized uploads per YYYY-MM.
func (uc *CatalogUseCase) UploadsByMonth(ctx context.Context, ownerID string) ([]domain.MonthlyUploads, error) {
	months, err := uc.repo.UploadsByMonth(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, fmt.Errorf("uploads by month: %w", err)
	}
	return months, nil
}

func (uc *CatalogUseCase) TopCategories(ctx context.Context, ownerID string) ([]domain.CategoryCount, error) {
	counts, err := uc.repo.TopCategories(ctx, strings.TrimSpace(ownerID), topCategoryCount)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	return counts, nil
}

func containsCategory(cats []domain.Category, id int64) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}
