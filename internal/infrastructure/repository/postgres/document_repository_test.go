package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docsort/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

var documentRowColumns = []string{
	"id", "filename", "mime_type", "storage_path", "owner_id", "category_id",
	"status", "error_message", "uploaded_at", "updated_at",
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansNullableCategory(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT id, filename").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "scan.png", "image/png", "u/doc-1_scan.png", "u", nil, "ready", "", now, now))

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.CategoryID != nil {
		t.Fatalf("expected nil category, got %d", *doc.CategoryID)
	}
	if doc.Status != domain.StatusReady || doc.OwnerID != "u" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestListAppliesFilters(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	categoryID := int64(2)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM documents WHERE owner_id = \$1 AND category_id = \$2 AND uploaded_at >= \$3 ORDER BY uploaded_at DESC LIMIT \$4`).
		WithArgs("user-1", int64(2), from, 10).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "a.pdf", "application/pdf", "k1", "user-1", int64(2), "ready", "", now, now).
			AddRow("doc-2", "b.pdf", "application/pdf", "k2", "user-1", int64(2), "failed", "boom", now, now))

	docs, err := repo.List(context.Background(), domain.DocumentFilter{
		OwnerID:    "user-1",
		CategoryID: &categoryID,
		From:       &from,
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[1].CategoryID == nil || *docs[1].CategoryID != 2 || docs[1].Error != "boom" {
		t.Fatalf("unexpected second document %+v", docs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMatchesKeywordInFilenameOrText(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	cond := `WHERE owner_id = $1 AND (filename ILIKE $2 OR id IN (SELECT document_id FROM document_texts WHERE text ILIKE $2)) ORDER BY uploaded_at DESC`
	mock.ExpectQuery(regexp.QuoteMeta(cond)).
		WithArgs("user-1", `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "promo.png", "image/png", "k1", "user-1", nil, "ready", "", now, now))

	docs, err := repo.List(context.Background(), domain.DocumentFilter{
		OwnerID: "user-1",
		Keyword: "  50%_off ",
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("unexpected documents %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListWithoutFilters(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`FROM documents ORDER BY uploaded_at DESC$`).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	docs, err := repo.List(context.Background(), domain.DocumentFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveCategoryClearsWithNull(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("SET category_id").
		WithArgs("doc-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveCategory(context.Background(), "doc-1", nil); err != nil {
		t.Fatalf("SaveCategory() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveCategoryReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	categoryID := int64(3)
	mock.ExpectExec("SET category_id").
		WithArgs("missing", int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveCategory(context.Background(), "missing", &categoryID)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSaveTextUpserts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO document_texts").
		WithArgs("doc-1", "", "failed", "bad image", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveText(context.Background(), domain.DocumentText{
		DocumentID:       "doc-1",
		ExtractionStatus: domain.ExtractionFailed,
		ExtractionError:  "bad image",
	})
	if err != nil {
		t.Fatalf("SaveText() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTextNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM document_texts").
		WithArgs("doc-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetText(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDeleteReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestEnsureSchemaSeedsCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	seeds := domain.DefaultCategories()
	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS categories").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, c := range seeds {
		mock.ExpectExec("INSERT INTO categories").WithArgs(c.ID, c.Name).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("setval").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db, seeds); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
