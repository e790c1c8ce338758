package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/docsort/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, filename, mime_type, storage_path, owner_id, category_id, status, error_message, uploaded_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var categoryID sql.NullInt64
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.OwnerID,
		&categoryID, &status, &doc.Error, &doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		doc.CategoryID = &id
	}
	doc.Status = domain.DocumentStatus(status)
	return doc, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.OwnerID,
		nullableID(doc.CategoryID), string(doc.Status), doc.Error, doc.UploadedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// List returns documents newest first. Zero-valued filter fields are ignored.
func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var conds []string
	var args []any
	where := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OwnerID != "" {
		where("owner_id = $%d", filter.OwnerID)
	}
	if filter.CategoryID != nil {
		where("category_id = $%d", *filter.CategoryID)
	}
	if filter.From != nil {
		where("uploaded_at >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		where("uploaded_at <= $%d", filter.To.UTC())
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		where("(filename ILIKE $%[1]d OR id IN (SELECT document_id FROM document_texts WHERE text ILIKE $%[1]d))", containsPattern(kw))
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY uploaded_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return expectAffected(res, "update document status", id)
}

func (r *DocumentRepository) SaveCategory(ctx context.Context, id string, categoryID *int64) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET category_id = $2, updated_at = $3
WHERE id = $1
`, id, nullableID(categoryID), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return expectAffected(res, "save category", id)
}

func (r *DocumentRepository) SaveText(ctx context.Context, text domain.DocumentText) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO document_texts (document_id, text, extraction_status, extraction_error, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (document_id) DO UPDATE
SET text = EXCLUDED.text,
	extraction_status = EXCLUDED.extraction_status,
	extraction_error = EXCLUDED.extraction_error,
	updated_at = EXCLUDED.updated_at
`, text.DocumentID, text.Text, string(text.ExtractionStatus), text.ExtractionError, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document text: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetText(ctx context.Context, documentID string) (*domain.DocumentText, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT document_id, text, extraction_status, extraction_error
FROM document_texts
WHERE document_id = $1
`, documentID)

	var text domain.DocumentText
	var status string
	if err := row.Scan(&text.DocumentID, &text.Text, &status, &text.ExtractionError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document text", fmt.Errorf("id=%s", documentID))
		}
		return nil, fmt.Errorf("scan document text: %w", err)
	}
	text.ExtractionStatus = domain.ExtractionStatus(status)
	return &text, nil
}

// Delete removes the document; its text row goes with it via ON DELETE CASCADE.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectAffected(res, "delete document", id)
}

func expectAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}

// containsPattern builds an ILIKE pattern matching kw anywhere, with LIKE
// metacharacters in kw taken literally.
func containsPattern(kw string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(kw)
	return "%" + escaped + "%"
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
