package postgres

import (
	"context"
	"fmt"

	"github.com/kirillkom/docsort/internal/core/domain"
)

func (r *DocumentRepository) UploadsByMonth(ctx context.Context, ownerID string) ([]domain.MonthlyUploads, error) {
	query := `
SELECT to_char(date_trunc('month', uploaded_at), 'YYYY-MM') AS month,
	category_id IS NOT NULL AS recognized,
	COUNT(*)
FROM documents`
	var args []any
	if ownerID != "" {
		args = append(args, ownerID)
		query += ` WHERE owner_id = $1`
	}
	query += ` GROUP BY 1, 2 ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("uploads by month: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MonthlyUploads, 0)
	for rows.Next() {
		var (
			month      string
			recognized bool
			count      int
		)
		if err := rows.Scan(&month, &recognized, &count); err != nil {
			return nil, fmt.Errorf("scan monthly uploads: %w", err)
		}
		// rows arrive ordered by month, at most two per month
		if len(out) == 0 || out[len(out)-1].Month != month {
			out = append(out, domain.MonthlyUploads{Month: month})
		}
		last := &out[len(out)-1]
		if recognized {
			last.Recognized += count
		} else {
			last.Unrecognized += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly uploads: %w", err)
	}
	return out, nil
}

// TopCategories counts documents per category name, largest first. Documents
// without a category are counted under domain.UnrecognizedLabel.
func (r *DocumentRepository) TopCategories(ctx context.Context, ownerID string, limit int) ([]domain.CategoryCount, error) {
	args := []any{domain.UnrecognizedLabel}
	query := `
SELECT COALESCE(c.name, $1) AS label, COUNT(*) AS n
FROM documents d
LEFT JOIN categories c ON c.id = d.category_id`
	if ownerID != "" {
		args = append(args, ownerID)
		query += fmt.Sprintf(` WHERE d.owner_id = $%d`, len(args))
	}
	query += ` GROUP BY 1 ORDER BY n DESC, label`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CategoryCount, 0)
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return out, nil
}
