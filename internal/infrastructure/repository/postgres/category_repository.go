package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/infrastructure/resilience"
)

// CategoryRepository serves classification lookups. Lookups are retried
// through the executor when one is configured.
type CategoryRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewCategoryRepository(db *sql.DB, executor *resilience.Executor) *CategoryRepository {
	return &CategoryRepository{db: db, executor: executor}
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	cat, err := resilience.Call(ctx, r.executor, "categories.find_by_name", func(ctx context.Context) (domain.Category, error) {
		var c domain.Category
		err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE name = $1`, name).Scan(&c.ID, &c.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, domain.WrapError(domain.ErrCategoryNotFound, "find category", fmt.Errorf("name=%q", name))
		}
		if err != nil {
			return domain.Category{}, fmt.Errorf("find category: %w", err)
		}
		return c, nil
	}, nil)
	if err != nil {
		return nil, resilience.AsTemporary("find category", err, nil)
	}
	return &cat, nil
}

func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	cats, err := resilience.Call(ctx, r.executor, "categories.list", func(ctx context.Context) ([]domain.Category, error) {
		rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		defer rows.Close()

		out := make([]domain.Category, 0)
		for rows.Next() {
			var c domain.Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return nil, fmt.Errorf("scan category: %w", err)
			}
			out = append(out, c)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate categories: %w", err)
		}
		return out, nil
	}, nil)
	if err != nil {
		return nil, resilience.AsTemporary("list categories", err, nil)
	}
	return cats, nil
}
