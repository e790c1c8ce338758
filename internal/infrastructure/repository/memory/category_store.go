package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// CategoryStore is an in-process category table for the CLI, the MCP server
// and tests.
type CategoryStore struct {
	mu     sync.RWMutex
	byName map[string]domain.Category
}

func NewCategoryStore(categories []domain.Category) *CategoryStore {
	s := &CategoryStore{byName: make(map[string]domain.Category, len(categories))}
	for _, c := range categories {
		s.byName[c.Name] = c
	}
	return s
}

func (s *CategoryStore) FindByName(_ context.Context, name string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byName[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrCategoryNotFound, "find category", fmt.Errorf("name=%q", name))
	}
	return &c, nil
}

func (s *CategoryStore) ListAll(context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.byName))
	for _, c := range s.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Add registers a category; names are unique.
func (s *CategoryStore) Add(c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[c.Name]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "add category", errors.New("duplicate name "+c.Name))
	}
	s.byName[c.Name] = c
	return nil
}
