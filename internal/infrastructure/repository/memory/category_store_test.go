package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/docsort/internal/core/domain"
)

func TestFindByNameIsCaseSensitive(t *testing.T) {
	store := NewCategoryStore(domain.DefaultCategories())

	cat, err := store.FindByName(context.Background(), "Letter")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if cat.ID != 4 {
		t.Fatalf("expected id 4, got %d", cat.ID)
	}
	if _, err := store.FindByName(context.Background(), "letter"); !domain.IsKind(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound for lowercase name, got %v", err)
	}
}

func TestListAllSortedAndAdd(t *testing.T) {
	store := NewCategoryStore(domain.DefaultCategories())
	if err := store.Add(domain.Category{ID: 6, Name: "Results"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := store.Add(domain.Category{ID: 7, Name: "Results"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	cats, _ := store.ListAll(context.Background())
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	for i := 1; i < len(cats); i++ {
		if cats[i-1].Name > cats[i].Name {
			t.Fatalf("categories not sorted: %+v", cats)
		}
	}
}
