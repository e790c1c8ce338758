package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kirillkom/docsort/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	mu          sync.Mutex
	docs        map[string]domain.Document
	texts       map[string]domain.DocumentText
	categories  map[string]*int64
	statusCalls []statusCall

	createErr     error
	saveTextErr   error
	saveCatErr    error
	failStatusErr error
	listFilter    domain.DocumentFilter
	deleted       []string
	months        []domain.MonthlyUploads
	topCounts     []domain.CategoryCount
	statsOwner    string
	statsLimit    int
	statsErr      error
}

func newRepoFake(docs ...domain.Document) *repoFake {
	f := &repoFake{
		docs:       map[string]domain.Document{},
		texts:      map[string]domain.DocumentText{},
		categories: map[string]*int64{},
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return &doc, nil
}

func (f *repoFake) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.listFilter = filter
	out := make([]domain.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	return nil
}

func (f *repoFake) SaveCategory(_ context.Context, id string, categoryID *int64) error {
	if f.saveCatErr != nil {
		return f.saveCatErr
	}
	f.categories[id] = categoryID
	return nil
}

func (f *repoFake) SaveText(_ context.Context, text domain.DocumentText) error {
	if f.saveTextErr != nil {
		return f.saveTextErr
	}
	f.texts[text.DocumentID] = text
	return nil
}

func (f *repoFake) GetText(_ context.Context, documentID string) (*domain.DocumentText, error) {
	text, ok := f.texts[documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get text", errors.New(documentID))
	}
	return &text, nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *repoFake) UploadsByMonth(_ context.Context, ownerID string) ([]domain.MonthlyUploads, error) {
	f.statsOwner = ownerID
	return f.months, f.statsErr
}

func (f *repoFake) TopCategories(_ context.Context, ownerID string, limit int) ([]domain.CategoryCount, error) {
	f.statsOwner = ownerID
	f.statsLimit = limit
	return f.topCounts, f.statsErr
}

type storageFake struct {
	objects   map[string]string
	saveErr   error
	openErr   error
	deleteErr error
	deleted   []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string]string{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

type queueFake struct {
	documentID string
	err        error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type categoryStoreFake struct {
	cats  []domain.Category
	err   error
	calls atomic.Int32
}

func (f *categoryStoreFake) FindByName(_ context.Context, name string) (*domain.Category, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.cats {
		if c.Name == name {
			cat := c
			return &cat, nil
		}
	}
	return nil, domain.WrapError(domain.ErrCategoryNotFound, "find category", errors.New(name))
}

func (f *categoryStoreFake) ListAll(context.Context) ([]domain.Category, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Category, len(f.cats))
	copy(out, f.cats)
	return out, nil
}

type observerFake struct {
	mu              sync.Mutex
	extractions     []domain.ExtractionResult
	classifications []domain.ClassificationOutcome
}

func (f *observerFake) ObserveExtraction(result domain.ExtractionResult, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractions = append(f.extractions, result)
}

func (f *observerFake) ObserveClassification(outcome domain.ClassificationOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifications = append(f.classifications, outcome)
}
