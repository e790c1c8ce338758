package pdftext

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

func writeTestPDF(t *testing.T, pages ...string) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(120, 10, text)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("generate test pdf: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write test pdf: %v", err)
	}
	return path
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestPageTextsReadsTextLayer(t *testing.T) {
	path := writeTestPDF(t, "INVOICE #123 TOTAL $50")

	pages, err := New().PageTexts(context.Background(), path)
	if err != nil {
		t.Fatalf("PageTexts() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if !strings.Contains(normalize(pages[0]), "INVOICE #123 TOTAL $50") {
		t.Fatalf("unexpected page text %q", pages[0])
	}
}

func TestPageTextsKeepsPageOrder(t *testing.T) {
	path := writeTestPDF(t, "first page", "", "third page")

	pages, err := New().PageTexts(context.Background(), path)
	if err != nil {
		t.Fatalf("PageTexts() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0], "first") || !strings.Contains(pages[2], "third") {
		t.Fatalf("unexpected page order %q", pages)
	}
	if strings.TrimSpace(pages[1]) != "" {
		t.Fatalf("expected blank second page, got %q", pages[1])
	}
}

func TestPageTextsRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := New().PageTexts(context.Background(), path); err == nil {
		t.Fatalf("expected error for non-pdf input")
	}
}

func TestPageTextsMissingFile(t *testing.T) {
	if _, err := New().PageTexts(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
