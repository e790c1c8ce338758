package pdfimage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writePDF(t *testing.T, withImage bool) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	if withImage {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader("scan", opts, bytes.NewReader(pngBytes(t)))
		doc.ImageOptions("scan", 10, 10, 64, 32, false, opts, 0, "")
	} else {
		doc.Cell(40, 10, "text only")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("generate pdf: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestPageImagesWritesAndReleases(t *testing.T) {
	tempDir := t.TempDir()
	images, release, err := New(tempDir).PageImages(context.Background(), writePDF(t, true))
	if err != nil {
		t.Fatalf("PageImages() error = %v", err)
	}
	if len(images) == 0 {
		t.Fatalf("expected at least one page image")
	}
	for _, img := range images {
		if img.Page != 1 {
			t.Fatalf("expected page 1, got %d", img.Page)
		}
		if info, err := os.Stat(img.Path); err != nil || info.Size() == 0 {
			t.Fatalf("expected non-empty image file at %s: %v", img.Path, err)
		}
	}

	release()
	release()
	for _, img := range images {
		if _, err := os.Stat(img.Path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed after release", img.Path)
		}
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Fatalf("expected temp dir to be empty, found %d entries", len(entries))
	}
}

func TestPageImagesTextOnlyPDF(t *testing.T) {
	images, release, err := New(t.TempDir()).PageImages(context.Background(), writePDF(t, false))
	if err != nil {
		t.Fatalf("PageImages() error = %v", err)
	}
	defer release()
	if len(images) != 0 {
		t.Fatalf("expected no images, got %d", len(images))
	}
}

func TestPageImagesInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	if err := os.WriteFile(path, []byte("%PDF-garbage"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	images, release, err := New(t.TempDir()).PageImages(context.Background(), path)
	if err == nil {
		release()
		t.Fatalf("expected error, got %d images", len(images))
	}
}
