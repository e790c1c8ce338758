// Package pdfimage writes the raster images embedded in PDF pages to
// temporary files for recognition.
package pdfimage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/docsort/internal/core/domain"
)

var disableConfigDir sync.Once

type Extractor struct {
	tempDir string
}

func New(tempDir string) *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{tempDir: tempDir}
}

// PageImages extracts every page's images into a private temp directory.
// Images are ordered by page, then by object number. release removes the
// directory and may be called more than once.
func (e *Extractor) PageImages(ctx context.Context, path string) (images []domain.PageImage, release func(), err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if release != nil {
				release()
			}
			images, release, err = nil, nil, fmt.Errorf("extract pdf images: panic: %v", rec)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTIMAGES
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("read pdf: %w", err)
	}

	dir, err := os.MkdirTemp(e.tempDir, "docsort-pages-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create page image dir: %w", err)
	}
	var once sync.Once
	release = func() {
		once.Do(func() { _ = os.RemoveAll(dir) })
	}

	for page := 1; page <= pdfCtx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			release()
			return nil, nil, err
		}
		extracted, err := pdfcpu.ExtractPageImages(pdfCtx, page, false)
		if err != nil {
			slog.Warn("pdf_page_images_failed", "page", page, "error", err)
			continue
		}
		written, err := writePageImages(dir, page, extracted)
		if err != nil {
			release()
			return nil, nil, err
		}
		images = append(images, written...)
	}

	return images, release, nil
}

func writePageImages(dir string, page int, extracted map[int]model.Image) ([]domain.PageImage, error) {
	objNrs := make([]int, 0, len(extracted))
	for nr := range extracted {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	out := make([]domain.PageImage, 0, len(objNrs))
	for _, nr := range objNrs {
		img := extracted[nr]
		if img.Reader == nil {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(img.FileType, "."))
		if ext == "" {
			ext = "png"
		}
		path := filepath.Join(dir, fmt.Sprintf("page-%04d-obj-%d.%s", page, nr, ext))
		if err := writeImage(path, img.Reader); err != nil {
			return nil, fmt.Errorf("write image page=%d obj=%d: %w", page, nr, err)
		}
		out = append(out, domain.PageImage{Page: page, Path: path})
	}
	return out, nil
}

func writeImage(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
