// Package pdftext reads the embedded text layer of PDF files.
package pdftext

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// PageTexts returns the plain text of every page in page order. Pages without
// content yield an empty string. The parser panics on some malformed files;
// those panics come back as errors.
func (r *Reader) PageTexts(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("parse pdf: panic: %v", rec)
		}
	}()

	f, rd, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := rd.NumPage()
	pages = make([]string, 0, total)
	var pageErrs []error
	readable := 0

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := rd.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", i, err))
			pages = append(pages, "")
			continue
		}
		readable++
		pages = append(pages, text)
	}

	if readable == 0 && len(pageErrs) > 0 {
		return nil, fmt.Errorf("read text layer: %w", errors.Join(pageErrs...))
	}
	return pages, nil
}
