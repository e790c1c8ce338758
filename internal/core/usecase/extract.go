package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
)

type ExtractOptions struct {
	// Timeout bounds a whole Extract call; zero disables it.
	Timeout time.Duration
	// PageConcurrency bounds how many PDF page images are recognized at once.
	PageConcurrency int
	Observer        ports.ExtractionObserver
}

type ExtractUseCase struct {
	pdfText      ports.PDFTextReader
	pageImages   ports.PageImageSource
	preprocessor ports.ImagePreprocessor
	recognizer   ports.Recognizer
	observer     ports.ExtractionObserver

	timeout         time.Duration
	pageConcurrency int
}

func NewExtractUseCase(
	pdfText ports.PDFTextReader,
	pageImages ports.PageImageSource,
	preprocessor ports.ImagePreprocessor,
	recognizer ports.Recognizer,
	opts ExtractOptions,
) *ExtractUseCase {
	pageConcurrency := opts.PageConcurrency
	if pageConcurrency <= 0 {
		pageConcurrency = runtime.NumCPU()
	}
	return &ExtractUseCase{
		pdfText:         pdfText,
		pageImages:      pageImages,
		preprocessor:    preprocessor,
		recognizer:      recognizer,
		observer:        opts.Observer,
		timeout:         opts.Timeout,
		pageConcurrency: pageConcurrency,
	}
}

// Extract routes a file to the PDF or image path by extension and always
// returns one of the three extraction states.
func (uc *ExtractUseCase) Extract(ctx context.Context, path, filename string) (result domain.ExtractionResult) {
	start := time.Now()
	doc := domain.NewRawDocument(path, filename)

	defer func() {
		if r := recover(); r != nil {
			result = domain.ExtractionFailedWith(initialStrategy(doc.Kind), fmt.Sprintf("extraction panic: %v", r))
		}
		uc.finish(doc, result, time.Since(start))
	}()

	if strings.TrimSpace(path) == "" {
		return domain.ExtractionFailedWith(domain.StrategyNone, "empty file path")
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	if doc.Kind == domain.KindPDF {
		return uc.readPDFText(ctx, doc.Path)
	}
	return uc.imageOCR(ctx, doc.Path)
}

// readPDFText prefers the embedded text layer and falls back to recognizing the
// page images when the layer is missing or unreadable.
func (uc *ExtractUseCase) readPDFText(ctx context.Context, path string) domain.ExtractionResult {
	pages, err := uc.pdfText.PageTexts(ctx, path)
	if err != nil {
		slog.Warn("pdf_text_layer_unavailable", "path", path, "error", err)
	} else if text := strings.TrimSpace(strings.Join(pages, "\n\n")); text != "" {
		return domain.ExtractionSucceeded(domain.StrategyPDFTextLayer, text)
	}

	if err := ctx.Err(); err != nil {
		return domain.ExtractionFailedWith(domain.StrategyPDFTextLayer, err.Error())
	}
	return uc.pdfOCR(ctx, path)
}

func (uc *ExtractUseCase) pdfOCR(ctx context.Context, path string) domain.ExtractionResult {
	images, release, err := uc.pageImages.PageImages(ctx, path)
	if err != nil {
		return domain.ExtractionFailedWith(domain.StrategyPDFOCR, fmt.Sprintf("extract page images: %v", err))
	}
	defer release()

	if len(images) == 0 {
		return domain.ExtractionEmpty(domain.StrategyPDFOCR)
	}

	texts := make([]string, len(images))
	errs := make([]error, len(images))

	var g errgroup.Group
	g.SetLimit(uc.pageConcurrency)
	for i, img := range images {
		g.Go(func() error {
			texts[i], errs[i] = uc.recognizeImage(ctx, img.Path)
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]string, 0, len(texts))
	var firstErr error
	failures := 0
	for i, text := range texts {
		if errs[i] != nil {
			failures++
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", images[i].Page, errs[i])
			}
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) > 0 {
		return domain.ExtractionSucceeded(domain.StrategyPDFOCR, strings.Join(parts, "\n\n"))
	}
	if failures == len(images) {
		return domain.ExtractionFailedWith(domain.StrategyPDFOCR, firstErr.Error())
	}
	return domain.ExtractionEmpty(domain.StrategyPDFOCR)
}

func (uc *ExtractUseCase) imageOCR(ctx context.Context, path string) domain.ExtractionResult {
	text, err := uc.recognizeImage(ctx, path)
	if err != nil {
		return domain.ExtractionFailedWith(domain.StrategyImageOCR, err.Error())
	}
	return domain.ResultFromText(domain.StrategyImageOCR, text)
}

// recognizeImage scopes the preprocessed artifact to a single recognizer call.
// Page images are recognized on errgroup goroutines, so panics are recovered
// here rather than in Extract.
func (uc *ExtractUseCase) recognizeImage(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("recognize image: panic: %v", r)
		}
	}()

	artifact, release := uc.preprocessor.Preprocess(ctx, path)
	defer release()

	text, err = uc.recognizer.Recognize(ctx, artifact)
	if err != nil {
		return "", fmt.Errorf("recognize image: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (uc *ExtractUseCase) finish(doc domain.RawDocument, result domain.ExtractionResult, elapsed time.Duration) {
	attrs := []any{
		"filename", doc.Filename,
		"kind", string(doc.Kind),
		"strategy", string(result.Strategy),
		"status", string(result.Status),
		"chars", len(result.Text),
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
	}
	if result.Status == domain.ExtractionFailed {
		slog.Warn("extraction_finished", append(attrs, "reason", result.Reason)...)
	} else {
		slog.Info("extraction_finished", attrs...)
	}
	if uc.observer != nil {
		uc.observer.ObserveExtraction(result, elapsed.Seconds())
	}
}

func initialStrategy(kind domain.DocumentKind) domain.ExtractionStrategy {
	if kind == domain.KindPDF {
		return domain.StrategyPDFTextLayer
	}
	return domain.StrategyImageOCR
}
