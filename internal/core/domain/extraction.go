package domain

import "strings"

type ExtractionStatus string

const (
	ExtractionSuccess     ExtractionStatus = "success"
	ExtractionEmptyNoText ExtractionStatus = "empty_no_text"
	ExtractionFailed      ExtractionStatus = "failed"
)

type ExtractionStrategy string

const (
	StrategyNone         ExtractionStrategy = "none"
	StrategyPDFTextLayer ExtractionStrategy = "pdf_text_layer"
	StrategyPDFOCR       ExtractionStrategy = "pdf_ocr"
	StrategyImageOCR     ExtractionStrategy = "image_ocr"
)

// ExtractionResult is produced once per extraction call and treated as immutable.
// Text is empty unless Status is ExtractionSuccess.
type ExtractionResult struct {
	Text     string             `json:"text"`
	Status   ExtractionStatus   `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Strategy ExtractionStrategy `json:"strategy"`
}

func ExtractionSucceeded(strategy ExtractionStrategy, text string) ExtractionResult {
	return ExtractionResult{Text: text, Status: ExtractionSuccess, Strategy: strategy}
}

func ExtractionEmpty(strategy ExtractionStrategy) ExtractionResult {
	return ExtractionResult{Status: ExtractionEmptyNoText, Strategy: strategy}
}

func ExtractionFailedWith(strategy ExtractionStrategy, reason string) ExtractionResult {
	if strings.TrimSpace(reason) == "" {
		reason = "extraction failed"
	}
	return ExtractionResult{Status: ExtractionFailed, Reason: reason, Strategy: strategy}
}

// ResultFromText maps a clean extraction run to success or empty_no_text.
func ResultFromText(strategy ExtractionStrategy, text string) ExtractionResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ExtractionEmpty(strategy)
	}
	return ExtractionSucceeded(strategy, trimmed)
}

func (r ExtractionResult) Succeeded() bool {
	return r.Status == ExtractionSuccess
}

// PageImage is a page-level raster written to a scoped temporary file.
type PageImage struct {
	Page int
	Path string
}
