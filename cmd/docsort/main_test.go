package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kirillkom/docsort/internal/core/domain"
)

type extractorFake map[string]domain.ExtractionResult

func (f extractorFake) Extract(_ context.Context, _, filename string) domain.ExtractionResult {
	return f[filename]
}

type classifierFake struct {
	err   error
	calls int
}

func (f *classifierFake) Classify(context.Context, string) (domain.ClassificationOutcome, error) {
	f.calls++
	id := int64(1)
	return domain.ClassificationOutcome{CategoryID: &id}, f.err
}

func decodeReports(t *testing.T, buf *bytes.Buffer) []fileReport {
	t.Helper()
	var out []fileReport
	dec := json.NewDecoder(buf)
	for dec.More() {
		var r fileReport
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode report: %v", err)
		}
		out = append(out, r)
	}
	return out
}

func TestReportFilesExitCodeFollowsFailures(t *testing.T) {
	extractor := extractorFake{
		"invoice.png": domain.ExtractionSucceeded(domain.StrategyImageOCR, "invoice 42"),
		"blank.png":   domain.ExtractionEmpty(domain.StrategyImageOCR),
		"broken.pdf":  domain.ExtractionFailedWith(domain.StrategyPDFOCR, "no pages"),
	}
	classifier := &classifierFake{}

	var buf bytes.Buffer
	code, err := reportFiles(context.Background(), json.NewEncoder(&buf), extractor, classifier,
		[]string{"/in/invoice.png", "/in/blank.png", "/in/broken.pdf"})
	if err != nil {
		t.Fatalf("reportFiles() error = %v", err)
	}
	if code != 1 {
		t.Fatalf("expected exit code 1 for a failed extraction, got %d", code)
	}
	if classifier.calls != 1 {
		t.Fatalf("only successful extractions are classified, got %d calls", classifier.calls)
	}

	reports := decodeReports(t, &buf)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].Classification == nil || *reports[0].Classification.CategoryID != 1 {
		t.Fatalf("unexpected first report %+v", reports[0])
	}
	if reports[1].Classification != nil || reports[2].Extraction.Reason != "no pages" {
		t.Fatalf("unexpected reports %+v", reports[1:])
	}
}

func TestReportFilesWithoutClassifier(t *testing.T) {
	extractor := extractorFake{"a.png": domain.ExtractionSucceeded(domain.StrategyImageOCR, "dear sir")}

	var buf bytes.Buffer
	code, err := reportFiles(context.Background(), json.NewEncoder(&buf), extractor, nil, []string{"a.png"})
	if err != nil || code != 0 {
		t.Fatalf("expected clean run, got code=%d err=%v", code, err)
	}
	if reports := decodeReports(t, &buf); reports[0].Classification != nil {
		t.Fatalf("classification must be skipped, got %+v", reports[0])
	}
}

func TestReportFilesClassifierErrorFailsRun(t *testing.T) {
	extractor := extractorFake{"a.png": domain.ExtractionSucceeded(domain.StrategyImageOCR, "invoice")}
	classifier := &classifierFake{err: errors.New("db down")}

	var buf bytes.Buffer
	code, err := reportFiles(context.Background(), json.NewEncoder(&buf), extractor, classifier, []string{"a.png"})
	if err != nil {
		t.Fatalf("reportFiles() error = %v", err)
	}
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if reports := decodeReports(t, &buf); reports[0].Error != "db down" {
		t.Fatalf("expected error in report, got %+v", reports[0])
	}
}
