// Command docsort extracts and classifies local files and prints one JSON
// object per file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docsort/internal/bootstrap"
	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
	"github.com/kirillkom/docsort/internal/observability/logging"
)

type fileReport struct {
	File           string                        `json:"file"`
	Extraction     domain.ExtractionResult       `json:"extraction"`
	Classification *domain.ClassificationOutcome `json:"classification,omitempty"`
	Error          string                        `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup finishes before main
// exits.
func run(args []string) int {
	_ = godotenv.Load()
	cfg := config.Load()

	flags := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	rulesPath := flags.String("rules", cfg.RulesPath, "YAML or XLSX rule table; built-in rules when empty")
	classify := flags.Bool("classify", true, "classify extracted text")
	pretty := flags.Bool("pretty", false, "indent JSON output")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: %s [flags] FILE...\n", flags.Name())
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}
	cfg.RulesPath = *rulesPath

	logging.SetupWriter(os.Stderr, "docsort-cli", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.NewLocalPipeline(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsort: %v\n", err)
		return 1
	}
	defer pipeline.Close()

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	var classifier ports.DocumentClassifier
	if *classify {
		classifier = pipeline.Classify
	}
	code, err := reportFiles(ctx, enc, pipeline.Extract, classifier, flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsort: write result: %v\n", err)
		return 1
	}
	return code
}

// reportFiles writes one report per path. A nil classifier skips
// classification. The result is 1 when any file failed extraction or
// classification.
func reportFiles(
	ctx context.Context,
	enc *json.Encoder,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	paths []string,
) (int, error) {
	exitCode := 0
	for _, path := range paths {
		report := fileReport{
			File:       path,
			Extraction: extractor.Extract(ctx, path, filepath.Base(path)),
		}
		if classifier != nil && report.Extraction.Succeeded() {
			outcome, err := classifier.Classify(ctx, report.Extraction.Text)
			if err != nil {
				report.Error = err.Error()
			} else {
				report.Classification = &outcome
			}
		}
		if report.Extraction.Status == domain.ExtractionFailed || report.Error != "" {
			exitCode = 1
		}
		if err := enc.Encode(report); err != nil {
			return 1, err
		}
	}
	return exitCode, nil
}
