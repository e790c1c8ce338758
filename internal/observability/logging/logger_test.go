package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerWritesServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "docsort-worker", "warn")

	logger.Info("extraction_finished", "strategy", "pdf_text_layer")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("classification_unresolved", "label", "Results")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "docsort-worker" || entry["msg"] != "classification_unresolved" || entry["label"] != "Results" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestSetupWriterInstallsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	SetupWriter(&buf, "docsort-cli", "info")
	slog.Info("pipeline_ready", "rules", 16)

	if !bytes.Contains(buf.Bytes(), []byte(`"service":"docsort-cli"`)) {
		t.Fatalf("expected default logger to write to the given writer, got %s", buf.String())
	}
}
