package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerRendersComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "resolver").Info("resolved release",
		String(FieldCatalog, "ABC123"),
		Int("candidates", 4))

	line := buf.String()
	if !strings.Contains(line, "[resolver]") {
		t.Errorf("missing component tag in %q", line)
	}
	if !strings.Contains(line, "resolved release") {
		t.Errorf("missing message in %q", line)
	}
	if !strings.Contains(line, "catalog_number=ABC123") {
		t.Errorf("missing attr in %q", line)
	}
	if !strings.Contains(line, "candidates=4") {
		t.Errorf("missing int attr in %q", line)
	}
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("lookup", String(FieldAlbum, "Blue Train"))

	if !strings.Contains(buf.String(), `album="Blue Train"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestJSONFormatEmitsParsableRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("cache hit", String(FieldArtist, "Artist"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record["msg"] != "cache hit" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record[FieldArtist] != "Artist" {
		t.Errorf("artist = %v", record[FieldArtist])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
