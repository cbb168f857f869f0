package renamecmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/config"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/storage"
)

func writeResults(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ResultsFilename)
	store, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	records := []models.ExtractionRecord{
		{SourceFilename: "b.pdf", Error: "rasterization: rasterize: encrypted", ErrorKind: models.KindRasterization},
		{SourceFilename: "a.pdf", Title: "T", Author: "A", Year: "2000", OutputFilename: "2000 - A - T.pdf", Copied: true, Provider: "gemini", Model: "m", Pages: 2},
	}
	for _, rec := range records {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	return path
}

func TestExecuteReportText(t *testing.T) {
	path := writeResults(t)

	var out bytes.Buffer
	if err := executeReport(path, "text", &out); err != nil {
		t.Fatalf("executeReport failed: %v", err)
	}
	text := out.String()

	if strings.Index(text, "a.pdf") > strings.Index(text, "b.pdf") {
		t.Error("Expected records sorted by source filename")
	}
	for _, want := range []string{"Total Records:  2", "Successful:     1", "Failed:         1", "rasterization: 1", "gemini/m (2 pages)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in report:\n%s", want, text)
		}
	}
}

func TestExecuteReportJSON(t *testing.T) {
	path := writeResults(t)

	var out bytes.Buffer
	if err := executeReport(path, "json", &out); err != nil {
		t.Fatalf("executeReport failed: %v", err)
	}
	var records []models.ExtractionRecord
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	if len(records) != 2 || records[0].SourceFilename != "a.pdf" {
		t.Errorf("Unexpected records %+v", records)
	}
}

func TestExecuteReportErrors(t *testing.T) {
	path := writeResults(t)

	if err := executeReport(path, "html", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if err := executeReport(filepath.Join(t.TempDir(), "missing.json"), "text", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for missing results")
	}
}

func TestExecuteExport(t *testing.T) {
	path := writeResults(t)
	output := filepath.Join(t.TempDir(), "results.csv")

	var out bytes.Buffer
	if err := executeExport(context.Background(), path, "csv", output, &out); err != nil {
		t.Fatalf("executeExport failed: %v", err)
	}
	if want := "Exported 2 records to " + output; !strings.Contains(out.String(), want) {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 3 {
		t.Errorf("Expected header plus 2 rows, got %d lines", len(lines))
	}
}
