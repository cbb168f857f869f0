package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// Formats lists the supported export formats
var Formats = []string{"csv", "json", "yaml", "parquet", "xlsx", "sqlite"}

// Columns is the column order shared by the tabular formats
var Columns = []string{
	"source_filename",
	"title",
	"author",
	"year",
	"output_filename",
	"copied",
	"error",
	"error_kind",
	"provider",
	"model",
	"pages",
	"run_id",
	"timestamp",
}

// Row is the flat form of a record used by the tabular and columnar formats
type Row struct {
	SourceFilename string `yaml:"source_filename" parquet:"source_filename"`
	Title          string `yaml:"title" parquet:"title"`
	Author         string `yaml:"author" parquet:"author"`
	Year           string `yaml:"year" parquet:"year"`
	OutputFilename string `yaml:"output_filename" parquet:"output_filename"`
	Copied         bool   `yaml:"copied" parquet:"copied"`
	Error          string `yaml:"error,omitempty" parquet:"error"`
	ErrorKind      string `yaml:"error_kind,omitempty" parquet:"error_kind"`
	Provider       string `yaml:"provider" parquet:"provider"`
	Model          string `yaml:"model" parquet:"model"`
	Pages          int64  `yaml:"pages" parquet:"pages"`
	RunID          string `yaml:"run_id" parquet:"run_id"`
	Timestamp      string `yaml:"timestamp" parquet:"timestamp"`
}

// NewRow flattens a record
func NewRow(rec models.ExtractionRecord) Row {
	return Row{
		SourceFilename: rec.SourceFilename,
		Title:          rec.Title,
		Author:         rec.Author,
		Year:           rec.Year,
		OutputFilename: rec.OutputFilename,
		Copied:         rec.Copied,
		Error:          rec.Error,
		ErrorKind:      string(rec.ErrorKind),
		Provider:       rec.Provider,
		Model:          rec.Model,
		Pages:          int64(rec.Pages),
		RunID:          rec.RunID,
		Timestamp:      rec.Timestamp,
	}
}

// Values returns the row's cells in Columns order
func (r Row) Values() []string {
	return []string{
		r.SourceFilename,
		r.Title,
		r.Author,
		r.Year,
		r.OutputFilename,
		strconv.FormatBool(r.Copied),
		r.Error,
		r.ErrorKind,
		r.Provider,
		r.Model,
		strconv.FormatInt(r.Pages, 10),
		r.RunID,
		r.Timestamp,
	}
}

func rows(records []models.ExtractionRecord) []Row {
	out := make([]Row, len(records))
	for i, rec := range records {
		out[i] = NewRow(rec)
	}
	return out
}

// Supported reports whether format is one of Formats
func Supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ToFile writes records to path in the given format. SQLite exports upsert into
// an existing database; every other format replaces the file.
func ToFile(ctx context.Context, format string, records []models.ExtractionRecord, path string) error {
	start := time.Now()
	format = strings.ToLower(format)
	if !Supported(format) {
		return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}

	var err error
	if format == "sqlite" {
		err = WriteSQLite(ctx, path, records)
	} else {
		err = writeFile(path, func(w io.Writer) error {
			return Write(format, w, records)
		})
	}
	if err != nil {
		return err
	}

	slog.Info("Exported results",
		"format", format,
		"path", path,
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// Write encodes records to w in any format except sqlite
func Write(format string, w io.Writer, records []models.ExtractionRecord) error {
	switch format {
	case "csv":
		return WriteCSV(w, records)
	case "json":
		return WriteJSON(w, records)
	case "yaml":
		return WriteYAML(w, records)
	case "parquet":
		return WriteParquet(w, records)
	case "xlsx":
		return WriteXLSX(w, records)
	case "sqlite":
		return fmt.Errorf("sqlite exports need a file path")
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteCSV writes a header row followed by one row per record
func WriteCSV(w io.Writer, records []models.ExtractionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, r := range rows(records) {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("csv write: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array
func WriteJSON(w io.Writer, records []models.ExtractionRecord) error {
	if records == nil {
		records = []models.ExtractionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// WriteYAML writes the records as a YAML sequence
func WriteYAML(w io.Writer, records []models.ExtractionRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows(records)); err != nil {
		return fmt.Errorf("yaml write: %w", err)
	}
	return enc.Close()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
