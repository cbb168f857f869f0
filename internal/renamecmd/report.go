package renamecmd

import (
	"context"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/export"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/storage"
)

func executeReport(resultsPath, format string, out io.Writer) error {
	records, err := storage.ReadRecords(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(out, resultsPath, records)
	case "json":
		return export.WriteJSON(out, records)
	case "csv":
		return export.WriteCSV(out, records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(out io.Writer, resultsPath string, records []models.ExtractionRecord) error {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "PDF Metadata Report")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Results: %s\n", resultsPath)

	var succeeded, failed, copied int
	kinds := make(map[models.ErrorKind]int)

	for i, rec := range records {
		fmt.Fprintf(out, "\n[%d] %s\n", i+1, rec.SourceFilename)
		if rec.Failed() {
			failed++
			kinds[rec.ErrorKind]++
			fmt.Fprintf(out, "  ❌ Error: %s\n", truncate(rec.Error, 200))
			continue
		}

		succeeded++
		md := rec.Metadata()
		fmt.Fprintf(out, "  Title:  %s\n", md.Title)
		fmt.Fprintf(out, "  Author: %s\n", md.Author)
		fmt.Fprintf(out, "  Year:   %s\n", md.Year)
		fmt.Fprintf(out, "  Output: %s\n", rec.OutputFilename)
		if rec.Copied {
			copied++
		}
		if rec.Provider != "" {
			fmt.Fprintf(out, "  Model:  %s/%s (%d pages)\n", rec.Provider, rec.Model, rec.Pages)
		}
	}

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Total Records:  %d\n", len(records))
	fmt.Fprintf(out, "Successful:     %d\n", succeeded)
	fmt.Fprintf(out, "Failed:         %d\n", failed)
	fmt.Fprintf(out, "Copied:         %d\n", copied)
	for _, kind := range []models.ErrorKind{models.KindRasterization, models.KindInference, models.KindFilesystem, models.KindConfiguration} {
		if n := kinds[kind]; n > 0 {
			fmt.Fprintf(out, "  %s: %d\n", kind, n)
		}
	}
	if n := kinds[""]; n > 0 {
		fmt.Fprintf(out, "  unclassified: %d\n", n)
	}
	return nil
}

func executeExport(ctx context.Context, resultsPath, format, outputPath string, out io.Writer) error {
	records, err := storage.ReadRecords(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	if err := export.ToFile(ctx, format, records, outputPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d records to %s\n", len(records), outputPath)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
