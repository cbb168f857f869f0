package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// FileProcessor handles one source file; pipeline.Processor implements it
type FileProcessor interface {
	Process(ctx context.Context, path string) (models.ExtractionRecord, error)
}

// Skipper reports files that already have a successful record and the
// copies earlier runs wrote.
type Skipper interface {
	ContainsSuccess(sourceFilename string) bool
	IsOutput(filename string) bool
}

// Runner drives a processor over every PDF in a directory
type Runner struct {
	processor FileProcessor
	results   Skipper
	outputDir string
	force     bool
	runID     string
	logger    *slog.Logger
}

// NewRunner returns a runner. outputDir is where copies are written, or empty
// when copying is off.
func NewRunner(processor FileProcessor, results Skipper, outputDir string, force bool, runID string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		processor: processor,
		results:   results,
		outputDir: outputDir,
		force:     force,
		runID:     runID,
		logger:    logger,
	}
}

// Run processes the PDFs of sourceDir in lexical order, one at a time.
// Files with a successful record are skipped unless force is set. Per-file
// failures are counted, not returned; the error is non-nil when the directory
// cannot be listed, a record cannot be saved, or ctx is canceled.
func (r *Runner) Run(ctx context.Context, sourceDir string) (models.Summary, error) {
	summary := models.Summary{RunID: r.runID}

	files, err := Candidates(sourceDir)
	if err != nil {
		return summary, err
	}
	if r.outputDir != "" && sameDir(sourceDir, r.outputDir) {
		files = r.withoutOutputs(files)
	}
	r.logger.Info("Found PDF files", "dir", sourceDir, "count", len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Run interrupted", "remaining", len(files)-i)
			return summary, err
		}

		name := filepath.Base(path)
		if !r.force && r.results.ContainsSuccess(name) {
			r.logger.Debug("Skipping file with existing result", "file", name)
			summary.Skipped++
			continue
		}

		r.logger.Info("Processing file", "file", name, "index", i+1, "total", len(files))
		rec, err := r.processor.Process(ctx, path)
		if err != nil {
			return summary, fmt.Errorf("failed to save result for %s: %w", name, err)
		}

		summary.Records = append(summary.Records, rec)
		if rec.Failed() {
			summary.Failed++
		} else {
			summary.Processed++
		}
		if rec.Copied {
			summary.Copied++
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// withoutOutputs drops the copies earlier runs wrote next to their sources.
// They are dropped even with force so a rerun never renames its own output.
func (r *Runner) withoutOutputs(files []string) []string {
	kept := files[:0:0]
	for _, path := range files {
		name := filepath.Base(path)
		if r.results.IsOutput(name) {
			r.logger.Debug("Skipping renamed copy", "file", name)
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

func sameDir(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// Candidates lists the regular files in dir with a .pdf extension in any case,
// sorted lexically by name. Subdirectories are not searched.
func Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, models.NewError(models.KindConfiguration, "list source directory", err)
	}

	var names []string
	for _, entry := range entries {
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
