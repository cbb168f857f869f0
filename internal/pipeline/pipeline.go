package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/cataloging"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/naming"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/rasterize"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/retry"
)

// Extractor is the inference step; cataloging.Service implements it
type Extractor interface {
	ExtractMetadata(ctx context.Context, pages []rasterize.Page) (cataloging.BookMetadata, error)
	Provider() string
	Model() string
}

// Store persists one record per source file
type Store interface {
	Upsert(rec models.ExtractionRecord) error
}

// Options are the per-file settings taken from the run configuration
type Options struct {
	Rasterize   rasterize.Options
	OutputDir   string
	CopyEnabled bool
}

// Components are the collaborators a Processor drives
type Components struct {
	Rasterizer rasterize.Rasterizer
	Extractor  Extractor
	Retrier    *retry.Retrier
	Naming     *naming.Policy
	Store      Store
	Logger     *slog.Logger
	RunID      string
	// Now defaults to time.Now
	Now func() time.Time
}

// Processor runs the per-file pipeline
type Processor struct {
	Components
	opts Options
}

func New(c Components, opts Options) *Processor {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Processor{Components: c, opts: opts}
}

// Process rasterizes, identifies, names and optionally copies one PDF, then
// upserts the outcome. Per-file failures are reported in the record; the
// returned error is non-nil only when the record itself could not be saved.
func (p *Processor) Process(ctx context.Context, path string) (models.ExtractionRecord, error) {
	name := filepath.Base(path)
	logger := p.Logger.With("file", name)

	rec := models.ExtractionRecord{
		SourceFilename: name,
		Provider:       p.Extractor.Provider(),
		Model:          p.Extractor.Model(),
		RunID:          p.RunID,
	}

	start := p.Now()
	if err := p.run(ctx, path, &rec, logger); err != nil {
		rec.Title, rec.Author, rec.Year = "", "", ""
		rec.Copied = false
		rec.Error = err.Error()
		rec.ErrorKind = models.KindOf(err)
		logger.Error("Failed to process file", "kind", rec.ErrorKind, "error", err)
	} else {
		logger.Info("Processed file",
			"output", rec.OutputFilename,
			"copied", rec.Copied,
			"elapsed", p.Now().Sub(start).Round(time.Millisecond))
	}

	rec.Stamp(p.Now())
	if err := p.Store.Upsert(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (p *Processor) run(ctx context.Context, path string, rec *models.ExtractionRecord, logger *slog.Logger) error {
	pages, err := p.Rasterizer.Rasterize(ctx, path, p.opts.Rasterize)
	if err != nil {
		return models.NewError(models.KindRasterization, "rasterize", err)
	}
	rec.Pages = len(pages)
	logger.Debug("Rasterized pages", "pages", len(pages))

	raw, err := retry.Do(ctx, p.Retrier, rec.SourceFilename, func(ctx context.Context) (cataloging.BookMetadata, error) {
		return p.Extractor.ExtractMetadata(ctx, pages)
	})
	if err != nil {
		if retry.IsExhausted(err) {
			logger.Warn("Gave up on inference", "error", err)
		}
		return models.NewError(models.KindInference, "extract metadata", err)
	}

	md := cataloging.Normalize(raw)
	rec.Title, rec.Author, rec.Year = md.Title, md.Author, md.Year

	filename, err := p.Naming.Filename(md)
	if err != nil {
		return models.NewError(models.KindConfiguration, "make filename", err)
	}

	if !p.opts.CopyEnabled {
		rec.OutputFilename = filename
		return nil
	}

	filename, err = p.Naming.Unique(p.opts.OutputDir, filename)
	if err != nil {
		return models.NewError(models.KindFilesystem, "resolve collision", err)
	}
	if err := CopyFile(path, p.opts.OutputDir, filename); err != nil {
		return models.NewError(models.KindFilesystem, "copy", err)
	}
	rec.OutputFilename = filename
	rec.Copied = true
	return nil
}
