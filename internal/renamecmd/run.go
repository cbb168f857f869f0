package renamecmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/batch"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/cataloging"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/config"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/gemini"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/naming"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/ollama"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/openai"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/pipeline"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/rasterize"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/retry"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/storage"
)

// SetupLogging installs the default text logger on stderr
func SetupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// executeRun processes every PDF in sourceDir. Only configuration problems and
// failures to save results are returned; per-file failures end up in the results file.
func executeRun(ctx context.Context, cfg config.Config, sourceDir string, in io.Reader, out io.Writer) error {
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)

	if err := checkSourceDir(sourceDir); err != nil {
		return err
	}

	cfg = cfg.Finalize(sourceDir)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Processing.MaxPages > config.LargePageCount && !cfg.Processing.Force {
		if !confirmLargeRun(in, out, cfg.Processing.MaxPages) {
			return models.Configf("aborted: processing %d pages per file was not confirmed", cfg.Processing.MaxPages)
		}
	}

	if cfg.Processing.CopyEnabled {
		if err := os.MkdirAll(cfg.Processing.OutputDir, 0o755); err != nil {
			return models.Configf("failed to create output directory %s: %w", cfg.Processing.OutputDir, err)
		}
	}

	store, err := storage.Open(cfg.Processing.ResultFile)
	if err != nil {
		return err
	}

	runner, err := buildRunner(cfg, store, runID, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting run", "source", sourceDir, "results", cfg.Processing.ResultFile, "config", cfg.String())
	summary, err := runner.Run(ctx, sourceDir)
	printSummary(out, summary, cfg.Processing.ResultFile)
	if err != nil {
		return err
	}
	logger.Info("Run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"copied", summary.Copied)
	return nil
}

func checkSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return models.Configf("source directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return models.Configf("source %s is not a directory", dir)
	}
	return nil
}

// buildRunner wires the configured components into a batch runner
func buildRunner(cfg config.Config, store *storage.ResultStore, runID string, logger *slog.Logger) (*batch.Runner, error) {
	provider, err := newProvider(cfg.Inference)
	if err != nil {
		return nil, err
	}

	rasterizer, err := rasterize.New(cfg.Rasterize.Backend, cfg.Rasterize.Pdftoppm, logger)
	if err != nil {
		return nil, models.Configf("%w", err)
	}

	policy, err := naming.NewPolicy(cfg.Naming.MaxLength, cfg.Naming.Template)
	if err != nil {
		return nil, models.Configf("%w", err)
	}

	service := cataloging.NewService(provider, cataloging.Options{
		Model:       cfg.Inference.Model,
		Temperature: cfg.Inference.Temperature,
		Timeout:     cfg.Inference.Timeout,
	}, logger)

	retrier := retry.New(retry.Policy{
		MaxRetries:  cfg.Retry.MaxRetries,
		BaseDelay:   cfg.Retry.BaseDelay,
		MinInterval: cfg.Retry.MinInterval,
	}, retry.WithLogger(logger))

	processor := pipeline.New(pipeline.Components{
		Rasterizer: rasterizer,
		Extractor:  service,
		Retrier:    retrier,
		Naming:     policy,
		Store:      store,
		Logger:     logger,
		RunID:      runID,
	}, pipeline.Options{
		Rasterize: rasterize.Options{
			MaxPages:    cfg.Processing.MaxPages,
			DPI:         cfg.Processing.DPI,
			Format:      cfg.Rasterize.ImageFormat,
			JPEGQuality: cfg.Rasterize.JPEGQuality,
		},
		OutputDir:   cfg.Processing.OutputDir,
		CopyEnabled: cfg.Processing.CopyEnabled,
	})

	outputDir := ""
	if cfg.Processing.CopyEnabled {
		outputDir = cfg.Processing.OutputDir
	}
	return batch.NewRunner(processor, store, outputDir, cfg.Processing.Force, runID, logger), nil
}

func newProvider(cfg config.Inference) (providers.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(cfg.APIKey), nil
	case "openai":
		return openai.New(cfg.APIKey, cfg.BaseURL), nil
	case "ollama":
		return ollama.New(cfg.BaseURL), nil
	default:
		return nil, models.Configf("unsupported provider: %s (supported: gemini, openai, ollama)", cfg.Provider)
	}
}

// confirmLargeRun asks before rasterizing many pages per file
func confirmLargeRun(in io.Reader, out io.Writer, maxPages int) bool {
	fmt.Fprintf(out, "Processing %d pages per PDF is slow and uses many tokens.\n", maxPages)
	fmt.Fprint(out, "Continue? (y/N) ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func printSummary(out io.Writer, summary models.Summary, resultFile string) {
	if len(summary.Records) > 0 {
		fmt.Fprintln(out, "\n========================================")
		fmt.Fprintln(out, "Files")
		fmt.Fprintln(out, "========================================")
	}
	for _, rec := range summary.Records {
		fmt.Fprintf(out, "\n%s\n", rec.SourceFilename)
		if rec.Failed() {
			fmt.Fprintf(out, "  ❌ Error: %s\n", rec.Error)
			continue
		}
		md := rec.Metadata()
		fmt.Fprintf(out, "  Title:  %s\n", md.Title)
		fmt.Fprintf(out, "  Author: %s\n", md.Author)
		fmt.Fprintf(out, "  Year:   %s\n", md.Year)
		if rec.Copied {
			fmt.Fprintf(out, "  Copied: %s\n", rec.OutputFilename)
		} else {
			fmt.Fprintf(out, "  Name:   %s\n", rec.OutputFilename)
		}
	}

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Total:      %d\n", summary.Total())
	fmt.Fprintf(out, "Processed:  %d\n", summary.Processed)
	fmt.Fprintf(out, "Skipped:    %d\n", summary.Skipped)
	fmt.Fprintf(out, "Failed:     %d\n", summary.Failed)
	fmt.Fprintf(out, "Copied:     %d\n", summary.Copied)
	fmt.Fprintf(out, "\nResults saved to: %s\n", resultFile)
}
