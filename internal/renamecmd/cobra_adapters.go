package renamecmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/config"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/export"
)

// runFlags mirrors the configuration values the command line can override
type runFlags struct {
	configPath        string
	noCopy            bool
	force             bool
	maxPages          int
	dpi               int
	provider          string
	model             string
	rasterizer        string
	imageFormat       string
	results           string
	filenameFormat    string
	maxFilenameLength int
	maxRetries        int
}

func (f *runFlags) register(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&f.noCopy, "no-copy", false, "Only record proposed names; do not copy files")
	cmd.Flags().BoolVar(&f.force, "force", false, "Reprocess files that already have a result and skip confirmations")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", defaults.Processing.MaxPages, "Number of leading pages to analyze")
	cmd.Flags().IntVar(&f.dpi, "dpi", defaults.Processing.DPI, "Rasterization resolution")
	cmd.Flags().StringVar(&f.provider, "provider", defaults.Inference.Provider, "LLM provider (gemini, openai, or ollama)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().StringVar(&f.rasterizer, "rasterizer", defaults.Rasterize.Backend, "PDF rasterizer (mupdf or poppler)")
	cmd.Flags().StringVar(&f.imageFormat, "image-format", defaults.Rasterize.ImageFormat, "Page image format sent to the model (jpeg or png)")
	cmd.Flags().StringVar(&f.results, "results", "", "Path to the results file (default: "+config.ResultsFilename+" in the output or source directory)")
	cmd.Flags().StringVar(&f.filenameFormat, "filename-format", defaults.Naming.Template, "Go template for output names over .Year, .Author and .Title (sprig functions available)")
	cmd.Flags().IntVar(&f.maxFilenameLength, "max-filename-length", defaults.Naming.MaxLength, "Maximum filename length without extension")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", defaults.Retry.MaxRetries, "Total inference attempts per file")
}

// resolve layers explicitly set flags and positional arguments over the loaded config
func (f *runFlags) resolve(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("no-copy") {
		cfg.Processing.CopyEnabled = !f.noCopy
	}
	if changed("force") {
		cfg.Processing.Force = f.force
	}
	if changed("max-pages") {
		cfg.Processing.MaxPages = f.maxPages
	}
	if changed("dpi") {
		cfg.Processing.DPI = f.dpi
	}
	if changed("provider") {
		cfg.Inference.Provider = f.provider
	}
	if changed("model") {
		cfg.Inference.Model = f.model
	}
	if changed("rasterizer") {
		cfg.Rasterize.Backend = f.rasterizer
	}
	if changed("image-format") {
		cfg.Rasterize.ImageFormat = f.imageFormat
	}
	if changed("results") {
		cfg.Processing.ResultFile = f.results
	}
	if changed("filename-format") {
		cfg.Naming.Template = f.filenameFormat
	}
	if changed("max-filename-length") {
		cfg.Naming.MaxLength = f.maxFilenameLength
	}
	if changed("max-retries") {
		cfg.Retry.MaxRetries = f.maxRetries
	}

	if len(args) > 1 {
		cfg.Processing.OutputDir = args[1]
	}
	return cfg, nil
}

// NewRunCmd creates the rename command that processes a directory of PDFs
func NewRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "pdf-renamer <source_dir> [output_dir]",
		Short: "Name PDFs after their title, author and year using a vision LLM",
		Long: `pdf-renamer renders the first pages of every PDF in a directory, asks a vision
model for the document's title, first author and publication year, and copies each
file into the output directory as "{year} - {author} - {title}.pdf".

Source files are never modified. Results are recorded in a JSON file so an
interrupted run resumes where it stopped; files with a successful result are
skipped unless --force is given.`,
		Example: `  # Copy renamed files into ./renamed using Gemini
  pdf-renamer ./papers ./renamed

  # Only record proposed names, using a local Ollama model
  pdf-renamer ./papers --no-copy --provider ollama

  # Analyze more pages with OpenAI and a custom name format
  pdf-renamer ./papers ./renamed --provider openai --max-pages 4 \
    --filename-format '{{.Author}} ({{.Year}}) {{.Title | title}}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), cfg, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("provider", cobra.FixedCompletions([]string{"gemini", "openai", "ollama"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("rasterizer", cobra.FixedCompletions([]string{"mupdf", "poppler"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// NewReportCmd creates the results report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Print the records of a results file",
		Example: `  pdf-renamer results report ./renamed/pdf_metadata_results.json
  pdf-renamer results report ./renamed/pdf_metadata_results.json --format csv > results.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(args[0], format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or csv)")
	return cmd
}

// NewExportCmd creates the results export command
func NewExportCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export <results.json>",
		Short: "Export a results file to another format",
		Example: `  pdf-renamer results export ./renamed/pdf_metadata_results.json --format xlsx --output results.xlsx
  pdf-renamer results export ./renamed/pdf_metadata_results.json --format sqlite --output catalog.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !export.Supported(format) {
				return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(export.Formats, ", "))
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], ".json") + "." + format
				if format == "sqlite" {
					output = strings.TrimSuffix(args[0], ".json") + ".db"
				}
			}
			return executeExport(cmd.Context(), args[0], format, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format ("+strings.Join(export.Formats, ", ")+")")
	cmd.Flags().StringVar(&output, "output", "", "Output path (default: next to the results file)")
	return cmd
}

// NewCheckCmd creates the check command that verifies a setup before a run
func NewCheckCmd() *cobra.Command {
	var configPath string
	var provider string
	var rasterizer string
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "check [source_dir]",
		Short: "Verify credentials, the rasterizer and the PDFs to process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("provider") {
				cfg.Inference.Provider = provider
			}
			if cmd.Flags().Changed("rasterizer") {
				cfg.Rasterize.Backend = rasterizer
			}

			sourceDir := ""
			if len(args) == 1 {
				sourceDir = args[0]
			}
			return executeCheck(cfg, sourceDir, defaultLookPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&provider, "provider", defaults.Inference.Provider, "LLM provider (gemini, openai, or ollama)")
	cmd.Flags().StringVar(&rasterizer, "rasterizer", defaults.Rasterize.Backend, "PDF rasterizer (mupdf or poppler)")
	return cmd
}
