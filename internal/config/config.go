package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/naming"
)

const (
	DefaultMaxPages          = 2
	DefaultDPI               = 200
	DefaultMaxFilenameLength = 100
	DefaultMaxRetries        = 3
	DefaultBaseDelay         = 60 * time.Second
	DefaultMinInterval       = 6 * time.Second
	DefaultTimeout           = 120 * time.Second
	DefaultTemperature       = 0.1
	DefaultJPEGQuality       = 85
	DefaultFilenameTemplate  = "{{.Year}} - {{.Author}} - {{.Title}}"
	ResultsFilename          = "pdf_metadata_results.json"

	// LargePageCount is the max-pages value above which a run asks for confirmation.
	LargePageCount = 10
)

// Providers and their default models
var defaultModels = map[string]string{
	"gemini": "gemini-2.5-flash-preview-05-20",
	"openai": "gpt-4o-mini",
	"ollama": "mistral-small3.2:24b",
}

var credentialEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// Processing holds the per-run processing settings
type Processing struct {
	MaxPages    int    `yaml:"max_pages"`
	DPI         int    `yaml:"dpi"`
	OutputDir   string `yaml:"output_dir"`
	ResultFile  string `yaml:"result_file"`
	CopyEnabled bool   `yaml:"copy_enabled"`
	Force       bool   `yaml:"force"`
}

// Rasterize selects and tunes the PDF rasterizer backend
type Rasterize struct {
	Backend     string `yaml:"backend"`
	ImageFormat string `yaml:"image_format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
	Pdftoppm    string `yaml:"pdftoppm"`
}

// Inference configures the metadata provider
type Inference struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"-"`
}

// Retry configures pacing and backoff around inference calls
type Retry struct {
	MaxRetries  int           `yaml:"max_retries"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// Naming configures the output filename policy
type Naming struct {
	MaxLength int    `yaml:"max_length"`
	Template  string `yaml:"template"`
}

// Config is the complete, immutable configuration of a run
type Config struct {
	Processing Processing `yaml:"processing"`
	Rasterize  Rasterize  `yaml:"rasterize"`
	Inference  Inference  `yaml:"inference"`
	Retry      Retry      `yaml:"retry"`
	Naming     Naming     `yaml:"naming"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Processing: Processing{
			MaxPages:    DefaultMaxPages,
			DPI:         DefaultDPI,
			CopyEnabled: true,
		},
		Rasterize: Rasterize{
			Backend:     "mupdf",
			ImageFormat: "jpeg",
			JPEGQuality: DefaultJPEGQuality,
			Pdftoppm:    "pdftoppm",
		},
		Inference: Inference{
			Provider:    "gemini",
			Temperature: DefaultTemperature,
			Timeout:     DefaultTimeout,
		},
		Retry: Retry{
			MaxRetries:  DefaultMaxRetries,
			BaseDelay:   DefaultBaseDelay,
			MinInterval: DefaultMinInterval,
		},
		Naming: Naming{
			MaxLength: DefaultMaxFilenameLength,
			Template:  DefaultFilenameTemplate,
		},
	}
}

// Load layers an optional YAML file and the environment over the defaults.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, models.Configf("failed to read config file %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, models.Configf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Inference.Provider = getEnv("PDF_RENAMER_PROVIDER", cfg.Inference.Provider)
	cfg.Inference.Model = getEnv("PDF_RENAMER_MODEL", cfg.Inference.Model)
	cfg.Processing.MaxPages = getEnvAsInt("PDF_RENAMER_MAX_PAGES", cfg.Processing.MaxPages)
	cfg.Processing.DPI = getEnvAsInt("PDF_RENAMER_DPI", cfg.Processing.DPI)
	cfg.Rasterize.Backend = getEnv("PDF_RENAMER_RASTERIZER", cfg.Rasterize.Backend)
	cfg.Retry.MinInterval = getEnvAsDuration("PDF_RENAMER_MIN_INTERVAL", cfg.Retry.MinInterval)
	cfg.Retry.BaseDelay = getEnvAsDuration("PDF_RENAMER_RETRY_BASE_DELAY", cfg.Retry.BaseDelay)
}

// Finalize fills values that depend on other settings: the provider's default
// model and base URL, the credential, and the results file location.
func (c Config) Finalize(sourceDir string) Config {
	if c.Inference.Model == "" {
		c.Inference.Model = defaultModels[c.Inference.Provider]
	}
	switch c.Inference.Provider {
	case "ollama":
		if c.Inference.BaseURL == "" {
			c.Inference.BaseURL = getEnv("OLLAMA_URL", "http://localhost:11434")
		}
	case "openai":
		if c.Inference.BaseURL == "" {
			c.Inference.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
	}
	if key, ok := credentialEnv[c.Inference.Provider]; ok {
		c.Inference.APIKey = os.Getenv(key)
	}

	if c.Processing.ResultFile == "" {
		dir := sourceDir
		if c.Processing.CopyEnabled && c.Processing.OutputDir != "" {
			dir = c.Processing.OutputDir
		}
		c.Processing.ResultFile = filepath.Join(dir, ResultsFilename)
	}
	return c
}

// CredentialEnv returns the environment variable holding the provider's credential,
// or "" when the provider needs none.
func CredentialEnv(provider string) string {
	return credentialEnv[provider]
}

// Validate checks the configuration before any file is processed
func (c Config) Validate() error {
	if c.Processing.MaxPages < 1 {
		return models.Configf("max pages must be at least 1, got %d", c.Processing.MaxPages)
	}
	if c.Processing.DPI < 1 {
		return models.Configf("dpi must be positive, got %d", c.Processing.DPI)
	}
	if c.Processing.CopyEnabled && c.Processing.OutputDir == "" {
		return models.Configf("an output directory is required unless copying is disabled")
	}
	if c.Naming.MaxLength < 10 {
		return models.Configf("max filename length must be at least 10, got %d", c.Naming.MaxLength)
	}
	if _, err := naming.NewPolicy(c.Naming.MaxLength, c.Naming.Template); err != nil {
		return models.Configf("invalid filename format: %w", err)
	}
	if c.Retry.MaxRetries < 1 {
		return models.Configf("max retries must be at least 1, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MinInterval < 0 {
		return models.Configf("retry delays must not be negative")
	}

	switch c.Rasterize.Backend {
	case "mupdf", "poppler":
	default:
		return models.Configf("unsupported rasterizer: %s (supported: mupdf, poppler)", c.Rasterize.Backend)
	}
	switch c.Rasterize.ImageFormat {
	case "jpeg", "png":
	default:
		return models.Configf("unsupported image format: %s (supported: jpeg, png)", c.Rasterize.ImageFormat)
	}
	if c.Rasterize.JPEGQuality < 1 || c.Rasterize.JPEGQuality > 100 {
		return models.Configf("jpeg quality must be between 1 and 100, got %d", c.Rasterize.JPEGQuality)
	}

	if _, ok := defaultModels[c.Inference.Provider]; !ok {
		return models.Configf("unsupported provider: %s (supported: gemini, openai, ollama)", c.Inference.Provider)
	}
	if key := CredentialEnv(c.Inference.Provider); key != "" && c.Inference.APIKey == "" {
		return models.Configf("%s environment variable not set", key)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// String renders the settings that matter for a run log line
func (c Config) String() string {
	return fmt.Sprintf("provider=%s model=%s max_pages=%d dpi=%d copy=%t force=%t",
		c.Inference.Provider, c.Inference.Model, c.Processing.MaxPages, c.Processing.DPI,
		c.Processing.CopyEnabled, c.Processing.Force)
}
