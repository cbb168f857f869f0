package cataloging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/rasterize"
)

// Service asks a vision model for the bibliographic metadata of page images
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// Options tunes the requests a Service makes
type Options struct {
	Model       string
	Temperature float64
	// Timeout bounds a single provider request; zero means no limit.
	Timeout time.Duration
}

func NewService(provider providers.Provider, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:    provider,
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		logger:      logger,
	}
}

// Provider returns the name of the underlying provider
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Model returns the model requests are sent to
func (s *Service) Model() string {
	return s.model
}

// ExtractMetadata makes one provider request for the given pages.
// Errors carry a providers.Class; a response that cannot be parsed is Fatal.
func (s *Service) ExtractMetadata(ctx context.Context, pages []rasterize.Page) (BookMetadata, error) {
	if len(pages) == 0 {
		return BookMetadata{}, providers.Wrap(providers.Fatal, fmt.Errorf("no page images to analyze"))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	images := make([]providers.Image, 0, len(pages))
	for _, page := range pages {
		images = append(images, providers.Image{MIMEType: page.MIMEType, Data: page.Data})
	}

	start := time.Now()
	response, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      BuildPrompt(len(pages)),
		Images:      images,
		JSON:        true,
	})
	if err != nil {
		return BookMetadata{}, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	metadata, err := ParseResponse(response)
	if err != nil {
		s.logger.Debug("Unparseable model response", "provider", s.provider.Name(), "response", truncate(response, 500))
		return BookMetadata{}, providers.Wrap(providers.Fatal, err)
	}

	s.logger.Debug("Extracted metadata",
		"provider", s.provider.Name(),
		"model", s.model,
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds())
	return metadata, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
