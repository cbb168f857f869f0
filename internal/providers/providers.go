package providers

import (
	"context"
)

// Image is one rasterized page handed to a vision model
type Image struct {
	MIMEType string
	Data     []byte
}

// Config represents the configuration for a single provider request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
	// JSON asks the provider to constrain its output to a JSON object when it can.
	JSON bool
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	Name() string
	ExtractText(ctx context.Context, config Config) (string, error)
}
