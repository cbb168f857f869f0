package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider. An empty key falls back to GEMINI_API_KEY.
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

func (g *Gemini) Name() string {
	return "gemini"
}

// ExtractText sends the prompt and page images to Gemini and returns the text answer
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := g.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("GEMINI_API_KEY environment variable not set"))
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("failed to create new gemini client: %w", err))
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.JSON {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = responseSchema()
	}

	parts := make([]genai.Part, 0, len(config.Images)+1)
	parts = append(parts, genai.Text(config.Prompt))
	for _, img := range config.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classify(fmt.Errorf("failed to generate content: %w", err))
	}

	if len(resp.Candidates) == 0 {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("no candidates returned from Gemini"))
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("empty content returned from Gemini (finish reason %s)", candidate.FinishReason))
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("unexpected response format from Gemini"))
	}

	return sb.String(), nil
}

// responseSchema constrains JSON answers to the title, author list and year
func responseSchema() *genai.Schema {
	text := &genai.Schema{Type: genai.TypeString, Nullable: true}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":  text,
			"author": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Nullable: true},
			"year":   text,
		},
		Required: []string{"title", "author", "year"},
	}
}

// classify maps Gemini API failures onto retry classes
func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return providers.Wrap(providers.Fatal, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return providers.Wrap(providers.ClassForStatus(gerr.Code), err)
	}

	return providers.Wrap(providers.Classify(err), err)
}
