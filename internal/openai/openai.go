package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	apiKey  string
	baseURL string
}

// New returns a new OpenAI provider. An empty key falls back to OPENAI_API_KEY;
// an empty baseURL uses the public endpoint.
func New(apiKey, baseURL string) *OpenAI {
	return &OpenAI{apiKey: apiKey, baseURL: baseURL}
}

func (o *OpenAI) Name() string {
	return "openai"
}

// ExtractText sends the prompt and page images as one multi-part user message
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := o.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("OPENAI_API_KEY environment variable not set"))
	}

	clientConfig := goopenai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		clientConfig.BaseURL = o.baseURL
	}
	client := goopenai.NewClientWithConfig(clientConfig)

	parts := []goopenai.ChatMessagePart{
		{
			Type: goopenai.ChatMessagePartTypeText,
			Text: config.Prompt,
		},
	}
	for _, img := range config.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
				Detail: goopenai.ImageURLDetailAuto,
			},
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       config.Model,
		Temperature: float32(config.Temperature),
		MaxTokens:   1000,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:         goopenai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	}
	if config.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(fmt.Errorf("failed to create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", providers.Wrap(providers.Fatal, fmt.Errorf("no choices returned from OpenAI"))
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps OpenAI API failures onto retry classes
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return providers.Wrap(providers.ClassForStatus(apiErr.HTTPStatusCode), err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return providers.Wrap(providers.ClassForStatus(reqErr.HTTPStatusCode), err)
	}

	return providers.Wrap(providers.Classify(err), err)
}
