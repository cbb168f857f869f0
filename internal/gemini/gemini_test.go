package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected providers.Class
	}{
		{"quota exhausted", fmt.Errorf("generate: %w", &googleapi.Error{Code: 429, Message: "Resource has been exhausted"}), providers.RateLimited},
		{"overloaded", &googleapi.Error{Code: 503, Message: "The model is overloaded"}, providers.Transient},
		{"bad request", &googleapi.Error{Code: 400, Message: "Request payload size exceeds the limit"}, providers.Fatal},
		{"deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), providers.Transient},
		{"unknown", errors.New("something odd"), providers.Fatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providers.Classify(classify(tt.err))
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestExtractTextRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New("").ExtractText(context.Background(), providers.Config{Model: "gemini-test", Prompt: "hi"})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	if providers.Classify(err) != providers.Fatal {
		t.Errorf("Expected missing key to be fatal, got %s", providers.Classify(err))
	}
}

func TestResponseSchema(t *testing.T) {
	schema := responseSchema()
	if schema.Type != genai.TypeObject {
		t.Fatalf("Expected object schema, got %v", schema.Type)
	}

	tests := []struct {
		field    string
		expected genai.Type
	}{
		{"title", genai.TypeString},
		{"author", genai.TypeArray},
		{"year", genai.TypeString},
	}
	for _, tt := range tests {
		prop, ok := schema.Properties[tt.field]
		if !ok {
			t.Errorf("Expected %s property", tt.field)
			continue
		}
		if prop.Type != tt.expected {
			t.Errorf("Expected %s to be %v, got %v", tt.field, tt.expected, prop.Type)
		}
	}
	if items := schema.Properties["author"].Items; items == nil || items.Type != genai.TypeString {
		t.Error("Expected author items to be strings")
	}
	if len(schema.Required) != 3 {
		t.Errorf("Expected every field required, got %v", schema.Required)
	}
}
