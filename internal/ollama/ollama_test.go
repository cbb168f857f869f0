package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
)

func TestExtractText(t *testing.T) {
	var got struct {
		Model  string   `json:"model"`
		Prompt string   `json:"prompt"`
		Images []string `json:"images"`
		Stream bool     `json:"stream"`
		Format string   `json:"format"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		fmt.Fprint(w, `{"response":"{\"title\":\"A Book\"}"}`)
	}))
	defer server.Close()

	text, err := New(server.URL+"/").ExtractText(context.Background(), providers.Config{
		Model:  "llava",
		Prompt: "extract",
		Images: []providers.Image{{MIMEType: "image/png", Data: []byte("png")}},
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if text != `{"title":"A Book"}` {
		t.Errorf("Unexpected text: %s", text)
	}
	if got.Model != "llava" || got.Prompt != "extract" || got.Stream {
		t.Errorf("Unexpected request: %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "cG5n" {
		t.Errorf("Expected base64 image, got %v", got.Images)
	}
	if got.Format != "json" {
		t.Errorf("Expected json format, got %q", got.Format)
	}
}

func TestExtractTextStatusClasses(t *testing.T) {
	tests := []struct {
		status   int
		expected providers.Class
	}{
		{http.StatusTooManyRequests, providers.RateLimited},
		{http.StatusBadGateway, providers.Transient},
		{http.StatusNotFound, providers.Fatal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not available", tt.status)
			}))
			defer server.Close()

			_, err := New(server.URL).ExtractText(context.Background(), providers.Config{Model: "m"})
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := providers.Classify(err); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
