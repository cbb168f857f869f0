package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
)

func TestExtractText(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected authorization header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"T\"}"}}]}`)
	}))
	defer server.Close()

	o := New("test-key", server.URL)
	text, err := o.ExtractText(context.Background(), providers.Config{
		Model:  "gpt-4o-mini",
		Prompt: "extract",
		Images: []providers.Image{{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if text != `{"title":"T"}` {
		t.Errorf("Unexpected response text: %s", text)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("Unexpected model: %s", got.Model)
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("Expected one message with two parts, got %+v", got.Messages)
	}
	if got.Messages[0].Content[0].Text != "extract" {
		t.Errorf("Expected prompt as first part, got %+v", got.Messages[0].Content[0])
	}
	if !strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("Expected data URL for image, got %s", got.Messages[0].Content[1].ImageURL.URL)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format, got %q", got.ResponseFormat.Type)
	}
}

func TestExtractTextClassifiesStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected providers.Class
	}{
		{http.StatusTooManyRequests, providers.RateLimited},
		{http.StatusServiceUnavailable, providers.Transient},
		{http.StatusBadRequest, providers.Fatal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"test_error"}}`)
			}))
			defer server.Close()

			_, err := New("test-key", server.URL).ExtractText(context.Background(), providers.Config{Model: "m", Prompt: "p"})
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := providers.Classify(err); got != tt.expected {
				t.Errorf("Expected %s, got %s (%v)", tt.expected, got, err)
			}
		})
	}
}
