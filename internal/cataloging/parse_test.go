package cataloging

import (
	"reflect"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected BookMetadata
	}{
		{
			name:     "plain object",
			response: `{"title": "Deep Learning", "author": "Ian Goodfellow", "year": "2016"}`,
			expected: BookMetadata{Title: "Deep Learning", Authors: []string{"Ian Goodfellow"}, Year: "2016"},
		},
		{
			name:     "code fence",
			response: "```json\n{\"title\": \"A\", \"author\": [\"B\", \"C\"], \"year\": 1999}\n```",
			expected: BookMetadata{Title: "A", Authors: []string{"B", "C"}, Year: "1999"},
		},
		{
			name:     "prose around object",
			response: "Here is the metadata you asked for:\n{\"title\": \"T\", \"author\": null, \"year\": null}\nLet me know!",
			expected: BookMetadata{Title: "T"},
		},
		{
			name:     "missing fields and extras",
			response: `{"title": "Only Title", "source_filename": "x.pdf"}`,
			expected: BookMetadata{Title: "Only Title"},
		},
		{
			name:     "null entries in author list",
			response: `{"title": "T", "author": [null, "Ada Lovelace"], "year": "Not found"}`,
			expected: BookMetadata{Title: "T", Authors: []string{"Ada Lovelace"}, Year: "Not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.response)
			if err != nil {
				t.Fatalf("ParseResponse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "I could not read this document."},
		{"broken json", `{"title": "A", "author": }`},
		{"wrong title type", `{"title": 42, "author": "B", "year": "2000"}`},
		{"wrong author type", `{"title": "A", "author": {"name": "B"}, "year": "2000"}`},
		{"title as list", `{"title": ["A"], "author": "B"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResponse(tt.response); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"text {\"a\":{\"b\":2}} tail", `{"a":{"b":2}}`},
		{"} backwards {", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := extractJSONObject(tt.input); got != tt.expected {
			t.Errorf("extractJSONObject(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
