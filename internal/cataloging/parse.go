package cataloging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BookMetadata is the raw answer from the model, before normalization
type BookMetadata struct {
	Title   string   `json:"title"`
	Authors []string `json:"author"`
	Year    string   `json:"year"`
}

const metadataSchemaJSON = `{
  "type": "object",
  "properties": {
    "title":  {"type": ["string", "null"]},
    "author": {
      "oneOf": [
        {"type": ["string", "null"]},
        {"type": "array", "items": {"type": ["string", "null"]}}
      ]
    },
    "year":   {"type": ["string", "integer", "null"]}
  }
}`

var metadataSchema = jsonschema.MustCompileString("metadata.json", metadataSchemaJSON)

// ParseResponse extracts the metadata object from a model response.
// Markdown code fences and prose around the object are tolerated.
func ParseResponse(response string) (BookMetadata, error) {
	payload := extractJSONObject(response)
	if payload == "" {
		return BookMetadata{}, fmt.Errorf("no JSON object in model response")
	}

	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return BookMetadata{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if err := metadataSchema.Validate(v); err != nil {
		return BookMetadata{}, fmt.Errorf("json does not match schema: %w", err)
	}

	var raw struct {
		Title  *string         `json:"title"`
		Author json.RawMessage `json:"author"`
		Year   json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return BookMetadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}

	var metadata BookMetadata
	if raw.Title != nil {
		metadata.Title = *raw.Title
	}
	metadata.Authors = DecodeAuthors(raw.Author)
	metadata.Year = DecodeYear(raw.Year)
	return metadata, nil
}

// extractJSONObject trims code fences and returns the span from the first '{' to the last '}'
func extractJSONObject(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return ""
	}
	return response[start : end+1]
}

// DecodeAuthors accepts a single name or a list of names; nulls are dropped.
func DecodeAuthors(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []*string
	if err := json.Unmarshal(data, &many); err == nil {
		authors := make([]string, 0, len(many))
		for _, a := range many {
			if a != nil {
				authors = append(authors, *a)
			}
		}
		return authors
	}
	return nil
}

// DecodeYear accepts the year as a string or a JSON number
func DecodeYear(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return ""
}
