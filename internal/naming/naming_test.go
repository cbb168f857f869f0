package naming

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

func TestMakeFilename(t *testing.T) {
	tests := []struct {
		name     string
		year     string
		author   string
		title    string
		expected string
	}{
		{"canonical", "2017", "Ashish Vaswani", "Attention Is All You Need", "2017 - Ashish Vaswani - Attention Is All You Need.pdf"},
		{"unknowns", "Unknown", "Unknown", "Field Notes", "Unknown - Unknown - Field Notes.pdf"},
		{"empty components", "", "  ", "Field Notes", "Unknown - Unknown - Field Notes.pdf"},
		{"illegal characters", "2001", "O'Brien", `a/b\c:d*e?"f"<g>|h`, "2001 - O'Brien - a b c d e f g h.pdf"},
		{"dropped symbols", "2001", "A", "C# & F# [2nd ed.]", "2001 - A - C F 2nd ed.pdf"},
		{"control characters", "2001", "A", "Line\none\ttwo", "2001 - A - Line one two.pdf"},
		{"trailing dots", "2001", "A", "Etc...", "2001 - A - Etc.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeFilename(tt.year, tt.author, tt.title, 100); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMakeFilenameLength(t *testing.T) {
	longTitle := strings.Repeat("Proceedings of the Symposium ", 20)
	longAuthor := strings.Repeat("Wolfeschlegelsteinhausenbergerdorff ", 5)

	tests := []struct {
		name   string
		author string
		title  string
		max    int
	}{
		{"long title", "Ada Lovelace", longTitle, 100},
		{"long author and title", longAuthor, longTitle, 100},
		{"tight bound", "Ada Lovelace", longTitle, 20},
		{"multibyte", "Zoë", strings.Repeat("Über ", 60), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakeFilename("1999", tt.author, tt.title, tt.max)
			if !strings.HasSuffix(got, ".pdf") {
				t.Fatalf("Expected .pdf suffix, got %q", got)
			}
			stem := strings.TrimSuffix(got, ".pdf")
			if n := utf8.RuneCountInString(stem); n > tt.max {
				t.Errorf("Stem has %d characters, expected at most %d: %q", n, tt.max, stem)
			}
			if !strings.HasPrefix(stem, "1999") {
				t.Errorf("Expected year to survive truncation, got %q", stem)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncation split a rune: %q", got)
			}
		})
	}
}

func TestMakeFilenameShortensTitleFirst(t *testing.T) {
	got := MakeFilename("2020", "Grace Hopper", strings.Repeat("x", 200), 100)
	if !strings.HasPrefix(got, "2020 - Grace Hopper - x") {
		t.Errorf("Expected author kept whole, got %q", got)
	}
}

func TestPolicyTemplate(t *testing.T) {
	p, err := NewPolicy(100, `{{.Author | upper}} ({{.Year}}) {{.Title | lower}}`)
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}

	got, err := p.Filename(models.Metadata{Title: "Some Title", Author: "Knuth", Year: "1968"})
	if err != nil {
		t.Fatalf("Filename failed: %v", err)
	}
	if got != "KNUTH (1968) some title.pdf" {
		t.Errorf("Unexpected filename %q", got)
	}
}

func TestPolicyTemplateErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"parse error", "{{.Title"},
		{"unknown field", "{{.Publisher}}"},
		{"unknown function", "{{.Title | shout}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPolicy(100, tt.format); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestPolicyTemplateSeparators(t *testing.T) {
	p, err := NewPolicy(100, "{{.Year}}/{{.Author}}/{{.Title}}")
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}

	got, err := p.Filename(models.Metadata{Title: "T", Author: "A", Year: "2000"})
	if err != nil {
		t.Fatalf("Filename failed: %v", err)
	}
	if strings.Contains(got, "/") {
		t.Errorf("Expected path separators removed, got %q", got)
	}
}

func TestUnique(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPolicy(100, "")
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}

	name := "2020 - A - B.pdf"
	got, err := p.Unique(dir, name)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	if got != name {
		t.Errorf("Expected %q for an empty directory, got %q", name, got)
	}

	touch(t, dir, name)
	got, err = p.Unique(dir, name)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	if got != "2020 - A - B (1).pdf" {
		t.Errorf("Expected first suffix, got %q", got)
	}

	touch(t, dir, "2020 - A - B (1).pdf")
	got, err = p.Unique(dir, name)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	if got != "2020 - A - B (2).pdf" {
		t.Errorf("Expected second suffix, got %q", got)
	}
}

func TestUniqueRespectsLength(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPolicy(30, "")
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}

	name := MakeFilename("2020", "Author", strings.Repeat("t", 80), 30)
	touch(t, dir, name)

	got, err := p.Unique(dir, name)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	stem := strings.TrimSuffix(got, ".pdf")
	if !strings.HasSuffix(stem, " (1)") {
		t.Errorf("Expected suffix, got %q", got)
	}
	if n := utf8.RuneCountInString(stem); n > 30 {
		t.Errorf("Suffixed stem has %d characters: %q", n, stem)
	}
}

func TestSanitizeComponent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Unknown"},
		{"...", "Unknown"},
		{"***", "Unknown"},
		{"  Hello   World  ", "Hello World"},
		{"§4 ¶2", "4 2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeComponent(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
}
