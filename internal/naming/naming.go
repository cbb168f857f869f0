package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// DefaultTemplate renders the canonical "{year} - {author} - {title}" stem
const DefaultTemplate = "{{.Year}} - {{.Author}} - {{.Title}}"

const (
	extension   = ".pdf"
	illegal     = `/\:*?"<>|`
	dropped     = "†‡§¶#@$%^&+={}[]~`"
	maxSuffixes = 10000
)

var spacePattern = regexp.MustCompile(`\s+`)

// Fields are the template inputs for a filename
type Fields struct {
	Year   string
	Author string
	Title  string
}

// Policy derives output filenames from metadata
type Policy struct {
	maxLength int
	tmpl      *template.Template
}

// NewPolicy parses format (DefaultTemplate when empty) with the sprig function map.
// maxLength bounds the name without its extension.
func NewPolicy(maxLength int, format string) (*Policy, error) {
	if format == "" {
		format = DefaultTemplate
	}
	tmpl, err := template.New("filename").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filename format: %w", err)
	}
	if _, err := render(tmpl, Fields{Year: "2000", Author: "Author", Title: "Title"}); err != nil {
		return nil, fmt.Errorf("failed to execute filename format: %w", err)
	}
	return &Policy{maxLength: maxLength, tmpl: tmpl}, nil
}

// MakeFilename builds the canonical filename with the default template
func MakeFilename(year, author, title string, maxLength int) string {
	p, err := NewPolicy(maxLength, DefaultTemplate)
	if err != nil {
		panic(err)
	}
	name, err := p.Filename(models.Metadata{Title: title, Author: author, Year: year})
	if err != nil {
		panic(err)
	}
	return name
}

// Sanitize replaces filesystem-illegal characters and control characters with
// spaces, drops troublesome symbols and collapses whitespace.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(illegal, r):
			return ' '
		case strings.ContainsRune(dropped, r):
			return -1
		}
		return r
	}, s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.Trim(s, " .")
}

// SanitizeComponent sanitizes one metadata field; an empty result becomes Unknown
func SanitizeComponent(s string) string {
	if s = Sanitize(s); s == "" {
		return models.Unknown
	}
	return s
}

// Filename returns the sanitized name for m, at most maxLength characters plus ".pdf".
// The title is shortened first, then the author; the year is never shortened
// unless the stem cannot fit otherwise.
func (p *Policy) Filename(m models.Metadata) (string, error) {
	f := Fields{
		Year:   SanitizeComponent(m.Year),
		Author: SanitizeComponent(m.Author),
		Title:  SanitizeComponent(m.Title),
	}

	stem, err := p.stem(f)
	if err != nil {
		return "", err
	}

	for _, field := range []*string{&f.Title, &f.Author} {
		for runeLen(stem) > p.maxLength && *field != "" {
			over := runeLen(stem) - p.maxLength
			*field = trimEnd(truncateRunes(*field, runeLen(*field)-over))
			if stem, err = p.stem(f); err != nil {
				return "", err
			}
		}
	}

	if runeLen(stem) > p.maxLength {
		stem = trimEnd(truncateRunes(stem, p.maxLength))
	}
	if stem == "" {
		stem = models.Unknown
	}
	return stem + extension, nil
}

func (p *Policy) stem(f Fields) (string, error) {
	out, err := render(p.tmpl, f)
	if err != nil {
		return "", fmt.Errorf("failed to execute filename format: %w", err)
	}
	return trimEnd(Sanitize(out)), nil
}

func render(tmpl *template.Template, f Fields) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, f); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Unique returns name if dir has no entry by that name, otherwise the first
// free "stem (n).pdf". The suffixed stem still respects the length bound.
func (p *Policy) Unique(dir, name string) (string, error) {
	free, err := available(filepath.Join(dir, name))
	if err != nil || free {
		return name, err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; n <= maxSuffixes; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := stem
		if runeLen(base)+len(suffix) > p.maxLength {
			base = trimEnd(truncateRunes(base, p.maxLength-len(suffix)))
		}
		candidate := base + suffix + ext
		free, err := available(filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free filename for %s after %d attempts", name, maxSuffixes)
}

func available(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// trimEnd removes separators left dangling by truncation
func trimEnd(s string) string {
	return strings.TrimRight(s, " .,-")
}
