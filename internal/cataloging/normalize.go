package cataloging

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

var (
	yearPattern  = regexp.MustCompile(`(?:^|[^0-9])([12][0-9]{3})(?:[^0-9]|$)`)
	spacePattern = regexp.MustCompile(`\s+`)
	andPattern   = regexp.MustCompile(`(?i)\s+and\s+`)
	etAlPattern  = regexp.MustCompile(`(?i)\s*,?\s+et\s+al\.?$`)
)

var placeholders = map[string]bool{
	"":          true,
	"not found": true,
	"unknown":   true,
	"n/a":       true,
	"na":        true,
	"none":      true,
	"null":      true,
}

var nameSuffixes = map[string]bool{
	"jr": true,
	"sr": true,
	"ii": true, "iii": true, "iv": true,
}

// Normalize applies the Unknown sentinels, keeps the first author and reduces
// the year to four digits.
func Normalize(m BookMetadata) models.Metadata {
	return models.Metadata{
		Title:  NormalizeTitle(m.Title),
		Author: FirstAuthor(m.Authors),
		Year:   NormalizeYear(m.Year),
	}
}

func isMissing(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// NormalizeTitle trims and collapses whitespace
func NormalizeTitle(title string) string {
	if isMissing(title) {
		return models.Unknown
	}
	return collapse(title)
}

// NormalizeYear returns the first plausible four-digit year, or Unknown
func NormalizeYear(year string) string {
	m := yearPattern.FindStringSubmatch(year)
	if m == nil {
		return models.Unknown
	}
	return m[1]
}

// FirstAuthor reduces an author list to the first listed name
func FirstAuthor(authors []string) string {
	for _, a := range authors {
		if isMissing(a) {
			continue
		}
		if name := splitFirstAuthor(collapse(a)); !isMissing(name) {
			return name
		}
	}
	return models.Unknown
}

// splitFirstAuthor handles several names packed into one string
func splitFirstAuthor(author string) string {
	author = etAlPattern.ReplaceAllString(author, "")

	if loc := andPattern.FindStringIndex(author); loc != nil {
		return strings.TrimSpace(author[:loc[0]])
	}
	if i := strings.Index(author, " & "); i != -1 {
		return strings.TrimSpace(author[:i])
	}
	if i := strings.Index(author, ";"); i != -1 {
		return strings.TrimSpace(author[:i])
	}
	// "Smith, J., Jones, K." lists several people; "Smith, John, Jr." is one.
	if strings.Count(author, ",") > 1 {
		parts := strings.Split(author, ",")
		suffixed := false
		for _, p := range parts[1:] {
			if isNameSuffix(p) {
				suffixed = true
				break
			}
		}
		if !suffixed {
			return strings.TrimSpace(parts[0])
		}
	}
	return strings.TrimSpace(author)
}

func isNameSuffix(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	return nameSuffixes[s]
}
