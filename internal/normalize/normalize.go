// Package normalize holds the shared normalization rules for DOIs, titles,
// and publication years. Every matching stage must use these functions so
// that a DOI written one way in the regional registry and another way in
// the global index still collides on the same key.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// doiPrefixes are stripped from the front of a DOI, in order.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"doi:",
}

// accentStripper decomposes characters and drops combining marks, so
// "ação" and "acao" normalize to the same string.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DOI returns the canonical form of a DOI: lowercased, trimmed, with
// resolver URL and "doi:" prefixes removed. Returns "" for empty input.
func DOI(value string) string {
	doi := strings.ToLower(strings.TrimSpace(value))
	for _, prefix := range doiPrefixes {
		doi = strings.ReplaceAll(doi, prefix, "")
	}
	return strings.TrimSpace(doi)
}

// Title returns the canonical form of a title: lowercased, accents
// stripped, all whitespace removed. Returns "" for empty input.
func Title(value string) string {
	if value == "" {
		return ""
	}

	stripped, _, err := transform.String(accentStripper, value)
	if err != nil {
		// Malformed UTF-8; fall back to the raw string
		stripped = value
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Year extracts a publication year from a loosely typed value (numeric
// columns come back as int64 or float64 depending on the driver, JSON
// numbers as float64, and some dumps carry years as strings).
// Returns 0 when no year can be extracted.
func Year(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		year, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return year
	default:
		return 0
	}
}
