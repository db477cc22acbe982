// Package scielo defines the regional-corpus document model and its
// JSONL persistence.
package scielo

import (
	"sort"

	"github.com/ocametrics/ocm/internal/normalize"
)

// Document is one raw article record from the regional registry, as
// emitted by the upstream snapshot loader. Immutable once loaded.
type Document struct {
	Collection      string            `json:"collection"`
	PIDv2           string            `json:"pid_v2"`
	DOI             string            `json:"doi"`
	DOIWithLang     map[string]string `json:"doi_with_lang"`
	Titles          []string          `json:"titles"`
	DocumentType    string            `json:"document_type"`
	JournalTitle    string            `json:"journal_title"`
	JournalISSNs    []string          `json:"journal_issns"`
	PublicationYear int               `json:"publication_year"`
}

// DOIs returns the primary DOI plus every language-variant DOI,
// normalized, deduplicated, and sorted. Empty values are dropped.
func (d *Document) DOIs() []string {
	return collectDOIs(d.DOI, d.DOIWithLang)
}

// HasDOI reports whether the document carries any DOI at all.
func (d *Document) HasDOI() bool {
	if normalize.DOI(d.DOI) != "" {
		return true
	}
	for _, v := range d.DOIWithLang {
		if normalize.DOI(v) != "" {
			return true
		}
	}
	return false
}

func collectDOIs(primary string, withLang map[string]string) []string {
	seen := make(map[string]bool)
	if doi := normalize.DOI(primary); doi != "" {
		seen[doi] = true
	}
	for _, v := range withLang {
		if doi := normalize.DOI(v); doi != "" {
			seen[doi] = true
		}
	}

	dois := make([]string, 0, len(seen))
	for doi := range seen {
		dois = append(dois, doi)
	}
	sort.Strings(dois)
	return dois
}
