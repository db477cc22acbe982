package scielo

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ocametrics/ocm/internal/normalize"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line). Shared by the document and article readers.
const MaxJSONLLineCapacity = 1024 * 1024

// SkipCounts classifies records dropped while loading the regional corpus.
// Per-record problems are counted here instead of aborting the run.
type SkipCounts struct {
	Malformed  int `json:"malformed"`    // unparseable line
	MissingDOI int `json:"missing_doi"`  // no primary DOI and no language variant
	OutOfRange int `json:"out_of_range"` // publication year outside the configured range
}

// Total returns the number of skipped records across all reasons.
func (s SkipCounts) Total() int {
	return s.Malformed + s.MissingDOI + s.OutOfRange
}

// LoadDocuments reads the regional corpus JSONL at path, keeping documents
// published within [startYear, endYear] that carry at least one DOI.
// DOIs and titles are normalized on the way in. Malformed or incomplete
// records are counted, never fatal; failure to open the file is.
func LoadDocuments(path string, startYear, endYear int) ([]Document, SkipCounts, error) {
	var skips SkipCounts

	f, err := os.Open(path)
	if err != nil {
		return nil, skips, fmt.Errorf("opening regional corpus: %w", err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var doc Document
		if err := json.Unmarshal(line, &doc); err != nil {
			skips.Malformed++
			continue
		}

		if doc.PublicationYear < startYear || doc.PublicationYear > endYear {
			skips.OutOfRange++
			continue
		}
		if !doc.HasDOI() {
			skips.MissingDOI++
			continue
		}

		normalizeDocument(&doc)
		docs = append(docs, doc)
	}

	if err := scanner.Err(); err != nil {
		return nil, skips, fmt.Errorf("reading regional corpus: %w", err)
	}

	return docs, skips, nil
}

// normalizeDocument canonicalizes the document's DOIs and titles in place.
// Upstream dumps usually arrive pre-normalized; doing it again is
// idempotent and protects the matchers from mixed-case variants.
func normalizeDocument(doc *Document) {
	doc.DOI = normalize.DOI(doc.DOI)

	if len(doc.DOIWithLang) > 0 {
		cleaned := make(map[string]string, len(doc.DOIWithLang))
		for lang, v := range doc.DOIWithLang {
			if doi := normalize.DOI(v); doi != "" {
				cleaned[lang] = doi
			}
		}
		doc.DOIWithLang = cleaned
	}

	if len(doc.Titles) > 0 {
		titles := doc.Titles[:0]
		for _, t := range doc.Titles {
			if nt := normalize.Title(t); nt != "" {
				titles = append(titles, nt)
			}
		}
		doc.Titles = titles
	}
}

// ReadArticles reads canonical articles from a merged-corpus JSONL file.
func ReadArticles(path string) ([]Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening merged corpus: %w", err)
	}
	defer f.Close()

	var articles []Article
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var a Article
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		articles = append(articles, a)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading merged corpus: %w", err)
	}

	return articles, nil
}

// WriteArticles writes canonical articles as JSONL, replacing any existing
// content at path.
func WriteArticles(path string, articles []Article) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating merged corpus: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range articles {
		if err := enc.Encode(&articles[i]); err != nil {
			return fmt.Errorf("encoding article %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing merged corpus: %w", err)
	}

	return nil
}
