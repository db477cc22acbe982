package dedupe

import (
	"sort"

	"github.com/ocametrics/ocm/internal/scielo"
)

// consolidate turns the final partition into canonical articles, one per
// component, in component order.
func consolidate(docs []scielo.Document, groups [][]int) []scielo.Article {
	articles := make([]scielo.Article, 0, len(groups))
	for _, group := range groups {
		if len(group) == 1 {
			articles = append(articles, singletonArticle(&docs[group[0]]))
			continue
		}
		articles = append(articles, mergedArticle(docs, group))
	}
	return articles
}

// singletonArticle wraps an unmerged document's scalar fields into
// single-element lists and passes everything else through unchanged.
func singletonArticle(d *scielo.Document) scielo.Article {
	return scielo.Article{
		Collections:      []string{d.Collection},
		PIDs:             []string{d.PIDv2},
		PublicationYear:  d.PublicationYear,
		PublicationYears: []int{d.PublicationYear},
		DOI:              d.DOI,
		DOIWithLang:      d.DOIWithLang,
		Titles:           d.Titles,
		DocumentType:     d.DocumentType,
		JournalTitle:     d.JournalTitle,
		JournalISSNs:     d.JournalISSNs,
	}
}

// mergedArticle consolidates a component of size >1. List-valued fields
// become sorted set unions; elections (primary DOI, document type,
// journal title) are deterministic, not frequency-based.
func mergedArticle(docs []scielo.Document, group []int) scielo.Article {
	collections := make(map[string]bool)
	pids := make(map[string]bool)
	years := make(map[int]bool)
	titles := make(map[string]bool)
	issns := make(map[string]bool)
	docTypes := make(map[string]bool)
	journalTitles := make(map[string]bool)
	doiWithLang := make(map[string]string)

	// First non-empty primary DOI, by document order within the group.
	primaryDOI := ""

	for _, i := range group {
		d := &docs[i]
		collections[d.Collection] = true
		pids[d.PIDv2] = true
		years[d.PublicationYear] = true
		for _, t := range d.Titles {
			titles[t] = true
		}
		for _, issn := range d.JournalISSNs {
			issns[issn] = true
		}
		if d.DocumentType != "" {
			docTypes[d.DocumentType] = true
		}
		if d.JournalTitle != "" {
			journalTitles[d.JournalTitle] = true
		}
		for lang, doi := range d.DOIWithLang {
			if doi != "" {
				doiWithLang[lang] = doi
			}
		}
		if primaryDOI == "" && d.DOI != "" {
			primaryDOI = d.DOI
		}
	}

	// No primary DOI anywhere in the group: fall back to the smallest
	// language-variant DOI.
	if primaryDOI == "" && len(doiWithLang) > 0 {
		variants := make([]string, 0, len(doiWithLang))
		for _, doi := range doiWithLang {
			variants = append(variants, doi)
		}
		sort.Strings(variants)
		primaryDOI = variants[0]
	}

	sortedYears := sortedIntSet(years)

	return scielo.Article{
		Collections:      sortedStringSet(collections),
		PIDs:             sortedStringSet(pids),
		PublicationYear:  sortedYears[0],
		PublicationYears: sortedYears,
		DOI:              primaryDOI,
		DOIWithLang:      doiWithLang,
		Titles:           sortedStringSet(titles),
		DocumentType:     firstSorted(docTypes),
		JournalTitle:     firstSorted(journalTitles),
		JournalISSNs:     sortedStringSet(issns),
	}
}

func sortedStringSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedIntSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// firstSorted elects the lexicographically smallest value in the set, or
// "" when the set is empty.
func firstSorted(set map[string]bool) string {
	if len(set) == 0 {
		return ""
	}
	return sortedStringSet(set)[0]
}
