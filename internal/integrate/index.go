// Package integrate matches canonical regional articles against the
// global scholarly-works index and writes the merged, non-duplicated
// dataset the metrics engine consumes.
package integrate

import (
	"github.com/ocametrics/ocm/internal/scielo"
)

// BuildDOIIndex maps every normalized DOI variant (primary and per
// language) of every canonical article to its article index.
//
// Precondition: intra-corpus clustering already merged articles sharing a
// DOI, so each DOI belongs to exactly one article and last-write-wins
// construction is safe.
func BuildDOIIndex(articles []scielo.Article) map[string]int {
	index := make(map[string]int)
	for i := range articles {
		for _, doi := range articles[i].DOIs() {
			index[doi] = i
		}
	}
	return index
}
