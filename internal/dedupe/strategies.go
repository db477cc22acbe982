package dedupe

import (
	"io"
	"unicode/utf8"

	"github.com/ocametrics/ocm/internal/normalize"
	"github.com/ocametrics/ocm/internal/scielo"
)

// genericTitles are editorial boilerplate titles (normalized form) that
// show up on unrelated articles; the title strategy skips their buckets.
var genericTitles = map[string]bool{
	"editorial":      true,
	"errata":         true,
	"introduction":   true,
	"introduccion":   true,
	"introducao":     true,
	"prefacio":       true,
	"preface":        true,
	"lettertoeditor": true,
	"cartaoeditor":   true,
	"comentario":     true,
	"commentary":     true,
}

// minTitleLength is the shortest normalized title, in characters, the
// title strategy will trust as a merge key.
const minTitleLength = 15

// mergeByDOI unions every pair of documents sharing a DOI (primary or any
// language variant) whose normalized-title sets overlap. Every evaluated
// pair is reported to the audit sink regardless of outcome.
func mergeByDOI(docs []scielo.Document, buckets map[string][]int, ds *DisjointSet, audit io.Writer) error {
	for _, doi := range sortedKeys(buckets) {
		indices := buckets[doi]
		if len(indices) < 2 {
			continue
		}

		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				merged := titlesOverlap(&docs[i], &docs[j])

				if audit != nil {
					entry := AuditEntry{
						DOI:    doi,
						PID1:   docs[i].PIDv2,
						PID2:   docs[j].PIDv2,
						Merged: merged,
						Reason: "doi_match",
					}
					if err := writeAuditEntry(audit, entry); err != nil {
						return err
					}
				}

				if merged {
					ds.Union(i, j)
				}
			}
		}
	}
	return nil
}

// mergeByPID unions every pair of documents sharing a publisher ID that
// also share the publication year, the journal, and at least one
// normalized title.
func mergeByPID(docs []scielo.Document, buckets map[string][]int, ds *DisjointSet) {
	for _, pid := range sortedKeys(buckets) {
		indices := buckets[pid]
		if len(indices) < 2 {
			continue
		}

		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				if ds.Same(i, j) {
					continue
				}

				d1, d2 := &docs[i], &docs[j]
				if d1.PublicationYear != d2.PublicationYear {
					continue
				}
				if !sameJournal(d1, d2) {
					continue
				}
				if !titlesOverlap(d1, d2) {
					continue
				}

				ds.Union(i, j)
			}
		}
	}
}

// mergeByTitle unions every pair of documents sharing a normalized title
// that also share the publication year and the journal. Generic editorial
// titles and very short titles are skipped as merge keys entirely.
func mergeByTitle(docs []scielo.Document, buckets map[string][]int, ds *DisjointSet) {
	for _, title := range sortedKeys(buckets) {
		indices := buckets[title]
		if len(indices) < 2 {
			continue
		}
		if genericTitles[title] || utf8.RuneCountInString(title) < minTitleLength {
			continue
		}

		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				if ds.Same(i, j) {
					continue
				}

				d1, d2 := &docs[i], &docs[j]
				if d1.PublicationYear != d2.PublicationYear {
					continue
				}
				if !sameJournal(d1, d2) {
					continue
				}

				ds.Union(i, j)
			}
		}
	}
}

// titlesOverlap reports whether the two documents share at least one
// normalized title.
func titlesOverlap(d1, d2 *scielo.Document) bool {
	if len(d1.Titles) == 0 || len(d2.Titles) == 0 {
		return false
	}
	set := make(map[string]bool, len(d1.Titles))
	for _, t := range d1.Titles {
		set[t] = true
	}
	for _, t := range d2.Titles {
		if set[t] {
			return true
		}
	}
	return false
}

// sameJournal reports whether the two documents come from the same
// journal: either their ISSN sets intersect, or their normalized journal
// titles are non-empty and equal.
func sameJournal(d1, d2 *scielo.Document) bool {
	if len(d1.JournalISSNs) > 0 && len(d2.JournalISSNs) > 0 {
		set := make(map[string]bool, len(d1.JournalISSNs))
		for _, issn := range d1.JournalISSNs {
			set[issn] = true
		}
		for _, issn := range d2.JournalISSNs {
			if set[issn] {
				return true
			}
		}
	}

	jt1 := normalize.Title(d1.JournalTitle)
	jt2 := normalize.Title(d2.JournalTitle)
	return jt1 != "" && jt1 == jt2
}
