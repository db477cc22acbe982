package integrate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ocametrics/ocm/internal/normalize"
	"github.com/ocametrics/ocm/internal/oaindex"
)

// taxonomyFields are the classification columns consolidated across a
// match group.
var taxonomyFields = []string{"domain", "field", "subfield", "topic"}

// perYearColumn matches per-year citation count columns like
// "citations_2020".
var perYearColumn = regexp.MustCompile(`^citations_\d{4}$`)

// baseMatchColumns are loaded during the matching scan whenever the
// unified schema has them.
var baseMatchColumns = []string{
	"work_id", "doi", "publication_year", "language", "source_id",
	"domain", "field", "subfield", "topic",
	"citations_total",
	"citations_window_2y", "citations_window_3y", "citations_window_5y",
}

// Matches holds the raw global-index rows matched to each article index,
// in scan order. Rows are appended as found; the same work may appear
// more than once when duplicate shards carry it.
type Matches map[int][]oaindex.Record

// MatchOptions configure the cross-corpus matching scan.
type MatchOptions struct {
	StartYear int
	EndYear   int
	BatchSize int

	// Progress, when non-nil, is called after every batch with the
	// running row and match counts.
	Progress func(scanned, matched int)
}

// isMetricColumn reports whether a column holds a citation metric that is
// summed across a match group: the total, a citation window, or a
// per-year count.
func isMetricColumn(name string) bool {
	return name == "citations_total" ||
		strings.HasPrefix(name, "citations_window_") ||
		perYearColumn.MatchString(name)
}

// matchColumns returns the columns to load during the matching scan:
// every base column plus every per-year citation column the unified
// schema actually has.
func matchColumns(schema *oaindex.Schema) []string {
	var cols []string
	for _, col := range baseMatchColumns {
		if schema.Has(col) {
			cols = append(cols, col)
		}
	}
	for _, name := range schema.Names() {
		if perYearColumn.MatchString(name) {
			cols = append(cols, name)
		}
	}
	return cols
}

// FindMatches scans the global index in bounded-memory batches and
// collects, per canonical article, every row whose normalized DOI is in
// the cross-index. No per-work deduplication happens here.
func FindMatches(ds *oaindex.Dataset, doiIndex map[string]int, opts MatchOptions) (Matches, error) {
	if !ds.Schema().Has("doi") {
		return nil, fmt.Errorf("global index has no doi column")
	}

	matches := make(Matches)
	scanned, matched := 0, 0

	err := ds.Scan(oaindex.ScanOptions{
		Columns:   matchColumns(ds.Schema()),
		StartYear: opts.StartYear,
		EndYear:   opts.EndYear,
		BatchSize: opts.BatchSize,
	}, func(batch []oaindex.Record) error {
		for _, row := range batch {
			scanned++
			doi, _ := row["doi"].(string)
			idx, ok := doiIndex[normalize.DOI(doi)]
			if !ok {
				continue
			}
			matches[idx] = append(matches[idx], row)
			matched++
		}
		if opts.Progress != nil {
			opts.Progress(scanned, matched)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("matching scan: %w", err)
	}

	return matches, nil
}
