package dedupe

import (
	"io"
	"sort"

	"github.com/ocametrics/ocm/internal/scielo"
)

// Strategy names one of the matching strategies.
type Strategy string

const (
	StrategyDOI   Strategy = "doi"
	StrategyPID   Strategy = "pid"
	StrategyTitle Strategy = "title"
)

// DefaultStrategies lists all strategies in their fixed application order.
var DefaultStrategies = []Strategy{StrategyDOI, StrategyPID, StrategyTitle}

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	return s == StrategyDOI || s == StrategyPID || s == StrategyTitle
}

// Options configure a merge run.
type Options struct {
	// Strategies to apply. Regardless of slice order they run in the
	// fixed order DOI, PID, Title, so later strategies see unions made
	// by earlier ones. An empty slice disables merging entirely.
	Strategies []Strategy

	// Audit, when non-nil, receives one JSONL entry per DOI-strategy
	// pair evaluation, whether or not the pair merged.
	Audit io.Writer
}

func (o Options) enabled(s Strategy) bool {
	for _, v := range o.Strategies {
		if v == s {
			return true
		}
	}
	return false
}

// indexes are the candidate-pair buckets: key → indices of documents
// carrying that key.
type indexes struct {
	doi   map[string][]int
	pid   map[string][]int
	title map[string][]int
}

func buildIndexes(docs []scielo.Document) *indexes {
	idx := &indexes{
		doi:   make(map[string][]int),
		pid:   make(map[string][]int),
		title: make(map[string][]int),
	}

	for i := range docs {
		for _, doi := range docs[i].DOIs() {
			idx.doi[doi] = append(idx.doi[doi], i)
		}
		if pid := docs[i].PIDv2; pid != "" {
			idx.pid[pid] = append(idx.pid[pid], i)
		}
		for _, title := range docs[i].Titles {
			if title != "" {
				idx.title[title] = append(idx.title[title], i)
			}
		}
	}
	return idx
}

// sortedKeys returns a bucket index's keys in sorted order, so strategy
// application and audit output are deterministic across runs.
func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge partitions docs into duplicate components using the enabled
// strategies and consolidates each component into one canonical article.
// The only error source is the audit sink.
func Merge(docs []scielo.Document, opts Options) ([]scielo.Article, error) {
	ds, err := Partition(docs, opts)
	if err != nil {
		return nil, err
	}
	return consolidate(docs, ds.Components()), nil
}

// Partition runs the enabled strategies and returns the resulting
// disjoint-set over document indices. Exposed separately so callers can
// inspect the raw partition.
func Partition(docs []scielo.Document, opts Options) (*DisjointSet, error) {
	ds := NewDisjointSet(len(docs))
	idx := buildIndexes(docs)

	if opts.enabled(StrategyDOI) {
		if err := mergeByDOI(docs, idx.doi, ds, opts.Audit); err != nil {
			return nil, err
		}
	}
	if opts.enabled(StrategyPID) {
		mergeByPID(docs, idx.pid, ds)
	}
	if opts.enabled(StrategyTitle) {
		mergeByTitle(docs, idx.title, ds)
	}

	return ds, nil
}
