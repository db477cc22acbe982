package integrate

import (
	"sort"

	"github.com/ocametrics/ocm/internal/oaindex"
)

// MatchGroup is the consolidated match set for one canonical article.
type MatchGroup struct {
	// WorkIDs are the unique matched work identifiers, sorted. The
	// first element is the elected survivor.
	WorkIDs []string

	// Totals holds citations_total and every summed window / per-year
	// column across the unique works.
	Totals map[string]int64

	// Individual preserves each unique work's own un-aggregated
	// metrics, keyed by work id.
	Individual map[string]map[string]any

	// Taxonomy holds the sorted union of non-null classification values
	// observed across the matches, per field.
	Taxonomy map[string][]string
}

// Survivor returns the work id elected to represent the group in the
// merged output: the lexicographically smallest.
func (g *MatchGroup) Survivor() string {
	return g.WorkIDs[0]
}

// Merged reports whether the group consolidates more than one work.
func (g *MatchGroup) Merged() bool {
	return len(g.WorkIDs) > 1
}

// Consolidated maps article index → match group. Articles with no unique
// match are absent (has_oa_match = false).
type Consolidated map[int]*MatchGroup

// Consolidate deduplicates each article's pending matches by work id and
// aggregates their metrics. The first occurrence of a work id wins, in
// scan order: when duplicate shards carry differing values for the same
// work, the earliest shard's row determines the aggregates rather than
// an average or an arbitrary overwrite.
func Consolidate(matches Matches) Consolidated {
	out := make(Consolidated, len(matches))
	for idx, rows := range matches {
		if group := consolidateGroup(rows); group != nil {
			out[idx] = group
		}
	}
	return out
}

func consolidateGroup(rows []oaindex.Record) *MatchGroup {
	unique := make(map[string]oaindex.Record)
	var order []string
	for _, row := range rows {
		wid := row.WorkID()
		if wid == "" {
			continue
		}
		if _, seen := unique[wid]; seen {
			continue
		}
		unique[wid] = row
		order = append(order, wid)
	}
	if len(unique) == 0 {
		return nil
	}

	group := &MatchGroup{
		Totals:     make(map[string]int64),
		Individual: make(map[string]map[string]any, len(unique)),
		Taxonomy:   make(map[string][]string),
	}

	taxonomy := make(map[string]map[string]bool)
	for _, wid := range order {
		row := unique[wid]

		detail := map[string]any{
			"language":  asString(row["language"]),
			"source_id": asString(row["source_id"]),
		}
		for col, v := range row {
			if !isMetricColumn(col) {
				continue
			}
			n := asInt64(v)
			detail[col] = n
			group.Totals[col] += n
		}
		group.Individual[wid] = detail

		for _, field := range taxonomyFields {
			if v := asString(row[field]); v != "" {
				if taxonomy[field] == nil {
					taxonomy[field] = make(map[string]bool)
				}
				taxonomy[field][v] = true
			}
		}
	}

	group.WorkIDs = make([]string, 0, len(unique))
	for wid := range unique {
		group.WorkIDs = append(group.WorkIDs, wid)
	}
	sort.Strings(group.WorkIDs)

	for field, values := range taxonomy {
		sorted := make([]string, 0, len(values))
		for v := range values {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)
		group.Taxonomy[field] = sorted
	}

	return group
}

// asInt64 coerces a loosely typed metric value, defaulting nulls and
// non-numeric junk to zero before aggregation.
func asInt64(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// asString coerces a value to a string, with "" for nulls.
func asString(v any) string {
	s, _ := v.(string)
	return s
}
