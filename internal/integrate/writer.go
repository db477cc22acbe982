package integrate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ocametrics/ocm/internal/oaindex"
	"github.com/ocametrics/ocm/internal/scielo"
)

// SyntheticIDPrefix prefixes the work_id of rows synthesized for regional
// articles with no global-index match.
const SyntheticIDPrefix = "scielo:"

// mergedColumns are the fixed columns appended to the unified input
// schema. List values are stored as JSON text; oa_individual_works is a
// serialized JSON object keeping the output schema flat.
var mergedColumns = []oaindex.Column{
	{Name: "scielo_collection", Type: oaindex.TypeText},
	{Name: "scielo_pid_v2", Type: oaindex.TypeText},
	{Name: "all_work_ids", Type: oaindex.TypeText},
	{Name: "is_merged", Type: oaindex.TypeInteger},
	{Name: "oa_individual_works", Type: oaindex.TypeText},
}

// WriteStats counts what the merged-dataset writer emitted.
type WriteStats struct {
	Scanned     int `json:"scanned"`
	Survivors   int `json:"survivors"`
	Suppressed  int `json:"suppressed"`
	PassThrough int `json:"pass_through"`
	Synthetic   int `json:"synthetic"`
}

// Emitted returns the total number of output rows.
func (s *WriteStats) Emitted() int {
	return s.Survivors + s.PassThrough + s.Synthetic
}

// WriteOptions configure the merged-dataset writer.
type WriteOptions struct {
	BatchSize int
	Progress  func(scanned, emitted int)
}

// groupOwner ties a survivor id back to its article and match group.
type groupOwner struct {
	article *scielo.Article
	group   *MatchGroup
}

// WriteMerged re-scans the global index and writes the final merged
// dataset to outPath. For every match group exactly one row is emitted,
// carried by the elected survivor with the group's aggregated metrics;
// the other group members are suppressed. Rows outside any group pass
// through unchanged, and every unmatched canonical article contributes
// one synthetic row at the end.
func WriteMerged(ds *oaindex.Dataset, articles []scielo.Article, groups Consolidated, outPath string, opts WriteOptions) (*WriteStats, error) {
	survivorOf := make(map[string]string)
	owners := make(map[string]groupOwner, len(groups))
	for idx, group := range groups {
		survivor := group.Survivor()
		owners[survivor] = groupOwner{article: &articles[idx], group: group}
		for _, wid := range group.WorkIDs {
			survivorOf[wid] = survivor
		}
	}

	schema, err := ds.Schema().WithColumns(mergedColumns)
	if err != nil {
		return nil, fmt.Errorf("building output schema: %w", err)
	}

	w, err := oaindex.NewShardWriter(outPath, schema)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	stats := &WriteStats{}
	emittedSurvivors := make(map[string]bool, len(owners))

	// First pass: every row of the global index, in shard order.
	err = ds.Scan(oaindex.ScanOptions{BatchSize: opts.BatchSize}, func(batch []oaindex.Record) error {
		out := make([]oaindex.Record, 0, len(batch))
		for _, row := range batch {
			stats.Scanned++
			wid := row.WorkID()

			survivor, inGroup := survivorOf[wid]
			if !inGroup {
				row["scielo_collection"] = nil
				row["scielo_pid_v2"] = nil
				row["all_work_ids"] = []string{wid}
				row["is_merged"] = false
				row["oa_individual_works"] = nil
				out = append(out, row)
				stats.PassThrough++
				continue
			}

			if wid != survivor || emittedSurvivors[survivor] {
				// Suppressed: this is the sole mechanism preventing
				// double counting.
				stats.Suppressed++
				continue
			}

			merged, err := survivorRow(row, owners[survivor])
			if err != nil {
				return err
			}
			out = append(out, merged)
			emittedSurvivors[survivor] = true
			stats.Survivors++
		}

		if err := w.WriteBatch(out); err != nil {
			return err
		}
		if opts.Progress != nil {
			opts.Progress(stats.Scanned, stats.Emitted())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing merged dataset: %w", err)
	}

	// Second pass: one synthetic row per regional article that matched
	// nothing in the global index.
	if err := writeUnmatched(w, ds.Schema(), articles, groups, opts.BatchSize, stats); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing merged dataset: %w", err)
	}
	return stats, nil
}

// survivorRow overwrites the survivor's metrics with the group totals and
// attaches the group metadata columns.
func survivorRow(row oaindex.Record, owner groupOwner) (oaindex.Record, error) {
	for col, total := range owner.group.Totals {
		row[col] = total
	}

	detail, err := json.Marshal(owner.group.Individual)
	if err != nil {
		return nil, fmt.Errorf("serializing individual works: %w", err)
	}

	row["scielo_collection"] = owner.article.Collections
	row["scielo_pid_v2"] = owner.article.PIDs
	row["all_work_ids"] = owner.group.WorkIDs
	row["is_merged"] = owner.group.Merged()
	row["oa_individual_works"] = string(detail)

	// Backfill classification the row itself is missing from the group.
	for _, field := range taxonomyFields {
		if asString(row[field]) != "" {
			continue
		}
		if values := owner.group.Taxonomy[field]; len(values) > 0 {
			row[field] = values[0]
		}
	}

	return row, nil
}

// writeUnmatched emits synthetic rows for articles with no match: zeroed
// citation fields, regional identifiers, empty work-id list.
func writeUnmatched(w *oaindex.ShardWriter, inputSchema *oaindex.Schema, articles []scielo.Article, groups Consolidated, batchSize int, stats *WriteStats) error {
	if batchSize <= 0 {
		batchSize = oaindex.DefaultBatchSize
	}

	batch := make([]oaindex.Record, 0, batchSize)
	for i := range articles {
		if _, matched := groups[i]; matched {
			continue
		}
		batch = append(batch, syntheticRow(inputSchema, &articles[i]))
		stats.Synthetic++

		if len(batch) == batchSize {
			if err := w.WriteBatch(batch); err != nil {
				return fmt.Errorf("writing unmatched articles: %w", err)
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := w.WriteBatch(batch); err != nil {
			return fmt.Errorf("writing unmatched articles: %w", err)
		}
	}
	return nil
}

func syntheticRow(inputSchema *oaindex.Schema, article *scielo.Article) oaindex.Record {
	row := oaindex.Record{
		"work_id":             SyntheticIDPrefix + article.FirstPID(),
		"doi":                 article.DOI,
		"publication_year":    article.PublicationYear,
		"scielo_collection":   article.Collections,
		"scielo_pid_v2":       article.PIDs,
		"all_work_ids":        []string{},
		"is_merged":           false,
		"oa_individual_works": nil,
	}

	// Every citation field is forced to zero so the row cannot add to
	// any aggregate.
	for _, name := range inputSchema.Names() {
		if isMetricColumn(name) || strings.Contains(name, "window") {
			row[name] = int64(0)
		}
	}

	return row
}
