package oaindex

import (
	"database/sql"
	"fmt"
	"strings"
)

// DefaultBatchSize is the number of rows handed to the scan callback at
// a time. Memory during a scan is bounded by this, not by corpus size.
const DefaultBatchSize = 100_000

// Record is one row of the global index keyed by column name. Values are
// int64, float64, string, or nil as they come back from the driver;
// columns absent from a row's shard are nil.
type Record map[string]any

// WorkID returns the row's work identifier as a string, or "".
func (r Record) WorkID() string {
	s, _ := r["work_id"].(string)
	return s
}

// ScanOptions configure a dataset scan.
type ScanOptions struct {
	// Columns restricts the scan to a subset of the unified schema.
	// nil scans every column.
	Columns []string

	// StartYear/EndYear filter rows by publication_year when non-zero.
	// Rows whose shard lacks the column are excluded by the filter, the
	// same way a null never satisfies a range predicate.
	StartYear int
	EndYear   int

	// BatchSize caps the rows per callback. Defaults to DefaultBatchSize.
	BatchSize int
}

// Scan reads every shard in order and hands rows to fn in batches of at
// most BatchSize, in stable rowid order within each shard. An error from
// fn aborts the scan. The batch slice is reused between callbacks; the
// records inside it are not.
func (d *Dataset) Scan(opts ScanOptions, fn func(batch []Record) error) error {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	cols := opts.Columns
	if cols == nil {
		cols = d.schema.Names()
	}
	for _, col := range cols {
		if !d.schema.Has(col) {
			return fmt.Errorf("unknown column %q", col)
		}
	}

	yearFiltered := opts.StartYear != 0 || opts.EndYear != 0

	batch := make([]Record, 0, batchSize)
	for _, sh := range d.shards {
		if yearFiltered {
			if _, ok := sh.columns["publication_year"]; !ok {
				continue // every row would fail the year predicate
			}
		}

		var err error
		batch, err = scanShard(sh, cols, opts, batchSize, batch, fn)
		if err != nil {
			return err
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return fmt.Errorf("processing final batch: %w", err)
		}
	}
	return nil
}

func scanShard(sh shardInfo, cols []string, opts ScanOptions, batchSize int, batch []Record, fn func([]Record) error) ([]Record, error) {
	db, err := sql.Open("sqlite", sh.path)
	if err != nil {
		return batch, fmt.Errorf("opening shard %s: %w", sh.path, err)
	}
	defer db.Close()

	selects := make([]string, len(cols))
	for i, col := range cols {
		if _, ok := sh.columns[col]; ok {
			selects[i] = quoteIdent(col)
		} else {
			selects[i] = "NULL AS " + quoteIdent(col)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), WorksTable)
	var args []any
	var conds []string
	if opts.StartYear != 0 {
		conds = append(conds, "publication_year >= ?")
		args = append(args, opts.StartYear)
	}
	if opts.EndYear != 0 {
		conds = append(conds, "publication_year <= ?")
		args = append(args, opts.EndYear)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := db.Query(query, args...)
	if err != nil {
		return batch, fmt.Errorf("scanning shard %s: %w", sh.path, err)
	}
	defer rows.Close()

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return batch, fmt.Errorf("reading row from shard %s: %w", sh.path, err)
		}

		record := make(Record, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		batch = append(batch, record)

		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return nil, fmt.Errorf("processing batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return batch, fmt.Errorf("scanning shard %s: %w", sh.path, err)
	}

	return batch, nil
}

// normalizeValue maps driver values onto the small set of types Record
// promises.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
