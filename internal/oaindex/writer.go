package oaindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ShardWriter appends batches of records to a new shard file. Each batch
// is one transaction, so a failed batch leaves no torn rows behind; rows
// from earlier committed batches stay on disk.
type ShardWriter struct {
	db     *sql.DB
	schema *Schema
	insert string
	rows   int
}

// NewShardWriter creates path with a fresh works table matching schema.
func NewShardWriter(path string, schema *Schema) (*ShardWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("creating shard %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	cols := make([]string, len(schema.Columns))
	placeholders := make([]string, len(schema.Columns))
	ddlCols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = quoteIdent(c.Name)
		placeholders[i] = "?"
		ddlCols[i] = quoteIdent(c.Name) + " " + sqliteType(c.Type)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", WorksTable, strings.Join(ddlCols, ",\n  "))
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating %s table: %w", WorksTable, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		WorksTable, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	return &ShardWriter{db: db, schema: schema, insert: insert}, nil
}

// WriteBatch inserts rows in a single transaction. A row missing a schema
// column gets a null there; the writer never fails on a partially
// populated row.
func (w *ShardWriter) WriteBatch(rows []Record) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}

	stmt, err := tx.Prepare(w.insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(w.schema.Columns))
	for _, row := range rows {
		for i, c := range w.schema.Columns {
			v, err := sqlValue(row[c.Name])
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("column %q: %w", c.Name, err)
			}
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	w.rows += len(rows)
	return nil
}

// Rows returns the number of rows committed so far.
func (w *ShardWriter) Rows() int {
	return w.rows
}

// Close closes the underlying database.
func (w *ShardWriter) Close() error {
	return w.db.Close()
}

// sqlValue maps a record value onto something the driver can bind.
// Scalars pass through; lists and maps are serialized as JSON text, which
// keeps the output schema flat and storage-engine-agnostic.
func sqlValue(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, int, int64, float64, string, []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serializing value: %w", err)
		}
		return string(data), nil
	}
}
