// Package oaindex reads and writes the global scholarly-works index,
// stored as a directory of SQLite shard files. Shards written at
// different snapshot dates may carry divergent column sets; the package
// unifies them into one schema with permissive numeric promotion before
// any scan.
package oaindex

import (
	"fmt"
	"strings"
)

// ColumnType is the unified storage type of a shard column.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
)

// Column is one named, typed column of the unified schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered unified column set across all shards. Column
// order is first-seen order over shards in sorted filename order, so it
// is stable across runs.
type Schema struct {
	Columns []Column
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the schema contains a column with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.Type(name)
	return ok
}

// Type returns the unified type of the named column.
func (s *Schema) Type(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// WithColumns returns a copy of the schema extended by extra columns.
// Duplicate names are rejected.
func (s *Schema) WithColumns(extra []Column) (*Schema, error) {
	out := &Schema{Columns: make([]Column, len(s.Columns), len(s.Columns)+len(extra))}
	copy(out.Columns, s.Columns)
	for _, c := range extra {
		if out.Has(c.Name) {
			return nil, fmt.Errorf("column %q already present in schema", c.Name)
		}
		out.Columns = append(out.Columns, c)
	}
	return out, nil
}

// columnTypeFromDecl maps a SQLite declared type to a ColumnType using
// the usual affinity rules.
func columnTypeFromDecl(decl string) ColumnType {
	upper := strings.ToUpper(decl)
	switch {
	case strings.Contains(upper, "INT"):
		return TypeInteger
	case strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"):
		return TypeReal
	default:
		return TypeText
	}
}

// sqliteType maps a ColumnType back to a SQLite column type.
func sqliteType(t ColumnType) string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// unifySchemas merges per-shard column sets into one schema. INTEGER
// promotes to REAL when shards disagree; a TEXT vs numeric clash fails
// fast, since silently coercing it would corrupt downstream sums.
func unifySchemas(shards []shardInfo) (*Schema, error) {
	schema := &Schema{}
	types := make(map[string]ColumnType)

	for _, sh := range shards {
		for _, col := range sh.order {
			colType := sh.columns[col]
			prev, seen := types[col]
			if !seen {
				types[col] = colType
				schema.Columns = append(schema.Columns, Column{Name: col, Type: colType})
				continue
			}
			if prev == colType {
				continue
			}

			promoted, ok := promote(prev, colType)
			if !ok {
				return nil, fmt.Errorf("schema conflict for column %q: %s vs %s (shard %s)",
					col, prev, colType, sh.path)
			}
			types[col] = promoted
			for i := range schema.Columns {
				if schema.Columns[i].Name == col {
					schema.Columns[i].Type = promoted
				}
			}
		}
	}

	return schema, nil
}

// promote returns the permissive promotion of two column types, if any.
func promote(a, b ColumnType) (ColumnType, bool) {
	if a == b {
		return a, true
	}
	numeric := func(t ColumnType) bool { return t == TypeInteger || t == TypeReal }
	if numeric(a) && numeric(b) {
		return TypeReal, true
	}
	return "", false
}

// quoteIdent quotes a column name for use in SQL built from shard
// metadata.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
