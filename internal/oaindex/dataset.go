package oaindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// WorksTable is the table every shard must expose.
const WorksTable = "works"

// shardInfo describes one shard file and its actual column set.
type shardInfo struct {
	path    string
	columns map[string]ColumnType
	order   []string // column names in table order
}

// Dataset is a read-only view over a directory of SQLite shard files with
// a unified schema.
type Dataset struct {
	shards []shardInfo
	schema *Schema
}

// Open discovers every shard in dir (sorted filename order), reads each
// works table's declared schema, and unifies them. Failure to open the
// directory or any shard is fatal, as is a schema conflict.
func Open(dir string) (*Dataset, error) {
	paths, err := shardPaths(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no shard files in %s", dir)
	}

	shards := make([]shardInfo, 0, len(paths))
	for _, path := range paths {
		info, err := readShardInfo(path)
		if err != nil {
			return nil, err
		}
		shards = append(shards, info)
	}

	schema, err := unifySchemas(shards)
	if err != nil {
		return nil, fmt.Errorf("unifying shard schemas: %w", err)
	}

	return &Dataset{shards: shards, schema: schema}, nil
}

// Schema returns the unified schema across all shards.
func (d *Dataset) Schema() *Schema {
	return d.schema
}

// ShardCount returns the number of shard files in the dataset.
func (d *Dataset) ShardCount() int {
	return len(d.shards)
}

// shardPaths lists non-empty shard files under dir, sorted by name.
func shardPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading shard directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".db" && ext != ".sqlite" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if info.Size() == 0 {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// readShardInfo opens one shard and reads the works table's columns.
func readShardInfo(path string) (shardInfo, error) {
	info := shardInfo{path: path, columns: make(map[string]ColumnType)}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return info, fmt.Errorf("opening shard %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", WorksTable))
	if err != nil {
		return info, fmt.Errorf("reading schema of shard %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return info, fmt.Errorf("scanning schema of shard %s: %w", path, err)
		}
		info.columns[name] = columnTypeFromDecl(declType)
		info.order = append(info.order, name)
	}
	if err := rows.Err(); err != nil {
		return info, fmt.Errorf("reading schema of shard %s: %w", path, err)
	}

	if len(info.order) == 0 {
		return info, fmt.Errorf("shard %s has no %s table", path, WorksTable)
	}
	return info, nil
}
