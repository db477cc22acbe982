package extract

import (
	"bufio"
	"compress/gzip"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/ocametrics/ocm/internal/oaindex"
	_ "modernc.org/sqlite"
)

// datePrefix is the layout of snapshot date directories.
const datePrefix = "updated_date="

var shardNamePattern = regexp.MustCompile(`^works_(\d{4}-\d{2}-\d{2})_part_(.+)\.db$`)

// baseColumns is the fixed leading part of every shard schema. Per-year
// citation columns follow in sorted order, so the column layout of a
// shard depends only on the years present in its rows.
var baseColumns = []oaindex.Column{
	{Name: "work_id", Type: oaindex.TypeText},
	{Name: "publication_year", Type: oaindex.TypeInteger},
	{Name: "language", Type: oaindex.TypeText},
	{Name: "doi", Type: oaindex.TypeText},
	{Name: "source_id", Type: oaindex.TypeText},
	{Name: "source_issn_l", Type: oaindex.TypeText},
	{Name: "domain", Type: oaindex.TypeText},
	{Name: "field", Type: oaindex.TypeText},
	{Name: "subfield", Type: oaindex.TypeText},
	{Name: "topic", Type: oaindex.TypeText},
	{Name: "topic_score", Type: oaindex.TypeReal},
	{Name: "citations_total", Type: oaindex.TypeInteger},
	{Name: "citations_window_2y", Type: oaindex.TypeInteger},
	{Name: "citations_window_3y", Type: oaindex.TypeInteger},
	{Name: "citations_window_5y", Type: oaindex.TypeInteger},
	{Name: "has_citation_window_2y", Type: oaindex.TypeInteger},
	{Name: "has_citation_window_3y", Type: oaindex.TypeInteger},
	{Name: "has_citation_window_5y", Type: oaindex.TypeInteger},
}

// Options configures a snapshot extraction run.
type Options struct {
	SnapshotDir string
	OutputDir   string
	StartYear   int
	EndYear     int

	// Workers is the number of parallel parse workers per file.
	// Zero means one per CPU.
	Workers int

	// Progress, if set, is called after each part file with the shard
	// written and the rows it kept.
	Progress func(shard string, kept int)
}

// Stats summarizes an extraction run.
type Stats struct {
	DatesProcessed int
	DatesSkipped   int
	DatesEmpty     int
	FilesProcessed int
	WorksKept      int
	Duplicates     int
}

// Run extracts every unprocessed snapshot date under opts.SnapshotDir
// into per-part shards under opts.OutputDir. A date whose shards already
// exist is skipped whole, and work IDs found in existing shards are never
// emitted again, so an interrupted run can be resumed by rerunning it.
func Run(opts Options) (*Stats, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	dates, err := snapshotDates(opts.SnapshotDir)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no %s* directories under %s", datePrefix, opts.SnapshotDir)
	}

	seen, doneDates, err := loadExisting(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, date := range dates {
		if doneDates[date] {
			stats.DatesSkipped++
			continue
		}
		if err := extractDate(opts, date, seen, stats); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// snapshotDates lists the snapshot dates present under dir, newest
// first. Processing order matters: a work re-listed across dates keeps
// its first occurrence, which must be the freshest snapshot's row.
func snapshotDates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot dir: %w", err)
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), datePrefix) {
			dates = append(dates, strings.TrimPrefix(e.Name(), datePrefix))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// loadExisting reads previously written shards: the set of work IDs they
// hold and the dates they cover.
func loadExisting(outputDir string) (map[string]bool, map[string]bool, error) {
	seen := make(map[string]bool)
	dates := make(map[string]bool)

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading output dir: %w", err)
	}
	for _, e := range entries {
		m := shardNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		dates[m[1]] = true
		if err := readShardIDs(filepath.Join(outputDir, e.Name()), seen); err != nil {
			return nil, nil, err
		}
	}
	return seen, dates, nil
}

func readShardIDs(path string, seen map[string]bool) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening shard %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT work_id FROM %s", oaindex.WorksTable))
	if err != nil {
		return fmt.Errorf("reading work IDs from %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning work ID: %w", err)
		}
		seen[id] = true
	}
	return rows.Err()
}

// extractDate processes every part file of one snapshot date.
func extractDate(opts Options, date string, seen map[string]bool, stats *Stats) error {
	pattern := filepath.Join(opts.SnapshotDir, datePrefix+date, "part_*.gz")
	parts, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("listing parts for %s: %w", date, err)
	}
	sort.Strings(parts)
	if len(parts) == 0 {
		// A date directory with no parts yet, usually a sync still in
		// flight. Counted and revisited on the next run.
		stats.DatesEmpty++
		return nil
	}

	for _, part := range parts {
		partName := strings.TrimSuffix(filepath.Base(part), ".gz")
		shardPath := filepath.Join(opts.OutputDir, fmt.Sprintf("works_%s_%s.db", date, partName))

		kept, dupes, err := extractPart(part, shardPath, opts, seen)
		if err != nil {
			return err
		}
		stats.FilesProcessed++
		stats.WorksKept += kept
		stats.Duplicates += dupes
		if opts.Progress != nil {
			opts.Progress(shardPath, kept)
		}
	}
	stats.DatesProcessed++
	return nil
}

// extractPart parses one gzip part file in parallel and writes its kept
// rows as a new shard. Duplicate work IDs, within the file or against
// earlier shards, keep their first occurrence only.
func extractPart(partPath, shardPath string, opts Options, seen map[string]bool) (int, int, error) {
	lines, err := readLines(partPath)
	if err != nil {
		return 0, 0, err
	}

	// Each worker parses a contiguous chunk; results are collected in
	// chunk order so the output row order matches the input line order.
	chunks := splitChunks(lines, opts.Workers)
	parsed := make([][]oaindex.Record, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk [][]byte) {
			defer wg.Done()
			var rows []oaindex.Record
			for _, line := range chunk {
				if row := parseLine(line, opts.StartYear, opts.EndYear); row != nil {
					rows = append(rows, row)
				}
			}
			parsed[i] = rows
		}(i, chunk)
	}
	wg.Wait()

	var rows []oaindex.Record
	dupes := 0
	for _, chunk := range parsed {
		for _, row := range chunk {
			id, _ := row["work_id"].(string)
			if seen[id] {
				dupes++
				continue
			}
			seen[id] = true
			rows = append(rows, row)
		}
	}

	if err := writeShard(shardPath, rows); err != nil {
		return 0, 0, err
	}
	return len(rows), dupes, nil
}

func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func splitChunks(lines [][]byte, n int) [][][]byte {
	if len(lines) == 0 {
		return nil
	}
	if n > len(lines) {
		n = len(lines)
	}
	size := (len(lines) + n - 1) / n
	var chunks [][][]byte
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[start:end])
	}
	return chunks
}

// writeShard creates a shard holding rows. An empty shard is still
// written, so a fully filtered part file marks its date as processed.
func writeShard(path string, rows []oaindex.Record) error {
	schema := shardSchema(rows)
	w, err := oaindex.NewShardWriter(path, schema)
	if err != nil {
		return err
	}
	if err := w.WriteBatch(rows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// shardSchema returns the base columns plus any per-year citation
// columns present in rows, the latter sorted by name.
func shardSchema(rows []oaindex.Record) *oaindex.Schema {
	base := make(map[string]bool, len(baseColumns))
	for _, c := range baseColumns {
		base[c.Name] = true
	}

	extraSet := make(map[string]bool)
	for _, row := range rows {
		for name := range row {
			if !base[name] {
				extraSet[name] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for name := range extraSet {
		extras = append(extras, name)
	}
	sort.Strings(extras)

	schema := &oaindex.Schema{Columns: make([]oaindex.Column, 0, len(baseColumns)+len(extras))}
	schema.Columns = append(schema.Columns, baseColumns...)
	for _, name := range extras {
		schema.Columns = append(schema.Columns, oaindex.Column{Name: name, Type: oaindex.TypeInteger})
	}
	return schema
}
