package extract

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ocametrics/ocm/internal/oaindex"
)

func writePart(t *testing.T, dir, date, part string, lines ...string) {
	t.Helper()
	dateDir := filepath.Join(dir, datePrefix+date)
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dateDir, part))
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	for _, line := range lines {
		if _, err := gz.Write([]byte(line + "\n")); err != nil {
			t.Fatal(err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func journalWork(id string, year int, extras string) string {
	if extras != "" {
		extras = "," + extras
	}
	return fmt.Sprintf(`{"id":%q,"type":"article","publication_year":%d,"language":"en","doi":"https://doi.org/10.1/%s","cited_by_count":10,"primary_location":{"source":{"id":"S1","type":"journal","issn_l":"1234-5678"}}%s}`,
		id, year, id, extras)
}

func scanAll(t *testing.T, dir string) []oaindex.Record {
	t.Helper()
	ds, err := oaindex.Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	var all []oaindex.Record
	err = ds.Scan(oaindex.ScanOptions{}, func(batch []oaindex.Record) error {
		all = append(all, batch...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return all
}

func TestParseLineFilters(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"non-article", `{"id":"W1","type":"book","publication_year":2020,"primary_location":{"source":{"id":"S1","type":"journal"}}}`},
		{"xpac", `{"id":"W1","type":"article","is_xpac":true,"publication_year":2020,"primary_location":{"source":{"id":"S1","type":"journal"}}}`},
		{"year below range", journalWork("W1", 2010, "")},
		{"year above range", journalWork("W1", 2030, "")},
		{"missing year", `{"id":"W1","type":"article","primary_location":{"source":{"id":"S1","type":"journal"}}}`},
		{"no journal source", `{"id":"W1","type":"article","publication_year":2020,"primary_location":{"source":{"id":"R1","type":"repository"}}}`},
		{"malformed", `{"id":"W1",`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if row := parseLine([]byte(tc.line), 2018, 2025); row != nil {
				t.Errorf("expected line to be filtered, got %v", row)
			}
		})
	}
}

func TestParseLineJournalFallback(t *testing.T) {
	line := `{"id":"W1","type":"article","publication_year":2020,
		"primary_location":{"source":{"id":"R1","type":"repository"}},
		"locations":[{"source":{"id":"R2","type":"repository"}},{"source":{"id":"S9","type":"journal","issn_l":"9999-0000"}}]}`
	row := parseLine([]byte(line), 2018, 2025)
	if row == nil {
		t.Fatal("expected row")
	}
	if row["source_id"] != "S9" || row["source_issn_l"] != "9999-0000" {
		t.Errorf("wrong source: %v / %v", row["source_id"], row["source_issn_l"])
	}
}

func TestParseLineCitationWindows(t *testing.T) {
	line := journalWork("W1", 2020,
		`"counts_by_year":[{"year":2020,"cited_by_count":1},{"year":2021,"cited_by_count":2},{"year":2022,"cited_by_count":3},{"year":2023,"cited_by_count":4},{"year":2025,"cited_by_count":5}]`)
	row := parseLine([]byte(line), 2018, 2025)
	if row == nil {
		t.Fatal("expected row")
	}

	// Windows count years strictly after publication: 2y covers
	// 2021-2022, 3y adds 2023, 5y adds 2024-2025.
	checks := map[string]int64{
		"citations_window_2y":    5,
		"citations_window_3y":    9,
		"citations_window_5y":    14,
		"has_citation_window_2y": 1,
		"citations_2020":         1,
		"citations_2025":         5,
		"citations_total":        10,
	}
	for col, want := range checks {
		if got := row[col]; got != want {
			t.Errorf("%s = %v, want %d", col, got, want)
		}
	}
	if row["has_citation_window_5y"] != int64(1) {
		t.Errorf("has_citation_window_5y = %v", row["has_citation_window_5y"])
	}
}

func TestParseLineNoWindowFlag(t *testing.T) {
	row := parseLine([]byte(journalWork("W1", 2020, "")), 2018, 2025)
	if row == nil {
		t.Fatal("expected row")
	}
	if row["has_citation_window_2y"] != int64(0) || row["citations_window_5y"] != int64(0) {
		t.Errorf("expected zero windows, got %v / %v",
			row["has_citation_window_2y"], row["citations_window_5y"])
	}
}

func TestRunExtractsShards(t *testing.T) {
	snapDir := t.TempDir()
	outDir := t.TempDir()

	writePart(t, snapDir, "2024-01-01", "part_000.gz",
		journalWork("W1", 2020, ""),
		`{"id":"W2","type":"book","publication_year":2020}`,
		journalWork("W3", 2021, ""),
	)
	writePart(t, snapDir, "2024-01-01", "part_001.gz",
		journalWork("W3", 2021, ""), // duplicate of part_000
		journalWork("W4", 2022, ""),
	)

	stats, err := Run(Options{
		SnapshotDir: snapDir,
		OutputDir:   outDir,
		StartYear:   2018,
		EndYear:     2025,
		Workers:     2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if stats.DatesProcessed != 1 || stats.FilesProcessed != 2 {
		t.Errorf("dates=%d files=%d, want 1/2", stats.DatesProcessed, stats.FilesProcessed)
	}
	if stats.WorksKept != 3 {
		t.Errorf("WorksKept = %d, want 3", stats.WorksKept)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}

	rows := scanAll(t, outDir)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	ids := make(map[string]bool)
	for _, r := range rows {
		ids[r.WorkID()] = true
	}
	for _, want := range []string{"W1", "W3", "W4"} {
		if !ids[want] {
			t.Errorf("missing work %s", want)
		}
	}
}

func TestRunSkipsExtractedDates(t *testing.T) {
	snapDir := t.TempDir()
	outDir := t.TempDir()

	writePart(t, snapDir, "2024-01-01", "part_000.gz", journalWork("W1", 2020, ""))

	opts := Options{SnapshotDir: snapDir, OutputDir: outDir, StartYear: 2018, EndYear: 2025}
	if _, err := Run(opts); err != nil {
		t.Fatal(err)
	}

	stats, err := Run(opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.DatesSkipped != 1 || stats.DatesProcessed != 0 {
		t.Errorf("skipped=%d processed=%d, want 1/0", stats.DatesSkipped, stats.DatesProcessed)
	}
	if len(scanAll(t, outDir)) != 1 {
		t.Error("resumed run duplicated rows")
	}
}

func TestRunToleratesEmptyDateDir(t *testing.T) {
	snapDir := t.TempDir()
	outDir := t.TempDir()

	writePart(t, snapDir, "2024-01-01", "part_000.gz", journalWork("W1", 2020, ""))
	if err := os.MkdirAll(filepath.Join(snapDir, datePrefix+"2024-02-01"), 0o755); err != nil {
		t.Fatal(err)
	}

	stats, err := Run(Options{
		SnapshotDir: snapDir,
		OutputDir:   outDir,
		StartYear:   2018,
		EndYear:     2025,
	})
	if err != nil {
		t.Fatalf("empty date dir aborted the run: %v", err)
	}
	if stats.DatesEmpty != 1 || stats.DatesProcessed != 1 {
		t.Errorf("empty=%d processed=%d, want 1/1", stats.DatesEmpty, stats.DatesProcessed)
	}
	if len(scanAll(t, outDir)) != 1 {
		t.Error("populated date was not extracted")
	}
}

func TestRunKeepsNewestSnapshotVersion(t *testing.T) {
	snapDir := t.TempDir()
	outDir := t.TempDir()

	// The same work appears in two snapshot dates with different
	// citation counts; the freshest snapshot's row must win.
	stale := `{"id":"W1","type":"article","publication_year":2020,"cited_by_count":1,"primary_location":{"source":{"id":"S1","type":"journal"}}}`
	fresh := `{"id":"W1","type":"article","publication_year":2020,"cited_by_count":99,"primary_location":{"source":{"id":"S1","type":"journal"}}}`
	writePart(t, snapDir, "2024-01-01", "part_000.gz", stale)
	writePart(t, snapDir, "2024-02-01", "part_000.gz", fresh)

	stats, err := Run(Options{
		SnapshotDir: snapDir,
		OutputDir:   outDir,
		StartYear:   2018,
		EndYear:     2025,
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorksKept != 1 || stats.Duplicates != 1 {
		t.Errorf("kept=%d dupes=%d, want 1/1", stats.WorksKept, stats.Duplicates)
	}

	rows := scanAll(t, outDir)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := rows[0]["citations_total"]; got != int64(99) {
		t.Errorf("citations_total = %v, want 99 from the newest snapshot", got)
	}
}

func TestRunDeduplicatesAcrossDates(t *testing.T) {
	snapDir := t.TempDir()
	outDir := t.TempDir()

	writePart(t, snapDir, "2024-01-01", "part_000.gz", journalWork("W1", 2020, ""))

	opts := Options{SnapshotDir: snapDir, OutputDir: outDir, StartYear: 2018, EndYear: 2025}
	if _, err := Run(opts); err != nil {
		t.Fatal(err)
	}

	// A later snapshot re-lists W1; only W9 is new.
	writePart(t, snapDir, "2024-02-01", "part_000.gz",
		journalWork("W1", 2020, ""),
		journalWork("W9", 2021, ""),
	)

	stats, err := Run(opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorksKept != 1 || stats.Duplicates != 1 {
		t.Errorf("kept=%d dupes=%d, want 1/1", stats.WorksKept, stats.Duplicates)
	}
	if len(scanAll(t, outDir)) != 2 {
		t.Error("W1 appears twice across shards")
	}
}
