package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ocametrics/ocm/internal/dedupe"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
shards_dir: /data/shards
regional_corpus: /data/regional.jsonl
output_file: /data/merged.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.StartYear != 2018 {
		t.Errorf("StartYear = %d, want 2018", cfg.StartYear)
	}
	if cfg.EndYear != time.Now().Year() {
		t.Errorf("EndYear = %d, want current year", cfg.EndYear)
	}
	if cfg.BatchSize != 100_000 {
		t.Errorf("BatchSize = %d, want 100000", cfg.BatchSize)
	}
	got := cfg.MergeStrategies()
	want := dedupe.DefaultStrategies
	if len(got) != len(want) {
		t.Fatalf("strategies = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strategy %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
shards_dir: /data/shards
start_year: 2019
end_year: 2022
batch_size: 500
workers: 4
strategies: [doi, title]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartYear != 2019 || cfg.EndYear != 2022 {
		t.Errorf("years = %d..%d, want 2019..2022", cfg.StartYear, cfg.EndYear)
	}
	if cfg.BatchSize != 500 || cfg.Workers != 4 {
		t.Errorf("batch=%d workers=%d", cfg.BatchSize, cfg.Workers)
	}
	strategies := cfg.MergeStrategies()
	if len(strategies) != 2 || strategies[0] != dedupe.StrategyDOI || strategies[1] != dedupe.StrategyTitle {
		t.Errorf("strategies = %v", strategies)
	}
}

func TestLoadEmptyStrategyList(t *testing.T) {
	// An explicit empty list disables every strategy; it must not be
	// replaced with the defaults.
	path := writeConfig(t, `
shards_dir: /data/shards
strategies: []
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Strategies) != 0 {
		t.Errorf("Strategies = %v, want empty", cfg.Strategies)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"inverted years", "start_year: 2022\nend_year: 2019\n"},
		{"negative batch", "batch_size: -1\n"},
		{"negative workers", "workers: -2\n"},
		{"unknown strategy", "strategies: [doi, fuzzy]\n"},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/data/shards"); got != filepath.Join(home, "data/shards") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("ExpandPath changed absolute path: %q", got)
	}
}
