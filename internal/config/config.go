// Package config loads the pipeline configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ocametrics/ocm/internal/dedupe"
	"github.com/ocametrics/ocm/internal/oaindex"
)

// Config describes one pipeline run: where the inputs live, where the
// outputs go, and the knobs shared by every stage.
type Config struct {
	// Inputs.
	SnapshotDir    string `yaml:"snapshot_dir"`    // raw snapshot dumps, for extraction
	ShardsDir      string `yaml:"shards_dir"`      // global index shard directory
	RegionalCorpus string `yaml:"regional_corpus"` // regional documents, JSONL

	// Outputs.
	MergedCorpus string `yaml:"merged_corpus"` // deduplicated regional articles, JSONL
	OutputFile   string `yaml:"output_file"`   // merged dataset shard
	AuditLog     string `yaml:"audit_log"`     // DOI merge decisions, JSONL
	ReportFile   string `yaml:"report_file"`   // run report, JSON

	StartYear  int      `yaml:"start_year"`
	EndYear    int      `yaml:"end_year"`
	Strategies []string `yaml:"strategies"`
	BatchSize  int      `yaml:"batch_size"`
	Workers    int      `yaml:"workers"`
}

// Load reads and validates a pipeline config from path, filling in
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StartYear == 0 {
		c.StartYear = 2018
	}
	if c.EndYear == 0 {
		c.EndYear = time.Now().Year()
	}
	if c.BatchSize == 0 {
		c.BatchSize = oaindex.DefaultBatchSize
	}
	if c.Strategies == nil {
		for _, s := range dedupe.DefaultStrategies {
			c.Strategies = append(c.Strategies, string(s))
		}
	}

	c.SnapshotDir = ExpandPath(c.SnapshotDir)
	c.ShardsDir = ExpandPath(c.ShardsDir)
	c.RegionalCorpus = ExpandPath(c.RegionalCorpus)
	c.MergedCorpus = ExpandPath(c.MergedCorpus)
	c.OutputFile = ExpandPath(c.OutputFile)
	c.AuditLog = ExpandPath(c.AuditLog)
	c.ReportFile = ExpandPath(c.ReportFile)
}

func (c *Config) validate() error {
	if c.StartYear > c.EndYear {
		return fmt.Errorf("start_year %d is after end_year %d", c.StartYear, c.EndYear)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", c.BatchSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for _, s := range c.Strategies {
		if !dedupe.ValidStrategy(dedupe.Strategy(s)) {
			return fmt.Errorf("unknown merge strategy %q", s)
		}
	}
	return nil
}

// MergeStrategies returns the configured strategies as typed values.
func (c *Config) MergeStrategies() []dedupe.Strategy {
	out := make([]dedupe.Strategy, len(c.Strategies))
	for i, s := range c.Strategies {
		out[i] = dedupe.Strategy(s)
	}
	return out
}

// ExpandPath expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
