package main

import (
	"github.com/spf13/cobra"

	"github.com/ocametrics/ocm/internal/config"
	"github.com/ocametrics/ocm/internal/extract"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract global index shards from snapshot dumps",
	Long: `Read the gzip JSONL snapshot dumps under snapshot_dir and write one
shard per part file into shards_dir. Journal articles inside the
configured year range are kept; snapshot dates already extracted are
skipped, so interrupted runs can simply be rerun.`,
	RunE: runExtract,
}

// ExtractResult is the response for the extract command.
type ExtractResult struct {
	Status string `json:"status"`
	*extract.Stats
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	result := runExtraction(cfg)

	if humanOutput {
		outputHuman("extracted %d works from %d files (%d dates, %d skipped, %d duplicates)\n",
			result.WorksKept, result.FilesProcessed, result.DatesProcessed,
			result.DatesSkipped, result.Duplicates)
		return nil
	}
	return outputJSON(result)
}

// runExtraction runs the extraction stage. Shared with the run command.
func runExtraction(cfg *config.Config) ExtractResult {
	if cfg.SnapshotDir == "" {
		exitWithError(ExitConfigError, "snapshot_dir is not configured")
	}

	progress := newProgressPrinter()
	stats, err := extract.Run(extract.Options{
		SnapshotDir: cfg.SnapshotDir,
		OutputDir:   cfg.ShardsDir,
		StartYear:   cfg.StartYear,
		EndYear:     cfg.EndYear,
		Workers:     cfg.Workers,
		Progress: func(shard string, kept int) {
			progress.Printf("wrote %s (%d works)", shard, kept)
		},
	})
	if err != nil {
		exitWithError(ExitDataError, "extracting snapshot: %v", err)
	}

	return ExtractResult{Status: "ok", Stats: stats}
}
