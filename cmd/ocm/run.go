package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ocametrics/ocm/internal/report"
)

func init() {
	runCmd.Flags().Bool("extract", false, "Also run snapshot extraction before matching")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run prepare and match back to back, optionally preceded by snapshot
extraction, and write a run report if report_file is configured.`,
	RunE: runPipeline,
}

// RunResult is the response for the run command.
type RunResult struct {
	Status  string         `json:"status"`
	RunID   string         `json:"run_id"`
	Extract *ExtractResult `json:"extract,omitempty"`
	Prepare PrepareResult  `json:"prepare"`
	Match   MatchResult    `json:"match"`
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	withExtract, _ := cmd.Flags().GetBool("extract")

	rep := report.New()
	result := RunResult{Status: "ok", RunID: rep.RunID}

	if withExtract {
		started := time.Now()
		extractResult := runExtraction(cfg)
		result.Extract = &extractResult
		rep.AddStage("extract", started, map[string]int{
			"files_processed": extractResult.FilesProcessed,
			"works_kept":      extractResult.WorksKept,
			"duplicates":      extractResult.Duplicates,
		})
	}

	started := time.Now()
	result.Prepare = prepare(cfg)
	rep.AddStage("prepare", started, map[string]int{
		"documents": result.Prepare.Documents,
		"articles":  result.Prepare.Articles,
		"merged":    result.Prepare.Merged,
		"skipped":   result.Prepare.Skipped.Total(),
	})

	started = time.Now()
	result.Match = match(cfg)
	rep.AddStage("match", started, map[string]int{
		"articles":         result.Match.Articles,
		"matched_articles": result.Match.MatchedArticles,
		"rows_emitted":     result.Match.Output.Emitted(),
		"synthetic":        result.Match.Output.Synthetic,
	})

	if cfg.ReportFile != "" {
		if err := rep.Write(cfg.ReportFile); err != nil {
			exitWithError(ExitError, "writing run report: %v", err)
		}
	}

	if humanOutput {
		outputHuman("run %s complete: %d articles, %d matched, %d rows written\n",
			rep.RunID, result.Prepare.Articles, result.Match.MatchedArticles,
			result.Match.Output.Emitted())
		return nil
	}
	return outputJSON(result)
}
