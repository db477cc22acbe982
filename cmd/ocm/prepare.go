package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ocametrics/ocm/internal/config"
	"github.com/ocametrics/ocm/internal/dedupe"
	"github.com/ocametrics/ocm/internal/scielo"
)

func init() {
	rootCmd.AddCommand(prepareCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Deduplicate the regional corpus into canonical articles",
	Long: `Load the regional corpus, merge duplicate records of the same article
across collections and language versions, and write the canonical
articles to the merged corpus file.`,
	RunE: runPrepare,
}

// PrepareResult is the response for the prepare command.
type PrepareResult struct {
	Status    string            `json:"status"`
	Documents int               `json:"documents"`
	Skipped   scielo.SkipCounts `json:"skipped"`
	Articles  int               `json:"articles"`
	Merged    int               `json:"merged"`
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	result := prepare(cfg)

	if humanOutput {
		outputHuman("prepared %d articles from %d documents (%d merged, %d skipped)\n",
			result.Articles, result.Documents, result.Merged, result.Skipped.Total())
		return nil
	}
	return outputJSON(result)
}

// prepare runs the dedup stage and returns its counters. Shared with
// the run command.
func prepare(cfg *config.Config) PrepareResult {
	docs, skips, err := scielo.LoadDocuments(cfg.RegionalCorpus, cfg.StartYear, cfg.EndYear)
	if err != nil {
		exitWithError(ExitDataError, "loading regional corpus: %v", err)
	}

	opts := dedupe.Options{Strategies: cfg.MergeStrategies()}
	if cfg.AuditLog != "" {
		audit, err := os.Create(cfg.AuditLog)
		if err != nil {
			exitWithError(ExitError, "creating audit log: %v", err)
		}
		defer audit.Close()
		opts.Audit = audit
	}

	articles, err := dedupe.Merge(docs, opts)
	if err != nil {
		exitWithError(ExitDataError, "merging documents: %v", err)
	}

	if err := scielo.WriteArticles(cfg.MergedCorpus, articles); err != nil {
		exitWithError(ExitError, "writing merged corpus: %v", err)
	}

	return PrepareResult{
		Status:    "ok",
		Documents: len(docs),
		Skipped:   skips,
		Articles:  len(articles),
		Merged:    len(docs) - len(articles),
	}
}
