// Package main provides the ocm CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ocametrics/ocm/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the pipeline config file shared by every subcommand.
var configPath string

const defaultConfigPath = "pipeline.yml"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocm",
	Short: "Regional citation metrics pipeline",
	Long: `ocm builds citation metrics for a regional scholarly corpus.

It deduplicates the regional corpus into canonical articles, matches
them by DOI against a sharded global works index, and writes a merged
dataset in which each matched article appears exactly once. All commands
output JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Pipeline config file")
	rootCmd.Version = Version
}

// loadPipelineConfig loads the pipeline config. The OCM_CONFIG
// environment variable overrides the default path when --config was not
// given explicitly.
func loadPipelineConfig() *config.Config {
	_ = godotenv.Load()

	path := configPath
	if env := os.Getenv("OCM_CONFIG"); env != "" && path == defaultConfigPath {
		path = env
	}

	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
