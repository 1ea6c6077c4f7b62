// Command mongodbee is the migration engine's command-line surface: a thin
// cobra front end over internal/engine. A consuming project builds its
// own copy of this binary, blank-importing its migrations package so the
// package-level chain.Registry (internal/chain) is populated at init time
// before rootCmd.Execute runs — the same way a goose or ptah project links
// its migration files into a small purpose-built binary rather than
// loading them from a directory at runtime.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/diister/mongodbee/internal/cliutil"
)

var rootCmd = &cobra.Command{
	Use:   "mongodbee",
	Short: "Schema migration engine for MongoDB-family databases",
	Long: `mongodbee applies and rolls back schema migrations against a
MongoDB-family database: collections, multi-collections, multi-model
instances, seed data, document transforms, and indexes, tracked in a
ledger collection so every run is idempotent and resumable.`,
}

var (
	configPath string
	envName    string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to mongodbee.yaml (default: search upward from cwd)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environments.<name> override block to merge in")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of colorized text")
}

func main() {
	// SilenceErrors/SilenceUsage: cliutil.RenderError is the one place that
	// prints a returned error, so cobra's own default error/usage dump
	// never runs alongside it.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		cliutil.RenderError(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
