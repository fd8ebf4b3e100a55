package cli

import (
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configPath string
	dbPath     string
	verbose    bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "consoleblue",
	Short: "ConsoleBlue onboarding document assembly and publishing",
	Long: `ConsoleBlue assembles each project's onboarding document (CLAUDE.md)
from shared and project fragments and publishes it to the project's
repository.

Main features:
  - Fragments: shared and per-project document blocks
  - Generation: starter docs rendered from project metadata
  - Publishing: commit the assembled document and keep a push history
  - Analytics: DuckDB reports over the push history`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.consoleblue/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "JSON output")
}

// IsVerbose returns verbose flag
func IsVerbose() bool {
	return verbose
}

// IsJSON returns json output flag
func IsJSON() bool {
	return jsonOut
}
