// Package main provides the citgraph CLI entry point.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citgraph/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// quiet and verbose control the build progress log level
var (
	quiet   bool
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citgraph",
	Short: "Build citation graphs from Scopus",
	Long: `citgraph builds directed citation graphs from the Scopus database.

Starting from seed document identifiers (DOIs or EIDs), it expands the
graph breadth-first up to a target iteration depth, recording which papers
were discovered at each depth and tallying retrieval failures. Built graphs
are saved as versioned JSON snapshots, optionally mirrored to SQLite, and
exported for Graphistry or Cytoscape.js. All commands output JSON by
default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-item progress")
	rootCmd.Version = Version
}

// buildLogger returns the progress logger selected by --quiet/--verbose.
// Progress goes to stderr; stdout is reserved for command output.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
