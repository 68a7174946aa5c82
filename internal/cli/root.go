// Package cli wires the flattex commands.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "flattex",
	Short: "Flatten LaTeX projects into a minimal, compilable bundle",
	Long: `flattex merges a multi-file LaTeX project into a single document,
strips comments, prunes unused declarations and uncited bibliography
entries, and copies only the assets the document actually references.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// newLogger builds the command logger. Debug output is opt-in; everything
// goes to stderr so stdout stays clean for reports.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
