package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flattex/flattex/internal/config"
	"github.com/flattex/flattex/internal/flatten"
	"github.com/flattex/flattex/internal/report"
	"github.com/flattex/flattex/internal/watch"
	"github.com/flattex/flattex/internal/writer"
)

var (
	flattenInput      string
	flattenOutput     string
	flattenBestEffort bool
	flattenNoFormat   bool
	flattenWatch      bool
	flattenReport     bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [root-document]",
	Short: "Flatten a LaTeX project into a single document",
	Long: `Merges the inclusion graph of the root document (default main.tex),
strips comments, hoists deduplicated declarations into the preamble, keeps
only cited bibliography entries and referenced assets, and writes the
result to the output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlatten,
}

func init() {
	flattenCmd.Flags().StringVarP(&flattenInput, "input", "i", ".", "project directory")
	flattenCmd.Flags().StringVarP(&flattenOutput, "output", "o", "", "output directory (default <input>-flat)")
	flattenCmd.Flags().BoolVar(&flattenBestEffort, "best-effort", false, "skip missing included files instead of failing")
	flattenCmd.Flags().BoolVar(&flattenNoFormat, "no-format", false, "skip reformatting and reindentation")
	flattenCmd.Flags().BoolVarP(&flattenWatch, "watch", "w", false, "re-run on source changes")
	flattenCmd.Flags().BoolVar(&flattenReport, "report", false, "print the run report to stdout")
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	rootDoc := "main.tex"
	if len(args) == 1 {
		rootDoc = args[0]
	}

	input, err := filepath.Abs(flattenInput)
	if err != nil {
		return fmt.Errorf("resolve input dir: %w", err)
	}
	output := flattenOutput
	if output == "" {
		output = input + "-flat"
	}
	output, err = filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	log := newLogger()

	pipe := config.DefaultPipeline()
	pipe.BestEffort = flattenBestEffort
	if flattenNoFormat {
		pipe.Reformat = false
	}

	run := func() error {
		res, err := flatten.Run(flatten.Options{
			ProjectDir: input,
			RootDoc:    rootDoc,
			Pipeline:   pipe,
		}, log)
		if err != nil {
			return err
		}
		if err := writer.Write(res, output, log); err != nil {
			return err
		}
		for _, w := range res.Diags.Warnings {
			log.Warn(string(w.Kind), "subject", w.Subject, "detail", w.Detail)
		}
		if flattenReport {
			cmd.Print(report.Markdown(res))
		}
		log.Info("flattened", "output", output, "files", len(res.MergedFiles))
		return nil
	}

	if !flattenWatch {
		return run()
	}

	// Watch mode: run once up front, then re-run on changes. A failing run
	// is logged and waited out rather than aborting the watch.
	rerun := func() {
		if err := run(); err != nil {
			log.Error("flattening failed", "error", err)
		}
	}
	rerun()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The output tree is excluded from the watch: writing it would otherwise
	// re-trigger the run it came from.
	if err := watch.Run(ctx, input, []string{output}, log, rerun); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
