package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/flattex/flattex/internal/config"
	"github.com/flattex/flattex/internal/flatten"
	"github.com/flattex/flattex/internal/report"
	"github.com/flattex/flattex/internal/writer"
)

// Worker processes a single flattening job.
type Worker struct {
	log   *slog.Logger
	pipe  config.Pipeline
	stats *RunStats
}

func NewWorker(log *slog.Logger, pipe config.Pipeline, stats *RunStats) *Worker {
	return &Worker{
		log:   log,
		pipe:  pipe,
		stats: stats,
	}
}

// Process runs the full flattening pipeline for a job.
func (w *Worker) Process(job *Job) {
	log := w.log.With("job_id", job.ID, "project_dir", job.ProjectDir)
	start := time.Now()

	job.SetStatus(StatusRunning, "flattening")
	res, err := flatten.Run(flatten.Options{
		ProjectDir: job.ProjectDir,
		RootDoc:    job.RootDoc,
		Pipeline:   w.pipe,
	}, log)
	if err != nil {
		log.Error("flattening failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "flattening")
		return
	}

	job.SetProgress(len(res.MergedFiles), len(res.Manifest.Preamble),
		len(res.Manifest.Bibliography), len(res.Manifest.Assets), res.Diags.Warnings)

	job.SetStatus(StatusWriting, "writing")
	if err := writer.Write(res, job.OutputDir, log); err != nil {
		log.Error("output write failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "writing")
		return
	}

	job.SetReport(report.Markdown(res))
	job.SetStatus(StatusCompleted, "done")

	w.stats.Record(time.Since(start))
	log.Info("job complete",
		"files", len(res.MergedFiles),
		"warnings", len(res.Diags.Warnings),
		"elapsed", time.Since(start).Round(time.Millisecond))
}
