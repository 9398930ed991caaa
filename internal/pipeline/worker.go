package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/longform/internal/export"
	"github.com/dgallion1/longform/internal/store"
	"github.com/dgallion1/longform/internal/vault"
)

// History records finished exports. *store.Store implements it.
type History interface {
	Record(ctx context.Context, r store.Record) error
}

// Worker runs export jobs one at a time.
type Worker struct {
	vault     vault.Vault
	history   History
	outputDir string
	bufSize   int
	log       *slog.Logger
}

func NewWorker(v vault.Vault, history History, outputDir string, bufSize int, log *slog.Logger) *Worker {
	return &Worker{
		vault:     v,
		history:   history,
		outputDir: outputDir,
		bufSize:   bufSize,
		log:       log,
	}
}

// Process runs one export pass and writes its files.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "root", job.Root)
	settings := job.Settings()
	start := time.Now()

	rec := store.Record{ID: job.ID, Root: job.Root, Backend: string(settings.Backend), CreatedAt: job.CreatedAt}
	defer func() {
		rec.Duration = time.Since(start)
		if w.history == nil {
			return
		}
		// The job context may already be cancelled; history is best effort.
		if err := w.history.Record(context.WithoutCancel(ctx), rec); err != nil {
			log.Warn("history write failed", "error", err)
		}
	}()

	// Phase 1: resolve and render.
	job.SetStatus(StatusResolving, "unrolling")
	var opts []export.Option
	if w.bufSize > 0 {
		opts = append(opts, export.WithBufferSize(w.bufSize))
	}
	exp := export.New(w.vault, settings, log, opts...)
	res, err := exp.Export(ctx, job.Root)
	if err != nil {
		log.Error("export failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "unrolling")
		rec.Error = err.Error()
		return
	}
	rec.Root = res.Root
	rec.Title = res.Title
	rec.Labels = len(res.Labels)
	rec.Media = len(res.Media)
	rec.BibKeys = len(res.BibKeys)
	job.SetCounts(res.Title, len(res.Labels), len(res.Media), len(res.BibKeys))

	// Phase 2: write files.
	job.SetStatus(StatusWriting, "writing")
	writer := export.NewWriter(w.vault, settings, w.outputDir, log)
	written, err := writer.Write(ctx, res, exp.Backend())
	rec.Warnings = res.Warnings
	for _, warn := range res.Warnings {
		job.AddWarnings(warn.String())
	}
	if written == nil {
		log.Error("write failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "writing")
		rec.Error = err.Error()
		return
	}
	rec.OutputFile = written.OutputFile
	job.SetOutput(written.OutputFile, ContentHashHex([]byte(res.Output)), written.Message)

	switch {
	case err != nil:
		// Files are in place but the post command failed.
		log.Error("post command failed", "error", err, "output", written.CommandOutput)
		job.AddError(err.Error())
		rec.Error = err.Error()
		job.SetStatus(StatusPartial, "done")
	case len(res.Warnings) > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("job finished", "warnings", len(res.Warnings), "duration", time.Since(start))
}
