// Package batch runs a task list through a speech provider and saves each result.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"speechbatch/pkg/assets"
	"speechbatch/pkg/config"
	"speechbatch/pkg/tasks"
	"speechbatch/pkg/tts"
)

// Options controls runner behaviour.
type Options struct {
	OnError  string        // config.OnErrorContinue or config.OnErrorHalt
	Timeout  time.Duration // per synthesis call, zero = none
	AssetDir string        // named in the completion message
}

// Runner synthesizes tasks one at a time.
type Runner struct {
	provider tts.Provider
	store    *assets.Store
	out      io.Writer
	opts     Options
	now      func() time.Time
}

// NewRunner creates a runner writing console lines to out.
func NewRunner(p tts.Provider, store *assets.Store, out io.Writer, opts Options) *Runner {
	if opts.OnError == "" {
		opts.OnError = config.OnErrorContinue
	}
	return &Runner{
		provider: p,
		store:    store,
		out:      out,
		opts:     opts,
		now:      time.Now,
	}
}

// Run processes the list in order. Under the halt policy the first failure ends the run
// and is returned; otherwise failures are recorded in the report and the run continues.
// The completion message is printed only when every task was attempted.
func (r *Runner) Run(ctx context.Context, list tasks.List) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Engine:  r.provider.Name(),
		Locale:  list.Locale,
		Started: r.now(),
	}
	mismatch := make(map[string]bool)

	slog.Info("Batch started", "run_id", report.RunID, "engine", report.Engine, "locale", list.Locale, "tasks", list.Len())

	for i, task := range list.Tasks {
		if err := ctx.Err(); err != nil {
			report.Pending = slices.Clone(list.Tasks[i:])
			report.Finished = r.now()
			slog.Warn("Batch cancelled", "done", report.Total(), "total", list.Len())
			return report, err
		}

		res := r.runTask(ctx, list.Locale, task)
		report.Results = append(report.Results, res)

		if res.Err != nil {
			fmt.Fprintf(r.out, "Failed: %s: %v\n", task.Filename, res.Err)
			slog.Error("Task failed", "file", task.Filename, "kind", tts.KindOf(res.Err), "error", res.Err)
			if r.opts.OnError == config.OnErrorHalt {
				report.Pending = slices.Clone(list.Tasks[i+1:])
				report.Finished = r.now()
				return report, fmt.Errorf("task %s: %w", task.Filename, res.Err)
			}
			continue
		}

		if want := task.Format(); want != "" && res.Format != want {
			key := want + "->" + res.Format
			if !mismatch[key] {
				mismatch[key] = true
				slog.Warn("Provider format differs from file extension; saving as-is", "requested", want, "produced", res.Format)
			}
		}

		fmt.Fprintf(r.out, "Saved: %s\n", task.Filename)
		slog.Debug("Task saved", "file", task.Filename, "path", res.Path, "bytes", res.Bytes, "duration", res.Duration)
	}

	report.Finished = r.now()

	fmt.Fprintln(r.out, CompletionMessage(r.opts.AssetDir, list.Locale))
	if !report.OK() {
		fmt.Fprintf(r.out, "Summary: %d/%d succeeded\n", report.Succeeded(), report.Total())
	}

	slog.Info("Batch finished",
		"run_id", report.RunID,
		"succeeded", report.Succeeded(),
		"failed", len(report.Failed()),
		"bytes", report.Bytes(),
		"elapsed", report.Finished.Sub(report.Started).Round(time.Millisecond))
	return report, nil
}

func (r *Runner) runTask(ctx context.Context, locale string, task tasks.Task) Result {
	start := r.now()
	res := Result{Task: task}

	callCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	audio, err := r.provider.Synthesize(callCtx, task.Text, locale, task.Format())
	if err != nil {
		res.Err = err
		res.Duration = r.now().Sub(start)
		return res
	}
	if audio == nil || audio.Size() == 0 {
		res.Err = tts.NewError(tts.ProviderUnavailable, r.provider.Name(), 0, tts.ErrEmptyAudio)
		res.Duration = r.now().Sub(start)
		return res
	}

	path, err := r.store.Write(task.Filename, audio.Data)
	res.Duration = r.now().Sub(start)
	if err != nil {
		res.Err = err
		return res
	}

	res.Path = path
	res.Bytes = audio.Size()
	res.Format = audio.Format
	return res
}

// CompletionMessage is the line printed after the last task.
// An empty assetDir falls back to assets/audios/<language>/.
func CompletionMessage(assetDir, locale string) string {
	if assetDir == "" {
		assetDir = "assets/audios/" + tts.BaseLanguage(locale) + "/"
	}
	return fmt.Sprintf("All done! Move the generated files to your %s directory.", assetDir)
}
