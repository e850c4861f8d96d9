// Package pipeline runs a complete icon set generation: resolve the
// requested idioms, decode the inputs, write both manifests, render every
// distinct size and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/history"
	"github.com/Mavwarf/iconset/internal/manifest"
	"github.com/Mavwarf/iconset/internal/paths"
	"github.com/Mavwarf/iconset/internal/render"
)

// DirectoryError reports an output directory that could not be created.
// Nothing is rendered when it occurs.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// PartialError reports a run in which some sizes failed and the rest were
// written.
type PartialError struct {
	Failed int
	Total  int
	Err    error // joined per-size errors
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d sizes failed: %v", e.Failed, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Options configures a run.
type Options struct {
	Source  string // required
	Badge   string // optional overlay
	Target  string // directory receiving AppIcon.xcassets
	Idioms  string // comma-separated selector
	Prefix  string
	Info    manifest.Info
	Workers int // 0 = one per CPU

	Renderer  *render.Renderer // nil = default PNG renderer
	History   history.Store    // nil = not recorded
	Notifiers []Notifier
	Log       zerolog.Logger
}

// Report describes a finished run.
type Report struct {
	RunID    string
	Layout   paths.Layout
	Entries  []entry.Entry
	Sizes    []int
	Results  []render.Result
	Started  time.Time
	Duration time.Duration
}

// Failures counts the sizes that failed to render.
func (r *Report) Failures() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Status summarizes the report for history and notices.
func (r *Report) Status() history.Status {
	switch n := r.Failures(); {
	case n == 0:
		return history.StatusOK
	case n == len(r.Results):
		return history.StatusFailed
	default:
		return history.StatusPartial
	}
}

// Plan resolves a selector without touching the filesystem.
func Plan(selector, prefix string) ([]entry.Entry, []int, error) {
	entries, err := entry.ResolveSelector(selector, prefix)
	if err != nil {
		return nil, nil, err
	}
	return entries, entry.PixelSizes(entries), nil
}

// Run generates the icon set described by o.
//
// Invalid idioms, unreadable inputs, directory and manifest failures stop
// the run and are returned as is. Per-size render failures do not: every
// size is attempted and the failures come back as a *PartialError along
// with the report.
func Run(ctx context.Context, o Options) (*Report, error) {
	log := o.Log
	if o.Source == "" {
		return nil, errors.New("pipeline: no source image")
	}

	entries, sizes, err := Plan(o.Idioms, o.Prefix)
	if err != nil {
		return nil, err
	}

	r := o.Renderer
	if r == nil {
		r = render.New(o.Workers, log)
	}
	src, badge, err := r.Load(o.Source, o.Badge)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:   uuid.NewString(),
		Layout:  paths.Layout{Target: o.Target},
		Entries: entries,
		Sizes:   sizes,
		Started: time.Now(),
	}
	log = log.With().Str("run", rep.RunID).Logger()

	if err := rep.Layout.Create(); err != nil {
		return nil, &DirectoryError{Path: rep.Layout.IconSetDir(), Err: err}
	}

	rec := recorder{store: o.History, log: log}
	rec.begin(history.Run{
		ID:      rep.RunID,
		Started: rep.Started,
		Source:  o.Source,
		Badge:   o.Badge,
		Idioms:  o.Idioms,
		Prefix:  o.Prefix,
		Target:  o.Target,
		Entries: len(entries),
	})

	if err := manifest.Write(entries, o.Info, rep.Layout.OuterManifest(), rep.Layout.InnerManifest()); err != nil {
		rec.finish(rep.RunID, history.StatusFailed, err.Error(), nil)
		return nil, err
	}
	log.Debug().Int("entries", len(entries)).Str("file", rep.Layout.InnerManifest()).Msg("manifest written")

	rep.Results = r.Render(ctx, render.Job{
		Source: src,
		Badge:  badge,
		Sizes:  sizes,
		Dir:    rep.Layout.IconSetDir(),
		Prefix: o.Prefix,
	})
	rep.Duration = time.Since(rep.Started)

	var runErr error
	if n := rep.Failures(); n > 0 {
		runErr = &PartialError{Failed: n, Total: len(rep.Results), Err: render.Failed(rep.Results)}
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	rec.finish(rep.RunID, rep.Status(), errMsg, outputs(rep.Results))
	notifyAll(ctx, o.Notifiers, NewSummary(rep, o), log)

	log.Info().
		Int("entries", len(entries)).
		Int("sizes", len(sizes)).
		Int("failed", rep.Failures()).
		Dur("took", rep.Duration).
		Msg("icon set generated")
	return rep, runErr
}

func outputs(results []render.Result) []history.Output {
	out := make([]history.Output, len(results))
	for i, res := range results {
		out[i] = history.Output{Size: res.Size, Path: res.Path, Duration: res.Duration}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	return out
}

// recorder writes history best-effort: failures are logged, never returned.
type recorder struct {
	store history.Store
	log   zerolog.Logger
}

func (r recorder) begin(run history.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.Begin(run); err != nil {
		r.log.Warn().Err(err).Msg("history: begin")
	}
}

func (r recorder) finish(id string, status history.Status, errMsg string, outs []history.Output) {
	if r.store == nil {
		return
	}
	if err := r.store.Finish(id, status, errMsg, outs); err != nil {
		r.log.Warn().Err(err).Msg("history: finish")
	}
}
