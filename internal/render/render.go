// Package render draws the icon rasters: one square PNG per distinct pixel
// size, the source scaled onto an opaque white canvas with an optional
// badge overlaid at full extent.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/Mavwarf/iconset/internal/codec"
	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/paths"
)

// Codec decodes source images and encodes finished canvases.
type Codec interface {
	Decode(path string) (image.Image, error)
	Encode(img image.Image) ([]byte, error)
}

// WriteError reports a rendered file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Job describes one render run. Source and Badge are shared read-only by
// every size; Badge may be nil.
type Job struct {
	Source image.Image
	Badge  image.Image
	Sizes  []int
	Dir    string
	Prefix string
}

// Result is the outcome of rendering one size.
type Result struct {
	Size     int
	Path     string
	Duration time.Duration
	Err      error
}

// Renderer renders jobs. The zero value uses the PNG codec, one worker per
// available CPU and a no-op logger.
type Renderer struct {
	Codec   Codec
	Workers int
	Log     zerolog.Logger
}

// New returns a Renderer with the default codec.
func New(workers int, log zerolog.Logger) *Renderer {
	return &Renderer{Codec: codec.PNG{}, Workers: workers, Log: log}
}

func (r *Renderer) codec() Codec {
	if r.Codec == nil {
		return codec.PNG{}
	}
	return r.Codec
}

func (r *Renderer) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Load decodes the source and, if badgePath is non-empty, the badge.
// Both are decoded exactly once per run.
func (r *Renderer) Load(sourcePath, badgePath string) (src, badge image.Image, err error) {
	src, err = r.codec().Decode(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	if badgePath != "" {
		badge, err = r.codec().Decode(badgePath)
		if err != nil {
			return nil, nil, err
		}
	}
	return src, badge, nil
}

// Render renders every size in job concurrently and returns one Result
// per size, in the order of job.Sizes. A failing size never stops the
// others; inspect the results or call Failed.
func (r *Renderer) Render(ctx context.Context, job Job) []Result {
	results := make([]Result, len(job.Sizes))
	g := new(errgroup.Group)
	g.SetLimit(r.workers())

	for i, size := range job.Sizes {
		results[i] = Result{Size: size, Path: filepath.Join(job.Dir, entry.FileName(job.Prefix, size))}
		g.Go(func() error {
			res := &results[i]
			if err := ctx.Err(); err != nil {
				res.Err = err
				return nil
			}
			start := time.Now()
			res.Err = r.renderOne(job, size, res.Path)
			res.Duration = time.Since(start)
			r.logResult(*res)
			return nil
		})
	}
	g.Wait()
	return results
}

func (r *Renderer) renderOne(job Job, size int, path string) error {
	if size <= 0 {
		return fmt.Errorf("render: invalid size %d", size)
	}
	if job.Source == nil {
		return errors.New("render: no source image")
	}
	canvas := Compose(job.Source, job.Badge, size)
	data, err := r.codec().Encode(canvas)
	if err != nil {
		return err
	}
	if err := paths.AtomicWrite(path, data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (r *Renderer) logResult(res Result) {
	if res.Err != nil {
		r.Log.Error().Int("size", res.Size).Str("file", res.Path).Err(res.Err).Msg("render failed")
		return
	}
	r.Log.Info().Int("size", res.Size).Str("file", filepath.Base(res.Path)).
		Dur("took", res.Duration).Msg("rendered")
}

// Compose returns a size×size canvas filled opaque white with src scaled
// to cover it using Catmull-Rom resampling, and badge, if non-nil, scaled
// over the same extent.
func Compose(src, badge image.Image, size int) *image.RGBA {
	rect := image.Rect(0, 0, size, size)
	dst := image.NewRGBA(rect)
	draw.Draw(dst, rect, image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Over, nil)
	if badge != nil {
		draw.CatmullRom.Scale(dst, rect, badge, badge.Bounds(), draw.Over, nil)
	}
	return dst
}

// Failed joins the errors of all failed results, or returns nil.
func Failed(results []Result) error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("size %d: %w", res.Size, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Written returns the paths of the results that succeeded.
func Written(results []Result) []string {
	var out []string
	for _, res := range results {
		if res.Err == nil {
			out = append(out, res.Path)
		}
	}
	return out
}
