package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mavwarf/iconset/internal/codec"
	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/history"
	"github.com/Mavwarf/iconset/internal/idiom"
	"github.com/Mavwarf/iconset/internal/manifest"
	"github.com/Mavwarf/iconset/internal/render"
)

func writeSource(t *testing.T, dir string, size int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	p := filepath.Join(dir, "source.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func baseOptions(t *testing.T, selector string) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		Source: writeSource(t, dir, 128),
		Target: filepath.Join(dir, "out"),
		Idioms: selector,
		Prefix: entry.DefaultPrefix,
		Info:   manifest.DefaultInfo(),
		Log:    zerolog.Nop(),
	}
}

func pngNames(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names
}

func TestRunRoundTrip(t *testing.T) {
	o := baseOptions(t, "all")
	rep, err := Run(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Entries) != 28 || len(rep.Sizes) != 20 {
		t.Fatalf("entries=%d sizes=%d, want 28 and 20", len(rep.Entries), len(rep.Sizes))
	}
	if rep.Status() != history.StatusOK {
		t.Errorf("Status() = %q", rep.Status())
	}

	data, err := os.ReadFile(rep.Layout.InnerManifest())
	if err != nil {
		t.Fatal(err)
	}
	var doc manifest.Contents
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	written := pngNames(t, rep.Layout.IconSetDir())
	have := map[string]bool{}
	for _, n := range written {
		have[n] = true
	}
	for _, img := range doc.Images {
		if !have[img.Filename] {
			t.Errorf("manifest references %s which was not written", img.Filename)
		}
	}

	var want []string
	for _, px := range entry.PixelSizes(rep.Entries) {
		want = append(want, entry.FileName(entry.DefaultPrefix, px))
	}
	sort.Strings(want)
	if len(written) != len(want) {
		t.Fatalf("wrote %d files, want %d", len(written), len(want))
	}
	for i := range want {
		if written[i] != want[i] {
			t.Errorf("file %d = %s, want %s", i, written[i], want[i])
		}
	}

	if _, err := os.Stat(rep.Layout.OuterManifest()); err != nil {
		t.Errorf("outer manifest missing: %v", err)
	}
}

func TestRunDeterministicManifest(t *testing.T) {
	read := func(selector string) []byte {
		o := baseOptions(t, selector)
		rep, err := Run(context.Background(), o)
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(rep.Layout.InnerManifest())
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	a := read("iphone,watch")
	b := read("watch,phone,iphone")
	if !bytes.Equal(a, b) {
		t.Fatal("manifests differ for equivalent selectors")
	}
}

func TestRunInvalidIdiomDoesNoWork(t *testing.T) {
	o := baseOptions(t, "iphone,tv")
	_, err := Run(context.Background(), o)
	var ie *idiom.InvalidIdiomError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvalidIdiomError, got %v", err)
	}
	if _, err := os.Stat(o.Target); !os.IsNotExist(err) {
		t.Fatalf("target should not exist, stat err = %v", err)
	}
}

func TestRunMissingSource(t *testing.T) {
	o := baseOptions(t, "iphone")
	o.Source = filepath.Join(t.TempDir(), "missing.png")
	_, err := Run(context.Background(), o)
	var de *codec.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if _, err := os.Stat(o.Target); !os.IsNotExist(err) {
		t.Fatalf("target should not exist, stat err = %v", err)
	}
}

func TestRunBadBadge(t *testing.T) {
	o := baseOptions(t, "iphone")
	o.Badge = filepath.Join(t.TempDir(), "badge.png")
	_, err := Run(context.Background(), o)
	var de *codec.DecodeError
	if !errors.As(err, &de) || de.Path != o.Badge {
		t.Fatalf("expected DecodeError for badge, got %v", err)
	}
}

func TestRunDirectoryError(t *testing.T) {
	o := baseOptions(t, "marketing")
	if err := os.WriteFile(o.Target, []byte("file"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Run(context.Background(), o)
	var de *DirectoryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DirectoryError, got %v", err)
	}
}

type failCodec struct{ size int }

func (c failCodec) Decode(path string) (image.Image, error) { return codec.Decode(path) }

func (c failCodec) Encode(img image.Image) ([]byte, error) {
	if img.Bounds().Dx() == c.size {
		return nil, &codec.EncodeError{Size: c.size, Err: errors.New("disk on fire")}
	}
	return codec.EncodePNG(img)
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return n.err
}

func TestRunPartialFailure(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	notifier := &recordingNotifier{}

	o := baseOptions(t, "iphone")
	o.Renderer = &render.Renderer{Codec: failCodec{size: 120}, Workers: 2, Log: zerolog.Nop()}
	o.History = store
	o.Notifiers = []Notifier{notifier, &recordingNotifier{err: errors.New("offline")}}

	rep, err := Run(context.Background(), o)
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PartialError, got %v", err)
	}
	if pe.Failed != 1 || pe.Total != 7 {
		t.Errorf("PartialError = %d/%d, want 1/7", pe.Failed, pe.Total)
	}
	var ee *codec.EncodeError
	if !errors.As(err, &ee) {
		t.Errorf("expected wrapped EncodeError, got %v", err)
	}
	if rep == nil || rep.Status() != history.StatusPartial {
		t.Fatalf("unexpected report %+v", rep)
	}
	if n := len(pngNames(t, rep.Layout.IconSetDir())); n != 6 {
		t.Errorf("wrote %d files, want 6", n)
	}

	runs, err := store.Runs(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != rep.RunID || runs[0].Status != history.StatusPartial {
		t.Fatalf("unexpected history %+v", runs)
	}
	outs, err := store.Outputs(rep.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 7 {
		t.Fatalf("expected 7 outputs, got %d", len(outs))
	}

	if len(notifier.payloads) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(notifier.payloads))
	}
	var s Summary
	if err := json.Unmarshal(notifier.payloads[0], &s); err != nil {
		t.Fatal(err)
	}
	if s.RunID != rep.RunID || s.Status != history.StatusPartial || len(s.Failed) != 1 || s.Failed[0].Size != 120 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestRunWithBadge(t *testing.T) {
	o := baseOptions(t, "marketing")
	badge := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 3; i < len(badge.Pix); i += 4 {
		badge.Pix[i] = 255 // opaque black
	}
	o.Badge = filepath.Join(t.TempDir(), "badge.png")
	f, err := os.Create(o.Badge)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, badge); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rep, err := Run(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	out, err := codec.Decode(rep.Results[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 1024 {
		t.Fatalf("width = %d, want 1024", out.Bounds().Dx())
	}
	r, g, b, _ := out.At(512, 512).RGBA()
	if r>>8 > 1 || g>>8 > 1 || b>>8 > 1 {
		t.Errorf("opaque black badge not on top: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestPlan(t *testing.T) {
	entries, sizes, err := Plan("ipad", "X-")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 9 {
		t.Errorf("entries = %d, want 9", len(entries))
	}
	want := []int{20, 29, 40, 58, 76, 80, 152, 167}
	if len(sizes) != len(want) {
		t.Fatalf("sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("sizes = %v, want %v", sizes, want)
		}
	}
}
