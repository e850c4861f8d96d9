// Package entry models a single app icon slot (base size, scale, idiom) and
// resolves requested idioms into the sorted, deduplicated slot list that
// drives both the manifest and the renderer.
package entry

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultPrefix is the file name prefix used when none is configured.
const DefaultPrefix = "AppIcon-"

// Entry is one icon slot of an app icon set.
type Entry struct {
	BaseSize float64 // points
	Scale    int
	Idiom    string // manifest label, e.g. "iphone" or "ios-marketing"
	Prefix   string
}

// Key identifies an entry for deduplication. BaseSize is stored in
// hundredths of a point so that 27.5 and 83.5 compare exactly; the prefix
// is deliberately not part of identity.
type Key struct {
	Centipoints int64
	Idiom       string
	Scale       int
}

// New returns an entry after checking the size and scale invariants.
func New(base float64, scale int, label, prefix string) (Entry, error) {
	if !(base > 0) || math.IsInf(base, 0) {
		return Entry{}, fmt.Errorf("entry: base size must be positive, got %v", base)
	}
	if scale < 1 || scale > 3 {
		return Entry{}, fmt.Errorf("entry: scale must be 1, 2 or 3, got %d", scale)
	}
	if label == "" {
		return Entry{}, fmt.Errorf("entry: empty idiom label")
	}
	return Entry{BaseSize: base, Scale: scale, Idiom: label, Prefix: prefix}, nil
}

// Key returns the identity of e.
func (e Entry) Key() Key {
	return Key{
		Centipoints: int64(math.Round(e.BaseSize * 100)),
		Idiom:       e.Idiom,
		Scale:       e.Scale,
	}
}

// PixelSize is the base size multiplied by the scale. It may be fractional.
func (e Entry) PixelSize() float64 {
	return e.BaseSize * float64(e.Scale)
}

// Pixels is the pixel size rounded to the nearest integer.
func (e Entry) Pixels() int {
	return int(math.Round(e.PixelSize()))
}

// FileName returns the raster file name, e.g. "AppIcon-120x120.png".
func (e Entry) FileName() string {
	return FileName(e.Prefix, e.Pixels())
}

// FileName builds the raster file name for a prefix and pixel size.
func FileName(prefix string, px int) string {
	return fmt.Sprintf("%s%dx%d.png", prefix, px, px)
}

// DisplaySize formats the base size for the manifest: one decimal place,
// with a trailing ".0" dropped ("29", "83.5").
func (e Entry) DisplaySize() string {
	s := strings.TrimSuffix(strconv.FormatFloat(e.BaseSize, 'f', 1, 64), ".0")
	return s + "x" + s
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %vpt @%dx (%dpx)", e.Idiom, e.BaseSize, e.Scale, e.Pixels())
}

// Less orders entries by idiom label, then scale, then base size.
func Less(a, b Entry) bool {
	if a.Idiom != b.Idiom {
		return a.Idiom < b.Idiom
	}
	if a.Scale != b.Scale {
		return a.Scale < b.Scale
	}
	return a.BaseSize < b.BaseSize
}

// Sort sorts entries in place using Less.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
}
