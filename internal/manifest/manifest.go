// Package manifest writes the asset catalog Contents.json documents: the
// icon set manifest listing every slot, and the catalog descriptor that
// carries only the info block.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/paths"
)

// DefaultAuthor is written to the info block when none is configured.
const DefaultAuthor = "iconset"

// Info is the info block shared by both documents.
type Info struct {
	Version int    `json:"version"`
	Author  string `json:"author"`
}

// DefaultInfo returns version 1 with the default author.
func DefaultInfo() Info {
	return Info{Version: 1, Author: DefaultAuthor}
}

// Image is one serialized icon slot. Field order is the key order in the
// written JSON.
type Image struct {
	Size     string `json:"size"`
	Idiom    string `json:"idiom"`
	Filename string `json:"filename"`
	Scale    string `json:"scale"`
}

// Contents is a Contents.json document. The catalog descriptor has no
// images, so the key is omitted there.
type Contents struct {
	Images []Image `json:"images,omitempty"`
	Info   Info    `json:"info"`
}

// FromEntry converts a resolved entry to its manifest form.
func FromEntry(e entry.Entry) Image {
	return Image{
		Size:     e.DisplaySize(),
		Idiom:    e.Idiom,
		Filename: e.FileName(),
		Scale:    fmt.Sprintf("%dx", e.Scale),
	}
}

// New builds the icon set document, keeping the order of entries.
func New(entries []entry.Entry, info Info) Contents {
	images := make([]Image, len(entries))
	for i, e := range entries {
		images[i] = FromEntry(e)
	}
	return Contents{Images: images, Info: info}
}

// Outer builds the catalog descriptor.
func Outer(info Info) Contents {
	return Contents{Info: info}
}

// Marshal renders c as two-space indented JSON with a trailing newline.
// HTML characters are not escaped so file names stay readable.
func Marshal(c Contents) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the catalog descriptor to outerPath and the icon set
// manifest to innerPath. Each file is replaced atomically.
func Write(entries []entry.Entry, info Info, outerPath, innerPath string) error {
	if len(entries) == 0 {
		return errors.New("manifest: no entries")
	}
	inner, err := Marshal(New(entries, info))
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", innerPath, err)
	}
	outer, err := Marshal(Outer(info))
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", outerPath, err)
	}
	if err := paths.AtomicWrite(outerPath, outer); err != nil {
		return fmt.Errorf("manifest: write %s: %w", outerPath, err)
	}
	if err := paths.AtomicWrite(innerPath, inner); err != nil {
		return fmt.Errorf("manifest: write %s: %w", innerPath, err)
	}
	return nil
}
