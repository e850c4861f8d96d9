package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/idiom"
)

func resolve(t *testing.T, sel string) []entry.Entry {
	t.Helper()
	entries, err := entry.ResolveSelector(sel, entry.DefaultPrefix)
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestMarshalMarketing(t *testing.T) {
	got, err := Marshal(New(resolve(t, "marketing"), DefaultInfo()))
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "images": [
    {
      "size": "1024x1024",
      "idiom": "ios-marketing",
      "filename": "AppIcon-1024x1024.png",
      "scale": "1x"
    }
  ],
  "info": {
    "version": 1,
    "author": "iconset"
  }
}
`
	if string(got) != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarshalOuterHasNoImages(t *testing.T) {
	got, err := Marshal(Outer(Info{Version: 1, Author: "ci"}))
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "info": {
    "version": 1,
    "author": "ci"
  }
}
`
	if string(got) != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFromEntryFractional(t *testing.T) {
	e := entry.Entry{BaseSize: 83.5, Scale: 2, Idiom: "ipad", Prefix: "AppIcon-"}
	want := Image{Size: "83.5x83.5", Idiom: "ipad", Filename: "AppIcon-167x167.png", Scale: "2x"}
	if got := FromEntry(e); got != want {
		t.Fatalf("FromEntry = %+v, want %+v", got, want)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(New(resolve(t, "all"), DefaultInfo()))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(New(resolve(t, "marketing,watch,all,iphone"), DefaultInfo()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("manifest output differs for equivalent selections")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	outer := filepath.Join(dir, "AppIcon.xcassets", "Contents.json")
	inner := filepath.Join(dir, "AppIcon.xcassets", "AppIcon.appiconset", "Contents.json")
	entries, err := entry.Resolve([]idiom.Idiom{idiom.Phone}, "P-")
	if err != nil {
		t.Fatal(err)
	}

	if err := Write(entries, DefaultInfo(), outer, inner); err != nil {
		t.Fatal(err)
	}

	var innerDoc Contents
	data, err := os.ReadFile(inner)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &innerDoc); err != nil {
		t.Fatal(err)
	}
	if len(innerDoc.Images) != 8 {
		t.Fatalf("inner manifest has %d images, want 8", len(innerDoc.Images))
	}
	if innerDoc.Images[0].Filename != "P-40x40.png" {
		t.Errorf("first filename = %q, want P-40x40.png", innerDoc.Images[0].Filename)
	}

	var outerDoc map[string]json.RawMessage
	data, err = os.ReadFile(outer)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &outerDoc); err != nil {
		t.Fatal(err)
	}
	if _, ok := outerDoc["images"]; ok {
		t.Error("outer manifest must not contain images")
	}
	if _, ok := outerDoc["info"]; !ok {
		t.Error("outer manifest missing info")
	}
}

func TestWriteRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := Write(nil, DefaultInfo(), filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")); err == nil {
		t.Fatal("expected error for empty entry list")
	}
}
