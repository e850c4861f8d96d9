package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLayout(t *testing.T) {
	l := Layout{Target: "/out"}
	tests := []struct {
		got, want string
	}{
		{l.CatalogDir(), filepath.Join("/out", "AppIcon.xcassets")},
		{l.IconSetDir(), filepath.Join("/out", "AppIcon.xcassets", "AppIcon.appiconset")},
		{l.OuterManifest(), filepath.Join("/out", "AppIcon.xcassets", "Contents.json")},
		{l.InnerManifest(), filepath.Join("/out", "AppIcon.xcassets", "AppIcon.appiconset", "Contents.json")},
		{l.Raster("AppIcon-40x40.png"), filepath.Join("/out", "AppIcon.xcassets", "AppIcon.appiconset", "AppIcon-40x40.png")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLayoutCreate(t *testing.T) {
	l := Layout{Target: t.TempDir()}
	if err := l.Create(); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(l.IconSetDir()); err != nil || !fi.IsDir() {
		t.Fatalf("icon set dir not created: %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "Contents.json")

	if err := AtomicWrite(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestDataDirUsesAPPDATA(t *testing.T) {
	t.Setenv("APPDATA", "/fake/appdata")
	got := DataDir()
	want := filepath.Join("/fake/appdata", AppDirName)
	if got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDirFallsBackWithoutAPPDATA(t *testing.T) {
	t.Setenv("APPDATA", "")
	got := DataDir()

	// Should use ~/.config/iconset or temp dir; either way it must end with "iconset".
	if filepath.Base(got) != AppDirName {
		t.Errorf("DataDir() = %q, expected base dir %q", got, AppDirName)
	}
}

func TestHistoryPath(t *testing.T) {
	t.Setenv("APPDATA", "/fake/appdata")
	want := filepath.Join("/fake/appdata", AppDirName, HistoryFileName)
	if got := HistoryPath(); got != want {
		t.Errorf("HistoryPath() = %q, want %q", got, want)
	}
}
