package paths

import (
	"os"
	"path/filepath"
)

const (
	AppDirName      = "iconset"
	ConfigFileName  = "iconset.json"
	HistoryFileName = "history.db"
	CatalogDirName  = "AppIcon.xcassets"
	IconSetDirName  = "AppIcon.appiconset"
	ContentsName    = "Contents.json"
	DirPerm         = 0755
	FilePerm        = 0644
)

// Layout is the asset catalog tree generated under a target directory:
//
//	{target}/AppIcon.xcassets/Contents.json
//	{target}/AppIcon.xcassets/AppIcon.appiconset/Contents.json
//	{target}/AppIcon.xcassets/AppIcon.appiconset/{prefix}{n}x{n}.png
type Layout struct {
	Target string
}

// CatalogDir is the .xcassets directory.
func (l Layout) CatalogDir() string {
	return filepath.Join(l.Target, CatalogDirName)
}

// IconSetDir is the .appiconset directory holding the rasters.
func (l Layout) IconSetDir() string {
	return filepath.Join(l.CatalogDir(), IconSetDirName)
}

// OuterManifest is the catalog-level Contents.json.
func (l Layout) OuterManifest() string {
	return filepath.Join(l.CatalogDir(), ContentsName)
}

// InnerManifest is the icon-set-level Contents.json.
func (l Layout) InnerManifest() string {
	return filepath.Join(l.IconSetDir(), ContentsName)
}

// Raster returns the path of a rendered file inside the icon set.
func (l Layout) Raster(fileName string) string {
	return filepath.Join(l.IconSetDir(), fileName)
}

// Create makes the catalog and icon set directories.
func (l Layout) Create() error {
	return os.MkdirAll(l.IconSetDir(), DirPerm)
}

// AtomicWrite writes data to path via a temporary file + rename to avoid
// partial writes. The parent directory is created if needed.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, FilePerm); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DataDir returns the platform-specific data directory for iconset:
//   - Windows: %APPDATA%\iconset
//   - Unix:    ~/.config/iconset
//
// Falls back to os.TempDir()/iconset if neither is available.
func DataDir() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, AppDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppDirName)
	}
	return filepath.Join(home, ".config", AppDirName)
}

// HistoryPath is the default location of the run history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), HistoryFileName)
}
