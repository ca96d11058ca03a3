package module

import (
	"os"
	"path/filepath"
)

// FileResolver resolves module specifiers as paths relative to BaseDir (or
// to the importing module's own directory, for a nested import), appending
// a default extension when the specifier has none. Generalizes the
// teacher's unit search-path convention (internal/units.UnitRegistry) from a
// list of search directories to ES's relative-path resolution model, rooted
// at a single base directory for the entry module.
type FileResolver struct {
	BaseDir   string
	Extension string // appended when specifier has no extension; "" disables
}

// NewFileResolver builds a FileResolver rooted at baseDir, defaulting
// Extension to ".js".
func NewFileResolver(baseDir string) *FileResolver {
	return &FileResolver{BaseDir: baseDir, Extension: ".js"}
}

func (f *FileResolver) Resolve(referrer, specifier string) (string, error) {
	dir := f.BaseDir
	if referrer != "" {
		dir = filepath.Dir(referrer)
	}
	path := specifier
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, specifier)
	}
	if f.Extension != "" && filepath.Ext(path) == "" {
		path += f.Extension
	}
	return filepath.Clean(path), nil
}

func (f *FileResolver) Load(resolved string) (string, error) {
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
