package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// Formats with an alpha channel win over opaque ones for the same stem.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for supported textures.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return nil
		}
		idx.Add(path)
		return nil
	})

	return idx
}

// Add indexes one file, keeping an existing alpha-capable entry for the
// same stem.
func (idx *Index) Add(path string) {
	stem := stemOf(path)
	existing, exists := idx.entries[stem]
	if !exists || (!hasAlpha(existing) && hasAlpha(path)) {
		idx.entries[stem] = path
	}
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// stemOf strips any path prefix (either separator) and the extension.
func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func hasAlpha(path string) bool {
	return formats[strings.ToLower(filepath.Ext(path))].alpha
}
