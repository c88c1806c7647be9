package sandbox

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ScopedFS narrows writes to a named subdirectory of an FS root.
type ScopedFS struct {
	fs     *FS
	prefix string
}

// NewScopedFS creates a ScopedFS that accepts only paths under prefix/.
func NewScopedFS(fs *FS, prefix string) *ScopedFS {
	return &ScopedFS{fs: fs, prefix: strings.Trim(filepath.ToSlash(prefix), "/")}
}

// Prefix returns the required leading directory.
func (s *ScopedFS) Prefix() string {
	return s.prefix
}

// Save writes content to p in overwrite mode after a lexical scope check
// that runs before any filesystem access. The normal confinement check
// still applies afterwards.
func (s *ScopedFS) Save(p, content string) (string, error) {
	if !s.InScope(p) {
		return "", pathErr("save_scoped", p, fmt.Errorf("%w: path must be under %s/", ErrAccessDenied, s.prefix))
	}
	return s.fs.Write(p, content, ModeOverwrite)
}

// InScope reports whether p is lexically beneath the scope prefix.
func (s *ScopedFS) InScope(p string) bool {
	if p == "" {
		return false
	}

	rel := p
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(s.fs.Root(), filepath.Clean(p))
		if err != nil {
			return false
		}
		rel = r
	}

	clean := path.Clean(filepath.ToSlash(rel))
	return strings.HasPrefix(clean, s.prefix+"/")
}
