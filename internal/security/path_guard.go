package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrAccessDenied is returned when a path resolves outside the confinement root.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidPath is returned for empty paths or paths containing NUL bytes.
	ErrInvalidPath = errors.New("invalid path")
)

// PathGuard confines path resolution to a single root directory.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard rooted at root. The root is made absolute
// and its symlinks are resolved so later comparisons see canonical paths.
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidPath)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	resolved, err := resolveExisting(filepath.Clean(abs))
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	return &PathGuard{root: resolved}, nil
}

// Root returns the canonical confinement root.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve maps p to an absolute canonical path under the root.
// Relative paths are joined to the root; absolute paths are taken as-is.
// Symlinks are followed, and for paths that do not exist yet the nearest
// existing ancestor is resolved instead.
func (g *PathGuard) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: null byte in path", ErrInvalidPath)
	}

	candidate := p
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved, err := resolveExisting(candidate)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return "", fmt.Errorf("%w: %q: %v", ErrAccessDenied, p, err)
		}
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}

	if !Within(g.root, resolved) {
		return "", fmt.Errorf("%w: path %q is outside %s", ErrAccessDenied, p, g.root)
	}

	return resolved, nil
}

// Rel returns the root-relative, slash-separated form of an absolute path
// previously produced by Resolve.
func (g *PathGuard) Rel(abs string) string {
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// Within reports whether target equals base or lies beneath it. The check
// compares whole path segments, so /a/project2 is not within /a/project.
func Within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of p
// and re-appends the missing tail. A dangling symlink on the way is refused
// because its eventual target cannot be checked.
func resolveExisting(p string) (string, error) {
	var tail []string
	cur := p

	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: dangling symlink %s", ErrAccessDenied, cur)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
