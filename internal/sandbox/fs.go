package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"appforge/internal/fileutil"
	"appforge/internal/security"
)

// FS is the only filesystem surface handed to agents. Every operation
// resolves its target through the guard before touching the disk.
type FS struct {
	guard *security.PathGuard
}

// New creates an FS confined to root.
func New(root string) (*FS, error) {
	guard, err := security.NewPathGuard(root)
	if err != nil {
		return nil, err
	}
	return &FS{guard: guard}, nil
}

// Root returns the confinement root.
func (f *FS) Root() string {
	return f.guard.Root()
}

// Resolve exposes the guard check for callers that only need a safe path.
func (f *FS) Resolve(p string) (string, error) {
	return f.resolve("resolve", p)
}

func (f *FS) resolve(op, p string) (string, error) {
	abs, err := f.guard.Resolve(p)
	if err != nil {
		if errors.Is(err, security.ErrInvalidPath) {
			return "", pathErr(op, p, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
		}
		return "", pathErr(op, p, err)
	}
	return abs, nil
}

// Read returns the content of a regular file.
func (f *FS) Read(p string) (string, error) {
	abs, err := f.resolve("read", p)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", pathErr("read", p, ErrNotFound)
		}
		return "", pathErr("read", p, err)
	}
	if !info.Mode().IsRegular() {
		return "", pathErr("read", p, fmt.Errorf("%w: not a file", ErrWrongType))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", pathErr("read", p, err)
	}
	return string(data), nil
}

// WriteMode selects between replacing and extending a file.
type WriteMode string

const (
	ModeOverwrite WriteMode = "overwrite"
	ModeAppend    WriteMode = "append"
)

// ParseWriteMode accepts "overwrite"/"w" and "append"/"a". An empty string
// means overwrite.
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "w", "overwrite":
		return ModeOverwrite, nil
	case "a", "append":
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("%w: mode must be 'overwrite' or 'append', got %q", ErrInvalidArgument, s)
	}
}

// Write stores content at p, creating missing parent directories.
func (f *FS) Write(p, content string, mode WriteMode) (string, error) {
	if mode != ModeOverwrite && mode != ModeAppend {
		return "", pathErr("write", p, fmt.Errorf("%w: unknown write mode %q", ErrInvalidArgument, mode))
	}

	abs, err := f.resolve("write", p)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", pathErr("write", p, fmt.Errorf("%w: is a directory", ErrWrongType))
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", pathErr("write", p, fmt.Errorf("create parent directories: %w", err))
	}

	if mode == ModeAppend {
		if err := fileutil.AppendString(abs, content, 0644); err != nil {
			return "", pathErr("write", p, err)
		}
		return fmt.Sprintf("Successfully appended to file: %s", p), nil
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fileutil.AtomicWriteString(abs, content, perm); err != nil {
		return "", pathErr("write", p, err)
	}
	return fmt.Sprintf("Successfully written to file: %s", p), nil
}

// Entry is one file in a listing.
type Entry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Listing is the result of List. An empty Entries slice means nothing matched.
type Listing struct {
	Dir     string  `json:"dir"`
	Pattern string  `json:"pattern"`
	Entries []Entry `json:"entries"`
}

// Empty reports whether the pattern matched no files.
func (l Listing) Empty() bool {
	return len(l.Entries) == 0
}

func (l Listing) String() string {
	if l.Empty() {
		return fmt.Sprintf("No files matching pattern '%s' in %s", l.Pattern, l.Dir)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Files in %s:", l.Dir)
	for _, e := range l.Entries {
		fmt.Fprintf(&sb, "\n  - %s (%d bytes)", e.Path, e.Size)
	}
	return sb.String()
}

// List returns the files under dir matching a doublestar pattern, sorted by
// root-relative path.
func (f *FS) List(dir, pattern string) (Listing, error) {
	if dir == "" {
		dir = "."
	}
	if pattern == "" {
		pattern = "*"
	}
	listing := Listing{Dir: dir, Pattern: pattern}

	if !doublestar.ValidatePattern(pattern) {
		return listing, pathErr("list", dir, fmt.Errorf("%w: bad pattern %q", ErrInvalidArgument, pattern))
	}

	abs, err := f.resolve("list", dir)
	if err != nil {
		return listing, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return listing, pathErr("list", dir, ErrNotFound)
		}
		return listing, pathErr("list", dir, err)
	}
	if !info.IsDir() {
		return listing, pathErr("list", dir, fmt.Errorf("%w: not a directory", ErrWrongType))
	}

	matches, err := doublestar.Glob(os.DirFS(abs), pattern)
	if err != nil {
		return listing, pathErr("list", dir, err)
	}

	for _, m := range matches {
		full, err := f.guard.Resolve(filepath.Join(abs, filepath.FromSlash(m)))
		if err != nil {
			// Symlinks leading out of the root are not listed.
			continue
		}
		st, err := os.Stat(full)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		listing.Entries = append(listing.Entries, Entry{
			Path: f.guard.Rel(filepath.Join(abs, filepath.FromSlash(m))),
			Size: st.Size(),
		})
	}

	sort.Slice(listing.Entries, func(i, j int) bool {
		return listing.Entries[i].Path < listing.Entries[j].Path
	})
	return listing, nil
}

// MkdirOptions controls Mkdir.
type MkdirOptions struct {
	Parents bool
	ExistOK bool
}

// DefaultMkdirOptions creates parents and tolerates an existing directory.
func DefaultMkdirOptions() MkdirOptions {
	return MkdirOptions{Parents: true, ExistOK: true}
}

// Mkdir creates a directory. With the default options it is idempotent.
func (f *FS) Mkdir(p string, opts MkdirOptions) (string, error) {
	abs, err := f.resolve("mkdir", p)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(abs); err == nil {
		if !opts.ExistOK {
			return "", pathErr("mkdir", p, ErrAlreadyExists)
		}
		if !info.IsDir() {
			return "", pathErr("mkdir", p, fmt.Errorf("%w: exists but is not a directory", ErrWrongType))
		}
		return fmt.Sprintf("Directory already exists: %s", p), nil
	}

	if opts.Parents {
		err = os.MkdirAll(abs, 0755)
	} else {
		err = os.Mkdir(abs, 0755)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", pathErr("mkdir", p, ErrMissingParent)
		}
		return "", pathErr("mkdir", p, err)
	}

	return fmt.Sprintf("Successfully created directory: %s", p), nil
}

// Exists reports whether p resolves inside the root and exists.
func (f *FS) Exists(p string) bool {
	abs, err := f.guard.Resolve(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
