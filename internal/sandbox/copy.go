package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"appforge/internal/fileutil"
	"appforge/internal/security"
)

// CopyFromTemplate copies templateRoot/rel to targetRoot/rel. Both roots are
// checked against the confinement root independently, and rel may not climb
// out of either of them.
func (f *FS) CopyFromTemplate(templateRoot, targetRoot, rel string) (string, error) {
	const op = "copy_from_template"

	if rel == "" || filepath.IsAbs(rel) {
		return "", pathErr(op, rel, fmt.Errorf("%w: relative file path required", ErrInvalidArgument))
	}

	srcRoot, err := f.resolve(op, templateRoot)
	if err != nil {
		return "", err
	}
	dstRoot, err := f.resolve(op, targetRoot)
	if err != nil {
		return "", err
	}

	src, err := f.resolve(op, filepath.Join(srcRoot, rel))
	if err != nil {
		return "", err
	}
	dst, err := f.resolve(op, filepath.Join(dstRoot, rel))
	if err != nil {
		return "", err
	}
	if !security.Within(srcRoot, src) || !security.Within(dstRoot, dst) {
		return "", pathErr(op, rel, fmt.Errorf("%w: file escapes its root", ErrAccessDenied))
	}

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", pathErr(op, filepath.Join(templateRoot, rel), ErrNotFound)
		}
		return "", pathErr(op, rel, err)
	}
	if !info.Mode().IsRegular() {
		return "", pathErr(op, rel, fmt.Errorf("%w: not a file", ErrWrongType))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", pathErr(op, rel, err)
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return "", pathErr(op, rel, err)
	}

	return fmt.Sprintf("Copied %s to %s", filepath.Join(templateRoot, rel), filepath.Join(targetRoot, rel)), nil
}

// CopyTree copies every regular file under srcDir into dstDir, keeping the
// relative layout. Symlinks inside the template are skipped.
func (f *FS) CopyTree(srcDir, dstDir string) (int, error) {
	const op = "copy_tree"

	src, err := f.resolve(op, srcDir)
	if err != nil {
		return 0, err
	}
	dst, err := f.resolve(op, dstDir)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, pathErr(op, srcDir, ErrNotFound)
		}
		return 0, pathErr(op, srcDir, err)
	}
	if !info.IsDir() {
		return 0, pathErr(op, srcDir, fmt.Errorf("%w: not a directory", ErrWrongType))
	}
	if security.Within(src, dst) {
		return 0, pathErr(op, dstDir, fmt.Errorf("%w: destination inside source", ErrInvalidArgument))
	}

	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case !d.Type().IsRegular():
			return nil
		}

		if err := fileutil.CopyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, pathErr(op, srcDir, err)
	}
	return copied, nil
}
