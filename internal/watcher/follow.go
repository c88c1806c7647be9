// Package watcher streams a growing run log as it is written.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"appforge/internal/logging"
)

// Follower copies a file to a writer and then keeps copying whatever is
// appended to it. The file may not exist yet; it is picked up when created.
type Follower struct {
	path   string
	out    io.Writer
	file   *os.File
	offset int64
}

// Follow writes the current content of path to w and then streams appended
// data until ctx is done. Cancellation is a normal stop and returns nil.
func Follow(ctx context.Context, path string, w io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	f := &Follower{path: abs, out: w}
	defer f.close()
	return f.run(ctx)
}

func (f *Follower) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory so creation and rotation are seen too.
	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	if err := f.open(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := f.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if err := f.handle(opFrom(event.Op)); err != nil {
				return err
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("log watcher error", "path", f.path, "error", err)
		}
	}
}

func (f *Follower) handle(op Operation) error {
	switch op {
	case OpCreate:
		f.close()
		if err := f.open(); err != nil {
			return err
		}
		return f.drain()
	case OpModify:
		if f.file == nil {
			if err := f.open(); err != nil {
				return err
			}
		}
		return f.drain()
	case OpDelete, OpRename:
		f.close()
	}
	return nil
}

func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	f.file = file
	f.offset = 0
	return nil
}

func (f *Follower) close() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
}

// drain copies everything past the current offset. A file that shrank was
// truncated and is re-read from the start.
func (f *Follower) drain() error {
	if f.file == nil {
		return nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < f.offset {
		f.offset = 0
	}
	if _, err := f.file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}
	n, err := io.Copy(f.out, f.file)
	f.offset += n
	return err
}
