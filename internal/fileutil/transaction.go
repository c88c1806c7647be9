package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Batch groups several whole-file rewrites so that either all of them land
// or the files touched so far are restored.
type Batch struct {
	mu        sync.Mutex
	writes    []stagedWrite
	committed bool
}

type stagedWrite struct {
	path    string
	content []byte
	perm    os.FileMode

	// filled during Commit
	existed bool
	backup  []byte
	oldPerm os.FileMode
	applied bool
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Stage queues a write. A later Stage for the same path replaces the earlier one.
func (b *Batch) Stage(path string, content []byte, perm os.FileMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.writes {
		if b.writes[i].path == path {
			b.writes[i].content = content
			b.writes[i].perm = perm
			return
		}
	}
	b.writes = append(b.writes, stagedWrite{path: path, content: content, perm: perm})
}

// Len returns the number of staged writes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

// Paths returns the staged paths in staging order.
func (b *Batch) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.writes))
	for i, w := range b.writes {
		out[i] = w.path
	}
	return out
}

// Commit applies every staged write. On the first failure the writes that
// already landed are reverted in reverse order and the error is returned.
func (b *Batch) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.committed {
		return fmt.Errorf("batch already committed")
	}

	for i := range b.writes {
		w := &b.writes[i]
		info, err := os.Stat(w.path)
		switch {
		case err == nil:
			data, readErr := os.ReadFile(w.path)
			if readErr != nil {
				return fmt.Errorf("backup %s: %w", w.path, readErr)
			}
			w.existed = true
			w.backup = data
			w.oldPerm = info.Mode().Perm()
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("backup %s: %w", w.path, err)
		}
	}

	for i := range b.writes {
		w := &b.writes[i]
		if err := AtomicWrite(w.path, w.content, w.perm); err != nil {
			b.revert()
			return fmt.Errorf("write %s: %w", w.path, err)
		}
		w.applied = true
	}

	b.committed = true
	return nil
}

// revert must be called with mu held.
func (b *Batch) revert() {
	for i := len(b.writes) - 1; i >= 0; i-- {
		w := &b.writes[i]
		if !w.applied {
			continue
		}
		if w.existed {
			_ = AtomicWrite(w.path, w.backup, w.oldPerm)
		} else {
			_ = os.Remove(w.path)
		}
		w.applied = false
	}
}
