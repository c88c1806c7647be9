package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, AtomicWriteString(path, "A", 0644))
	require.NoError(t, AppendString(path, "B", 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(data))

	require.NoError(t, AtomicWriteString(path, "B", 0644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestCopyFilePreservesMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sh")
	dst := filepath.Join(dir, "nested", "dst.sh")
	require.NoError(t, os.WriteFile(src, []byte("echo hi"), 0750))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0750), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestBatchCommit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.html")
	require.NoError(t, os.WriteFile(a, []byte("old"), 0644))

	batch := NewBatch()
	batch.Stage(a, []byte("first"), 0644)
	batch.Stage(b, []byte("<html/>"), 0644)
	batch.Stage(a, []byte("new"), 0644)
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, []string{a, b}, batch.Paths())

	require.NoError(t, batch.Commit())
	data, _ := os.ReadFile(a)
	assert.Equal(t, "new", string(data))
	require.Error(t, batch.Commit())
}

func TestBatchRevertsOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	created := filepath.Join(dir, "created.txt")
	require.NoError(t, os.WriteFile(a, []byte("old"), 0644))

	batch := NewBatch()
	batch.Stage(a, []byte("new"), 0644)
	batch.Stage(created, []byte("x"), 0644)
	batch.Stage(filepath.Join(dir, "missing", "c.txt"), []byte("y"), 0644)

	require.Error(t, batch.Commit())

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.NoFileExists(t, created)
}
