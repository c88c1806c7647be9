package watcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startFollow(t *testing.T, path string) (*syncBuffer, func()) {
	t.Helper()
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, out) }()

	return out, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Follow did not stop after cancellation")
		}
	}
}

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFollowStreamsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	appendTo(t, path, "first\n")

	out, stop := startFollow(t, path)
	defer stop()

	require.Eventually(t, func() bool { return out.String() == "first\n" }, 5*time.Second, 10*time.Millisecond)

	appendTo(t, path, "second\n")
	require.Eventually(t, func() bool { return out.String() == "first\nsecond\n" }, 5*time.Second, 10*time.Millisecond)
}

func TestFollowWaitsForCreation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.jsonl")

	out, stop := startFollow(t, path)
	defer stop()

	// Give the watcher time to register before the file appears.
	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "hello\n")
	require.Eventually(t, func() bool { return out.String() == "hello\n" }, 5*time.Second, 10*time.Millisecond)
}

func TestFollowMissingDirectory(t *testing.T) {
	err := Follow(context.Background(), filepath.Join(t.TempDir(), "nope", "x.log"), &syncBuffer{})
	assert.Error(t, err)
}

func TestOpFrom(t *testing.T) {
	assert.Equal(t, OpCreate, opFrom(fsnotify.Create|fsnotify.Write))
	assert.Equal(t, OpModify, opFrom(fsnotify.Write))
	assert.Equal(t, OpDelete, opFrom(fsnotify.Remove))
	assert.Equal(t, OpRename, opFrom(fsnotify.Rename))
	assert.Equal(t, "other", opFrom(fsnotify.Chmod).String())
}
