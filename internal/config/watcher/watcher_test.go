package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpString(t *testing.T) {
	assert.Equal(t, "none", Op(0).String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "create|write", (OpCreate | OpWrite).String())
	assert.True(t, (OpCreate | OpRemove).Has(OpRemove))
	assert.False(t, OpCreate.Has(OpCreate|OpWrite))
}

func TestConvertOp(t *testing.T) {
	assert.Equal(t, OpCreate|OpWrite, convertOp(fsnotify.Create|fsnotify.Write))
	assert.Equal(t, Op(0), convertOp(fsnotify.Chmod))
}

func startWatcher(t *testing.T, opts ...Option) (*Watcher, <-chan []Event) {
	t.Helper()
	batches := make(chan []Event, 16)
	w, err := New(func(evs []Event) { batches <- evs }, append([]Option{WithDebounce(20 * time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return w, batches
}

func waitBatch(t *testing.T, batches <-chan []Event) []Event {
	t.Helper()
	select {
	case evs := <-batches:
		return evs
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func TestWatchFileCoalesces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, batches := startWatcher(t)
	require.NoError(t, w.Add(path))

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	evs := waitBatch(t, batches)
	require.Len(t, evs, 1)
	assert.Equal(t, path, evs[0].Path)
	assert.True(t, evs[0].Op.Has(OpWrite))
}

func TestWatchDirectoryExtensions(t *testing.T) {
	dir := t.TempDir()
	w, batches := startWatcher(t, WithExtensions(".toml", ".yaml"))
	require.NoError(t, w.Add(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.yaml"), []byte("name: go"), 0o644))

	evs := waitBatch(t, batches)
	require.Len(t, evs, 1)
	assert.Equal(t, filepath.Join(dir, "go.yaml"), evs[0].Path)
	assert.True(t, evs[0].Op.Has(OpCreate))
}

func TestAddAfterClose(t *testing.T) {
	w, err := New(func([]Event) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add(t.TempDir()), ErrClosed)
}
