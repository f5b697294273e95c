package folio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/site/posts/a.md", false},
		{"/site/posts/.a.md.swx", true},
		{"/site/posts/a.md~", true},
		{"/site/posts/a.md.swp", true},
		{"/site/posts/a.tmp", true},
		{"/site/static/style.css", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldIgnoreEvent(tt.path), tt.path)
	}
}

func TestWatcherWaitsForChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "posts", "nested"), 0o755))

	w, err := NewWatcher(nil, 20*time.Millisecond, filepath.Join(dir, "posts"), filepath.Join(dir, "missing"))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Wait(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "nested", "a.md"), []byte("x"), 0o644))
	assert.NoError(t, <-done)
}

func TestWatcherWaitCancelled(t *testing.T) {
	w, err := NewWatcher(nil, 0, t.TempDir())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Wait(ctx), context.Canceled)
}
