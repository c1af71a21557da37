// internal/vault/watcher_test.go
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a change event")
		return Change{}
	}
}

func TestWatcher_ModifyAndRemove(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	file := filepath.Join(root, "term.md")
	require.NoError(t, os.WriteFile(file, []byte("body"), 0o644))

	c := awaitChange(t, w.Changes)
	assert.Equal(t, ChangeModified, c.Kind)
	assert.Equal(t, "term.md", c.Path)

	require.NoError(t, os.Remove(file))
	c = awaitChange(t, w.Changes)
	assert.Equal(t, ChangeRemoved, c.Kind)
	assert.Equal(t, "term.md", c.Path)
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "term.md"), []byte("body"), 0o644))

	// Only the markdown write surfaces.
	c := awaitChange(t, w.Changes)
	assert.Equal(t, "term.md", c.Path)
	select {
	case extra := <-w.Changes:
		t.Fatalf("unexpected extra change: %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopReturnsWithPendingChanges(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	// Far more files than the change buffer holds, written inside the
	// debounce window so they are all still pending, with nobody consuming.
	for i := 0; i < 40; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("t%02d.md", i)), []byte("x"), 0o644))
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while changes were pending")
	}
}

func TestWatcher_PicksUpNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	sub := filepath.Join(root, "terms")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the loop a moment to register the new directory watch.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "widget.md"), []byte("body"), 0o644))

	c := awaitChange(t, w.Changes)
	assert.Equal(t, ChangeModified, c.Kind)
	assert.Equal(t, "terms/widget.md", c.Path)
}
