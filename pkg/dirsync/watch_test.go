package dirsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatchResyncsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, src, dst := newTestSyncer(t)
	writeFile(t, filepath.Join(src, "commands", "a.md"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncs := make(chan error, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, 20*time.Millisecond, func(_ *Result, err error) {
			syncs <- err
		})
	}()

	select {
	case err := <-syncs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("initial sync did not run")
	}
	assert.FileExists(t, filepath.Join(dst, "command", "a.md"))

	// give the watcher time to register the source directories
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(src, "commands", "b.md"), "b")

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dst, "command", "b.md"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestWatchPicksUpNewMappingSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, src, dst := newTestSyncer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, 20*time.Millisecond, nil)
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(src, "agents", "new.md"), "new")

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dst, "agent", "new.md"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchMissingSourceRoot(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := New(WithSourceRoot(filepath.Join(tmpDir, "missing")), WithDestRoot(filepath.Join(tmpDir, "dest")))
	require.NoError(t, err)

	var initial error
	err = s.Watch(context.Background(), 0, func(_ *Result, err error) { initial = err })
	require.Error(t, err)
	assert.ErrorIs(t, initial, ErrSourceRootMissing)
}
