package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSync(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, ".claude")
	dest := filepath.Join(dir, ".opencode")

	writeFile(t, filepath.Join(source, "commands", "a.md"), "a")
	writeFile(t, filepath.Join(source, "commands", "b.md"), "b")
	writeFile(t, filepath.Join(source, "agents", "x.md"), "x")
	writeFile(t, filepath.Join(dest, "command", "old.md"), "stale")

	c := testConfig(t)
	c.Sync.Source = source
	c.Sync.Dest = dest
	p, out, errOut := testPresenter()

	code := runSync(context.Background(), c, false, p)
	require.Equal(t, 0, code, errOut.String())

	assert.NoFileExists(t, filepath.Join(dest, "command", "old.md"))
	assert.FileExists(t, filepath.Join(dest, "command", "a.md"))
	assert.FileExists(t, filepath.Join(dest, "command", "b.md"))
	assert.FileExists(t, filepath.Join(dest, "agent", "x.md"))
	assert.NoDirExists(t, filepath.Join(dest, "skill"))

	output := out.String()
	assert.Contains(t, output, "✓ Synced commands → command (2 files)")
	assert.Contains(t, output, "⚠ source directory "+filepath.Join(source, "skills")+" not found")
	assert.Contains(t, output, "Synced 2 of 3 mappings")
	assert.Contains(t, output, "Contents of "+dest)
	assert.Contains(t, output, "agent/")
	assert.Contains(t, output, "command/")
	assert.Empty(t, errOut.String())
}

func TestRunSyncMissingSourceRoot(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(t)
	c.Sync.Source = filepath.Join(dir, ".claude")
	c.Sync.Dest = filepath.Join(dir, ".opencode")
	p, _, errOut := testPresenter()

	code := runSync(context.Background(), c, false, p)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "[ERROR] Source root not found")
	assert.NoDirExists(t, c.Sync.Dest)
}

func TestRunSyncSameRoots(t *testing.T) {
	c := testConfig(t)
	c.Sync.Source = "tree"
	c.Sync.Dest = "./tree"
	p, _, errOut := testPresenter()

	assert.Equal(t, 1, runSync(context.Background(), c, false, p))
	assert.Contains(t, errOut.String(), "Invalid sync configuration")
}

func TestRunSyncWatch(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, ".claude")
	dest := filepath.Join(dir, ".opencode")
	writeFile(t, filepath.Join(source, "commands", "a.md"), "a")

	c := testConfig(t)
	c.Sync.Source = source
	c.Sync.Dest = dest
	c.Sync.Debounce = 50 * time.Millisecond
	p, _, _ := testPresenter()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- runSync(ctx, c, true, p)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dest, "command", "a.md"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, filepath.Join(source, "commands", "new.md"), "new")
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dest, "command", "new.md"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
