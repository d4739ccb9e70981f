package dirsync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultDebounce is how long the watcher waits for the source tree to settle
// before re-running a sync.
const DefaultDebounce = 500 * time.Millisecond

// SyncFunc receives the outcome of every sync performed by Watch
type SyncFunc func(result *Result, err error)

// Watch runs Sync once and then again whenever anything under the source root
// changes, until ctx is cancelled. Syncs never overlap. A failing sync is
// reported through onSync and does not stop the watcher; only watcher setup
// errors are returned.
func (s *Syncer) Watch(ctx context.Context, debounce time.Duration, onSync SyncFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onSync == nil {
		onSync = func(*Result, error) {}
	}

	log := logger.G(ctx).WithField("source_root", s.sourceRoot)

	onSync(s.Sync(ctx))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := s.addWatches(watcher); err != nil {
		return err
	}
	log.Info("watching source root for changes")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("source change detected")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("file watcher error")
		case <-timerC:
			timerC = nil
			// pick up directories created since the last sync
			if err := s.addWatches(watcher); err != nil {
				log.WithError(err).Warn("failed to refresh watches")
			}
			onSync(s.Sync(ctx))
		}
	}
}

// addWatches registers the source root and every directory below the mapped
// source subdirectories. Adding an already watched path is a no-op.
func (s *Syncer) addWatches(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(s.sourceRoot); err != nil {
		return errors.Wrapf(err, "failed to watch %s", s.sourceRoot)
	}

	for _, m := range s.mappings {
		root := filepath.Join(s.sourceRoot, m.Source)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "failed to watch %s", root)
		}
	}
	return nil
}
