package dynaprompt

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// filesystemWatcher reloads a FilesystemStorage when matching files change.
// Bursts of events within the debounce window trigger a single reload.
type filesystemWatcher struct {
	store    *FilesystemStorage
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloaded func(error)
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// WatchOptions configures FilesystemStorage.Watch.
type WatchOptions struct {
	// Debounce is the quiet period before a reload. Default: 250ms.
	Debounce time.Duration

	// OnReload is called after every reload triggered by the watcher.
	OnReload func(error)
}

// Watch starts reloading the store whenever a wildcard file under the root
// is created, written, removed or renamed. It returns immediately; the
// watcher stops when ctx is cancelled, StopWatching is called or the store
// is closed. Calling Watch while already watching is a no-op.
func (s *FilesystemStorage) Watch(ctx context.Context, opts WatchOptions) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watcher != nil {
		return nil
	}
	if opts.Debounce <= 0 {
		opts.Debounce = FilesystemReloadDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return NewStorageError(ErrMsgStorageOpenFailed, s.root, err)
	}

	// fsnotify is not recursive, so every directory is added.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return NewStorageError(ErrMsgStorageOpenFailed, s.root, err)
	}

	w := &filesystemWatcher{
		store:    s,
		watcher:  fsw,
		debounce: opts.Debounce,
		reloaded: opts.OnReload,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	s.watcher = w

	go w.run(ctx)
	s.logger.Debug(LogMsgWatcherStarted, zap.String(LogFieldPath, s.root))
	return nil
}

// StopWatching stops the watcher and waits for its goroutine to exit.
func (s *FilesystemStorage) StopWatching() {
	s.watchMu.Lock()
	w := s.watcher
	s.watcher = nil
	s.watchMu.Unlock()

	if w != nil {
		w.stop()
	}
}

func (w *filesystemWatcher) stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
}

// run is the event loop. It owns the fsnotify watcher and closes it on exit.
func (w *filesystemWatcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		_ = w.watcher.Close()
		w.store.logger.Debug(LogMsgWatcherStopped, zap.String(LogFieldPath, w.store.root))
	}()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn(LogMsgStoreReloadFailed, zap.Error(err))

		case <-timer.C:
			err := w.store.Reload(ctx)
			if w.reloaded != nil {
				w.reloaded(err)
			}
		}
	}
}

// relevant reports whether an event can change the loaded wildcards.
// New directories are added to the watch list.
func (w *filesystemWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	rel, err := filepath.Rel(w.store.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		_ = w.watcher.Add(event.Name)
		return true
	}

	matched, _ := doublestar.Match(w.store.pattern, filepath.ToSlash(rel))
	return matched || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
