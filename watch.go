package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 200 * time.Millisecond

// fileWatcher re-runs an action when one of a fixed set of files changes.
// It watches the parent directories so that files replaced by rename are
// still seen.
type fileWatcher struct {
	w     *fsnotify.Watcher
	files map[string]struct{}
	log   *zap.Logger
	delay time.Duration
}

func newFileWatcher(files []string, log *zap.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	fw := &fileWatcher{
		w:     w,
		files: make(map[string]struct{}, len(files)),
		log:   log,
		delay: debounceDelay,
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		f = filepath.Clean(f)
		fw.files[f] = struct{}{}
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", d, err)
		}
	}
	return fw, nil
}

// relevant reports whether ev touches a watched file in a way that can
// change its contents.
func (fw *fileWatcher) relevant(ev fsnotify.Event) bool {
	if _, ok := fw.files[filepath.Clean(ev.Name)]; !ok {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// run calls fn after each settled change until ctx is done.
func (fw *fileWatcher) run(ctx context.Context, fn func()) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(ev) {
				continue
			}
			fw.log.Debug("file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(fw.delay)
			} else {
				timer.Reset(fw.delay)
			}
			fire = timer.C
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			fw.log.Warn("watch error", zap.Error(err))
		case <-fire:
			fire = nil
			fw.log.Info("re-running autoload")
			fn()
		}
	}
}

func (fw *fileWatcher) Close() error {
	return fw.w.Close()
}
