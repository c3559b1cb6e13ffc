package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a config file when it changes on disk and hands the
// new config to a callback. Editors that replace the file (write to a
// temp file, then rename) are handled by watching the parent directory.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   logrus.FieldLogger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher prepares a watcher for path. The callback runs on the
// watcher goroutine; it must not block.
func NewWatcher(path string, onChange func(*Config), logger logrus.FieldLogger) *Watcher {
	if logger == nil {
		base := logrus.New()
		base.SetLevel(logrus.WarnLevel)
		logger = base
	}
	return &Watcher{path: path, onChange: onChange, logger: logger}
}

// Start begins watching. It returns once the underlying watch is
// registered; reloads happen in the background until Stop or ctx end.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.watcher = fsw
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.WithError(err).Warn("config reload failed, keeping previous config")
				continue
			}
			w.onChange(cfg)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("config watch error")
		}
	}
}

// Stop ends the watch and waits for the background goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw, cancel, done := w.watcher, w.cancel, w.done
	w.watcher, w.cancel, w.done = nil, nil, nil
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	cancel()
	fsw.Close()
	<-done
}
