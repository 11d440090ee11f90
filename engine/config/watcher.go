package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/fsnotify/fsnotify"
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu *sync.Mutex

	path    string
	fs      *fsnotify.Watcher
	changes chan Settings
	errs    chan error
	done    chan struct{}
	closed  bool
}

// Watcher reloads a settings file whenever it changes on disk. Successfully reloaded settings
// are delivered on Changes; reload failures are logged and delivered on Errors.
type Watcher interface {
	// Changes returns the channel reloaded settings are sent on. It is closed by Close.
	//
	// Returns:
	//   - <-chan Settings: the reload channel
	Changes() <-chan Settings

	// Errors returns the channel reload failures are sent on. It is closed by Close.
	//
	// Returns:
	//   - <-chan error: the error channel
	Errors() <-chan error

	// Close stops watching.
	//
	// Returns:
	//   - error: an error from the underlying file watcher
	Close() error
}

var _ Watcher = &watcher{}

// Watch starts watching a settings file. The file's directory is watched so that editors
// replacing the file by rename are seen.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if the file format is unknown or the watch cannot be set up
func Watch(path string) (Watcher, error) {
	if _, err := FormatOf(path); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &watcher{
		mu:      &sync.Mutex{},
		path:    filepath.Clean(path),
		fs:      fw,
		changes: make(chan Settings, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer close(w.changes)
	defer close(w.errs)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			s, err := Load(w.path)
			if err != nil {
				common.Logger().Warn("settings reload failed", "path", w.path, "error", err)
				w.sendErr(err)
				continue
			}
			common.Logger().Info("settings reloaded", "path", w.path)
			select {
			case w.changes <- s:
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

// sendErr delivers err without blocking; a pending undelivered error is replaced.
func (w *watcher) sendErr(err error) {
	select {
	case w.errs <- err:
	default:
		select {
		case <-w.errs:
		default:
		}
		select {
		case w.errs <- err:
		default:
		}
	}
}

func (w *watcher) Changes() <-chan Settings {
	return w.changes
}

func (w *watcher) Errors() <-chan error {
	return w.errs
}

func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fs.Close()
}
