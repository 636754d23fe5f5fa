package confloader

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// Watcher reports writes to one configuration file. Editors that replace
// the file show up as a create, so the parent directory is watched.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string

	mu        sync.RWMutex
	callbacks []func(string)

	done     chan struct{}
	stopOnce sync.Once
	log      logger.Logger
}

// NewWatcher watches path. log may be nil.
func NewWatcher(path string, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		path:    abs,
		done:    make(chan struct{}),
		log:     log.With("component", "confloader", "file", abs),
	}, nil
}

// OnChange registers cb. It runs on the watcher goroutine.
func (w *Watcher) OnChange(cb func(path string)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()
}

// Start runs the event loop until Stop.
func (w *Watcher) Start() {
	w.log.Debug("configuration watcher started")
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.log.Debug("configuration file changed", "op", ev.Op.String())
				w.notify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("configuration watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop ends the loop. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) notify() {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb(w.path)
	}
}
