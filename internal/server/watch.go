package server

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceQuiet is how long the asset file must stay quiet before a reload
// is triggered; exporters write in bursts.
const debounceQuiet = 250 * time.Millisecond

// Watcher reloads the session when the asset file changes on disk.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      zerolog.Logger
	path     string
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// NewWatcher watches the asset's directory (edits often replace the file)
// and invokes onChange after the file has been quiet for a short period.
func NewWatcher(path string, onChange func(), logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		log:      logger.With().Str("component", "watcher").Logger(),
		path:     filepath.Clean(path),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("op", evt.Op.String()).Msg("Asset file changed")
			w.bump()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceQuiet, func() {
		w.log.Info().Str("path", w.path).Msg("Reloading asset")
		w.onChange()
	})
}

// Close stops the watcher and any pending reload.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
