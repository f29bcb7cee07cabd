// Package watcher reports changes to configuration directories so the
// editor can reload syntax definitions and themes without restarting.
//
// Events are debounced: editors and package managers touch files in
// bursts, and reloading once per burst is enough. Each batch delivered
// on Changes carries the distinct paths seen during the quiet period.
package watcher

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when a closed watcher is used.
var ErrWatcherClosed = errors.New("watcher closed")

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors directories for file changes, filtered by
// extension, and delivers debounced batches of changed paths.
type Watcher struct {
	fsw      *fsnotify.Watcher
	exts     map[string]bool
	debounce time.Duration

	changes chan []string
	errs    chan error

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	done    sync.WaitGroup
}

// New creates a watcher reporting files whose extension is in exts
// (given with the dot, e.g. ".syntax"). An empty exts list reports
// every file. debounce <= 0 uses DefaultDebounce.
func New(debounce time.Duration, exts ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fsw:      fsw,
		exts:     make(map[string]bool, len(exts)),
		debounce: debounce,
		changes:  make(chan []string, 4),
		errs:     make(chan error, 4),
		closeCh:  make(chan struct{}),
	}
	for _, e := range exts {
		w.exts[e] = true
	}
	w.done.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds a directory to the watch set.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	return w.fsw.Add(dir)
}

// Changes delivers debounced batches of changed paths. The channel is
// closed when the watcher is closed.
func (w *Watcher) Changes() <-chan []string { return w.changes }

// Errors delivers watch errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and closes the Changes channel. A pending
// batch is dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.done.Wait()
	close(w.changes)
	close(w.errs)
	return err
}

func (w *Watcher) loop() {
	defer w.done.Done()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)
			fire = nil
			select {
			case w.changes <- batch:
			case <-w.closeCh:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// relevant filters events down to content changes of watched file
// types. Chmod-only events are noise.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[filepath.Ext(ev.Name)]
}
