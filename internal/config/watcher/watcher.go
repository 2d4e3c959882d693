// Package watcher reports debounced changes to settings files and grammar
// bundle directories.
//
// Editors save files in bursts (truncate, write, chmod, sometimes
// rename-over). The watcher coalesces everything that happens to a path
// within the debounce window into one Event carrying the union of the
// operations seen.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/textcore/internal/logging"
)

// DefaultDebounce is the quiet period before pending events are flushed.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Op is a bit set of file operations.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// String lists the operations in the set.
func (op Op) String() string {
	if op == 0 {
		return "none"
	}
	var s string
	for _, p := range []struct {
		bit  Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}} {
		if op&p.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += p.name
		}
	}
	return s
}

// Has reports whether every bit of o is set in op.
func (op Op) Has(o Op) bool { return op&o == o }

// Event is one coalesced change.
type Event struct {
	Path string
	Op   Op
}

// Handler receives flushed events in path order.
type Handler func([]Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithExtensions restricts events inside watched directories to files
// with one of the given extensions (".toml", ".yaml").
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = append(w.exts, exts...)
	}
}

// Watcher wraps fsnotify with path filtering and debouncing.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	log      *logging.Logger
	exts     []string

	// files holds watched regular files; their parent directory is what
	// fsnotify actually watches so rename-over saves are seen.
	files map[string]bool
	dirs  map[string]bool

	closed bool
}

// New creates a watcher that calls handler with each flushed batch.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		handler:  handler,
		debounce: DefaultDebounce,
		log:      logging.Nop(),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("watcher")
	return w, nil
}

// Add watches a file or a directory. A file need not exist yet, but its
// directory must.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	dir := abs
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		w.dirs[abs] = true
	case err == nil || errors.Is(err, os.ErrNotExist):
		w.files[abs] = true
		dir = filepath.Dir(abs)
	default:
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(pending)
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.flush(pending)
				return nil
			}
			op := convertOp(ev.Op)
			if op == 0 || !w.interested(ev.Name) {
				continue
			}
			pending[ev.Name] |= op
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.flush(pending)
				return nil
			}
			w.log.Warn("watch error: %v", err)

		case <-timer.C:
			w.flush(pending)
		}
	}
}

// Close stops the watcher; a running Run returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func (w *Watcher) flush(pending map[string]Op) {
	if len(pending) == 0 {
		return
	}
	events := make([]Event, 0, len(pending))
	for p, op := range pending {
		events = append(events, Event{Path: p, Op: op})
		delete(pending, p)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	w.handler(events)
}

func (w *Watcher) interested(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range w.exts {
		if e == ext {
			return true
		}
	}
	return false
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	return out
}
