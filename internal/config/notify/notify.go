// Package notify fans settings changes out to subscribers.
package notify

import (
	"strings"
	"sync"
)

// Kind distinguishes a single-field update from a full reload.
type Kind int

const (
	// KindSet reports one changed field.
	KindSet Kind = iota
	// KindReload reports that the whole settings value was replaced.
	KindReload
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one settings update.
type Change struct {
	// Path is the dotted field path, e.g. "editor.tab_width". Empty for
	// reloads.
	Path string
	Kind Kind
	Old  any
	New  any
	// Version is the settings version after the change.
	Version uint64
	// Source names the origin, such as a file path or "api".
	Source string
}

// Observer receives changes.
type Observer func(Change)

// Subscription is a handle for removing an observer.
type Subscription struct {
	id uint64
	n  *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.n != nil {
		s.n.remove(s.id)
	}
}

type entry struct {
	prefix string
	fn     Observer
}

// Notifier delivers changes to observers, either inline on the caller's
// goroutine or through a buffered queue drained by one goroutine.
type Notifier struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	nextID  uint64
	closed  bool

	queue chan Change
	done  chan struct{}
	wg    sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync queues up to size changes and delivers them in order on a
// background goroutine.
func WithAsync(size int) Option {
	return func(n *Notifier) {
		if size > 0 {
			n.queue = make(chan Change, size)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		entries: make(map[uint64]entry),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.queue != nil {
		n.wg.Add(1)
		go n.drain()
	}
	return n
}

// Subscribe registers fn for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.SubscribePath("", fn)
}

// SubscribePath registers fn for changes at path or below it. Reloads
// reach every observer.
func (n *Notifier) SubscribePath(path string, fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.entries[n.nextID] = entry{prefix: path, fn: fn}
	return &Subscription{id: n.nextID, n: n}
}

// Notify publishes c. Changes published after Close are dropped.
func (n *Notifier) Notify(c Change) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}
	if n.queue == nil {
		n.deliver(c)
		return
	}
	select {
	case n.queue <- c:
	case <-n.done:
	}
}

// Close stops delivery after flushing queued changes.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()
	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	delete(n.entries, id)
	n.mu.Unlock()
}

func (n *Notifier) deliver(c Change) {
	n.mu.RLock()
	fns := make([]Observer, 0, len(n.entries))
	for _, e := range n.entries {
		if c.Kind == KindReload || matches(e.prefix, c.Path) {
			fns = append(fns, e.fn)
		}
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (n *Notifier) drain() {
	defer n.wg.Done()
	for {
		select {
		case c := <-n.queue:
			n.deliver(c)
		case <-n.done:
			for {
				select {
				case c := <-n.queue:
					n.deliver(c)
				default:
					return
				}
			}
		}
	}
}

// matches reports whether path equals prefix or lies below it.
func matches(prefix, path string) bool {
	if prefix == "" || prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '.'
}
