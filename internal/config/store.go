package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/dshills/textcore/internal/config/notify"
	"github.com/dshills/textcore/internal/config/watcher"
	"github.com/dshills/textcore/internal/logging"
)

// Store holds the current Settings and a version number that increases
// every time the settings change.
type Store struct {
	mu       sync.RWMutex
	current  Settings
	version  uint64
	notifier *notify.Notifier
	log      *logging.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNotifier publishes changes through n instead of a private notifier.
func WithNotifier(n *notify.Notifier) StoreOption {
	return func(st *Store) {
		if n != nil {
			st.notifier = n
		}
	}
}

// WithStoreLogger sets the logger for reload failures.
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(st *Store) {
		if l != nil {
			st.log = l
		}
	}
}

// NewStore creates a store at version 1 holding s.
func NewStore(s Settings, opts ...StoreOption) *Store {
	st := &Store{current: s, version: 1, log: logging.Nop()}
	for _, opt := range opts {
		opt(st)
	}
	if st.notifier == nil {
		st.notifier = notify.New()
	}
	st.log = st.log.WithComponent("config")
	return st
}

// Settings returns the current settings.
func (st *Store) Settings() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Version returns the current version.
func (st *Store) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// Snapshot returns the settings together with their version.
func (st *Store) Snapshot() (Settings, uint64) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current, st.version
}

// Notifier returns the notifier changes are published on.
func (st *Store) Notifier() *notify.Notifier {
	return st.notifier
}

// Set validates s and replaces the current settings. When anything
// differs the version is bumped and one KindSet change per differing field
// is published. It returns the resulting version.
func (st *Store) Set(s Settings, source string) (uint64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	st.mu.Lock()
	old := st.current
	var changes []notify.Change
	for _, f := range fields {
		ov, nv := f.get(&old), f.get(&s)
		if !reflect.DeepEqual(ov, nv) {
			changes = append(changes, notify.Change{Path: f.path, Kind: notify.KindSet, Old: ov, New: nv, Source: source})
		}
	}
	if len(changes) == 0 {
		v := st.version
		st.mu.Unlock()
		return v, nil
	}
	st.version++
	st.current = s
	v := st.version
	st.mu.Unlock()

	for _, c := range changes {
		c.Version = v
		st.notifier.Notify(c)
	}
	return v, nil
}

// Update applies one value by dotted path.
func (st *Store) Update(path string, value any, source string) (uint64, error) {
	s := st.Settings()
	for _, f := range fields {
		if f.path != path {
			continue
		}
		if err := f.set(&s, value); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return st.Set(s, source)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSetting, path)
}

// Reload reads path like Load and installs the result. Subscribers see
// the per-field changes followed by one KindReload.
func (st *Store) Reload(path string) (uint64, error) {
	s, err := Load(path)
	if err != nil {
		return 0, err
	}
	v, err := st.Set(s, path)
	if err != nil {
		return 0, err
	}
	st.notifier.Notify(notify.Change{Kind: notify.KindReload, Version: v, Source: path})
	return v, nil
}

// Watch reloads path whenever it changes until ctx is done. Reload
// failures are logged and the previous settings stay in effect.
func (st *Store) Watch(ctx context.Context, path string, opts ...watcher.Option) error {
	w, err := watcher.New(func(evs []watcher.Event) {
		if _, err := st.Reload(path); err != nil {
			st.log.Warn("reload %s: %v", path, err)
			return
		}
		st.log.Info("reloaded %s (%d events)", path, len(evs))
	}, append([]watcher.Option{watcher.WithLogger(st.log)}, opts...)...)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(path); err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
