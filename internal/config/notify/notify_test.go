package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindSet, "set"},
		{KindReload, "reload"},
		{Kind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestSubscribeReceivesAll(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.Subscribe(func(c Change) { got = append(got, c) })

	n.Notify(Change{Path: "editor.tab_width", Kind: KindSet, Old: 4, New: 2, Version: 2})
	n.Notify(Change{Kind: KindReload, Version: 3})

	if len(got) != 2 {
		t.Fatalf("received %d changes, want 2", len(got))
	}
	if got[0].New != 2 || got[0].Version != 2 {
		t.Errorf("first change = %+v", got[0])
	}
	if got[1].Kind != KindReload {
		t.Errorf("second change kind = %v, want reload", got[1].Kind)
	}
}

func TestSubscribePathFilters(t *testing.T) {
	n := New()
	defer n.Close()

	var editor, exact atomic.Int32
	n.SubscribePath("editor", func(Change) { editor.Add(1) })
	n.SubscribePath("editor.use_tabs", func(Change) { exact.Add(1) })

	n.Notify(Change{Path: "editor.tab_width"})
	n.Notify(Change{Path: "editor.use_tabs"})
	n.Notify(Change{Path: "editorial.x"})
	n.Notify(Change{Path: "display.line_height"})
	n.Notify(Change{Kind: KindReload})

	if got := editor.Load(); got != 3 {
		t.Errorf("editor observer called %d times, want 3", got)
	}
	if got := exact.Load(); got != 2 {
		t.Errorf("exact observer called %d times, want 2", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var calls atomic.Int32
	sub := n.Subscribe(func(Change) { calls.Add(1) })
	n.Notify(Change{Path: "a"})
	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Notify(Change{Path: "a"})

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestAsyncDeliversInOrder(t *testing.T) {
	n := New(WithAsync(16))

	var mu sync.Mutex
	var versions []uint64
	n.Subscribe(func(c Change) {
		mu.Lock()
		versions = append(versions, c.Version)
		mu.Unlock()
	})

	for v := uint64(1); v <= 10; v++ {
		n.Notify(Change{Kind: KindReload, Version: v})
	}
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(versions) != 10 {
		t.Fatalf("delivered %d changes, want 10", len(versions))
	}
	for i, v := range versions {
		if v != uint64(i+1) {
			t.Fatalf("versions = %v, want ascending 1..10", versions)
		}
	}
}

func TestNotifyAfterClose(t *testing.T) {
	n := New()
	var calls atomic.Int32
	n.Subscribe(func(Change) { calls.Add(1) })
	n.Close()
	n.Close()
	n.Notify(Change{Path: "a"})
	if calls.Load() != 0 {
		t.Error("observer called after Close")
	}
}
