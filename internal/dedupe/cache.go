// ABOUTME: Thread-safe TTL window for collapsing repeated notice keys.
// ABOUTME: Used by the notifier so a burst of identical messages is shown once.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores when a key was last admitted and its position in the age list.
type entry struct {
	at      time.Time
	element *list.Element
}

// Window admits a key once per TTL. It is size-bounded: when full, the oldest key
// is forgotten first. The zero value is not usable; call New.
type Window struct {
	mu      sync.Mutex
	keys    map[string]*entry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Option configures a Window.
type Option func(*Window)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

// New creates a window with the given TTL and maximum number of tracked keys.
// A non-positive TTL admits every key.
func New(ttl time.Duration, maxSize int, opts ...Option) *Window {
	if maxSize <= 0 {
		maxSize = 1
	}
	w := &Window{
		keys:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Admit reports whether key should be let through. It returns true the first time a
// key is seen and again once the TTL since its last admission has passed; the
// check and the mark happen under one lock.
func (w *Window) Admit(key string) bool {
	if w.ttl <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	if e, ok := w.keys[key]; ok {
		if now.Sub(e.at) < w.ttl {
			return false
		}
		e.at = now
		w.order.MoveToBack(e.element)
		return true
	}

	if len(w.keys) >= w.maxSize {
		w.evictOldestLocked()
	}
	w.keys[key] = &entry{at: now, element: w.order.PushBack(key)}
	return true
}

// pruneLocked drops expired keys from the front of the age list.
// Must be called with mu held.
func (w *Window) pruneLocked(now time.Time) {
	for front := w.order.Front(); front != nil; front = w.order.Front() {
		key, _ := front.Value.(string)
		e := w.keys[key]
		if e == nil || now.Sub(e.at) < w.ttl {
			return
		}
		w.order.Remove(front)
		delete(w.keys, key)
	}
}

// evictOldestLocked removes the oldest key. Must be called with mu held.
func (w *Window) evictOldestLocked() {
	front := w.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	w.order.Remove(front)
	delete(w.keys, key)
}
