// Package savemarker tracks whether an object, and everything it owns, has
// been flushed to storage.
//
// A Marker is a flag with deferred listeners: listeners added while the flag
// is down run exactly once, in registration order, when it goes up. A
// Composite adds children: it reports saved only when it and all its children
// are saved, and once it sees an unsaved child it stays unsaved until
// MarkSaved is called on it again.
//
// Mutation and marking are separate steps. Callers change data, then call
// MarkDirty; the storage layer calls MarkSaved after a successful write.
package savemarker

import (
	"iter"
	"sync"
)

// Saver is anything that can report and record its saved state.
type Saver interface {
	IsSaved() bool
	MarkSaved()
}

// Marker is a saved flag with queued listeners. It is safe for concurrent use.
type Marker struct {
	mu        sync.Mutex
	saved     bool
	listeners []func()
}

var _ Saver = (*Marker)(nil)

// NewMarker creates a marker in the given state.
func NewMarker(saved bool) *Marker {
	return &Marker{saved: saved}
}

// IsSaved reports the flag.
func (m *Marker) IsSaved() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saved
}

// AddListener runs fn now if the marker is saved, or queues it for the next
// MarkSaved otherwise.
func (m *Marker) AddListener(fn func()) {
	m.mu.Lock()
	if !m.saved {
		m.listeners = append(m.listeners, fn)
		m.mu.Unlock()

		return
	}
	m.mu.Unlock()

	fn()
}

// MarkSaved raises the flag and runs the queued listeners once, in the order
// they were added. It is a no-op when the marker is already saved.
// Listeners run after the lock is released and may use the marker.
func (m *Marker) MarkSaved() {
	m.mu.Lock()
	if m.saved {
		m.mu.Unlock()
		return
	}
	m.saved = true
	pending := m.listeners
	m.listeners = nil
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// MarkDirty lowers the flag. Queued listeners are kept.
func (m *Marker) MarkDirty() {
	m.mu.Lock()
	m.saved = false
	m.mu.Unlock()
}

// Composite is a Marker whose saved state also depends on a set of children.
type Composite struct {
	own      Marker
	children iter.Seq[Saver]
}

var _ Saver = (*Composite)(nil)

// NewComposite creates a composite that starts in the given state and asks
// children for the current set of child savers on every query.
func NewComposite(saved bool, children iter.Seq[Saver]) *Composite {
	if children == nil {
		children = func(func(Saver) bool) {}
	}

	return &Composite{own: Marker{saved: saved}, children: children}
}

// IsSaved reports whether the composite and every child are saved.
//
// An unsaved child downgrades the composite itself, so later queries stay
// false even if that child is saved through another path.
func (c *Composite) IsSaved() bool {
	if !c.own.IsSaved() {
		return false
	}
	for child := range c.children {
		if !child.IsSaved() {
			c.own.MarkDirty()
			return false
		}
	}

	return true
}

// AddListener runs fn now if IsSaved, or queues it for the next MarkSaved.
func (c *Composite) AddListener(fn func()) {
	c.IsSaved()
	c.own.AddListener(fn)
}

// MarkSaved marks the composite itself saved and runs its queued listeners.
// Children are not touched.
func (c *Composite) MarkSaved() {
	c.own.MarkSaved()
}

// MarkDirty marks the composite itself unsaved.
func (c *Composite) MarkDirty() {
	c.own.MarkDirty()
}
