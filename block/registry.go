package block

import (
	"maps"
	"sync"
)

// Resolver converts between the runtime ids stored in chunks and persisted
// block states. Implementations are supplied by the host.
type Resolver interface {
	// State returns the state for a runtime id.
	State(runtimeID uint32) (State, bool)
	// RuntimeID returns the runtime id for a state.
	RuntimeID(s State) (uint32, bool)
}

// Registry is an in-memory Resolver. Runtime id 0 is always Air and further
// ids are assigned densely in registration order.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	states       []State
	ids          map[string]uint32
	autoRegister bool
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates a Registry holding only Air. With autoRegister set,
// RuntimeID registers states it has not seen instead of failing.
func NewRegistry(autoRegister bool) *Registry {
	r := &Registry{
		ids:          make(map[string]uint32),
		autoRegister: autoRegister,
	}
	r.Register(Air)

	return r
}

// Register returns the runtime id of s, assigning the next id if s is new.
func (r *Registry) Register(s State) uint32 {
	key := s.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[key]; ok {
		return id
	}
	id := uint32(len(r.states)) //nolint:gosec
	r.states = append(r.states, State{Name: s.Name, Properties: maps.Clone(s.Properties)})
	r.ids[key] = id

	return id
}

// State returns the state registered under runtimeID.
func (r *Registry) State(runtimeID uint32) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(runtimeID) >= len(r.states) {
		return State{}, false
	}

	return r.states[runtimeID], true
}

// RuntimeID returns the id registered for s.
func (r *Registry) RuntimeID(s State) (uint32, bool) {
	r.mu.RLock()
	id, ok := r.ids[s.Key()]
	r.mu.RUnlock()

	if ok || !r.autoRegister {
		return id, ok
	}

	return r.Register(s), true
}

// Len returns the number of registered states.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}
