// Package collision detects distinct palette keys that share a 64-bit hash.
package collision

import (
	"fmt"

	"github.com/voxelforge/worldstore/errs"
)

// Tracker maps hashes to the canonical key that first produced them.
//
// Palettes index values by hash for constant-time lookup; the tracker keeps the
// key alongside so that two different values never silently share an id.
type Tracker struct {
	keys map[uint64]string
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{keys: make(map[uint64]string)}
}

// Track records key under hash.
//
// It returns true when the same key was tracked before, false when it is new,
// and ErrHashCollision when a different key already owns the hash.
func (t *Tracker) Track(key string, hash uint64) (bool, error) {
	existing, ok := t.keys[hash]
	if !ok {
		t.keys[hash] = key
		return false, nil
	}
	if existing != key {
		return false, fmt.Errorf("%w: %q and %q share hash 0x%016x", errs.ErrHashCollision, existing, key, hash)
	}

	return true, nil
}

// Lookup returns the key tracked for hash.
func (t *Tracker) Lookup(hash uint64) (string, bool) {
	key, ok := t.keys[hash]
	return key, ok
}

// Count returns the number of tracked keys.
func (t *Tracker) Count() int {
	return len(t.keys)
}

// Reset forgets all keys but keeps the map capacity.
func (t *Tracker) Reset() {
	clear(t.keys)
}
