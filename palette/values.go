package palette

import (
	"fmt"
	"iter"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/internal/collision"
	"github.com/voxelforge/worldstore/internal/hash"
)

// Keyed is implemented by values that have a canonical string identity.
// Two values with the same Key are the same palette entry.
type Keyed interface {
	Key() string
}

// Values interns keyed values into dense int32 ids.
//
// Values are indexed by the xxHash64 of their key. The collision tracker keeps
// the key for every hash so that two different keys sharing a hash are
// reported instead of silently merged.
//
// Id 0 always holds the default value passed to NewValues, so a zero id can
// be treated as "empty" without a lookup.
type Values[T Keyed] struct {
	def     T
	values  []T
	ids     map[uint64]int32
	tracker *collision.Tracker
}

// NewValues creates a palette whose id 0 is def.
func NewValues[T Keyed](def T) *Values[T] {
	p := &Values[T]{
		def:     def,
		ids:     make(map[uint64]int32),
		tracker: collision.NewTracker(),
	}
	p.Reset()

	return p
}

// Default returns the value reserved at id 0.
func (p *Values[T]) Default() T {
	return p.def
}

// Reset clears the palette down to the default value.
func (p *Values[T]) Reset() {
	clear(p.ids)
	p.tracker.Reset()
	p.values = p.values[:0]
	// the default cannot collide with an empty palette
	_, _ = p.GetOrAdd(p.def)
}

// GetOrAdd returns the id of v, interning it on first use.
func (p *Values[T]) GetOrAdd(v T) (int32, error) {
	key := v.Key()
	h := hash.ID(key)

	seen, err := p.tracker.Track(key, h)
	if err != nil {
		return 0, err
	}
	if seen {
		return p.ids[h], nil
	}

	id := int32(len(p.values)) //nolint:gosec
	p.values = append(p.values, v)
	p.ids[h] = id

	return id, nil
}

// ID returns the id of v. It fails with ErrPaletteValueUnknown when v was
// never added.
func (p *Values[T]) ID(v T) (int32, error) {
	key := v.Key()
	h := hash.ID(key)

	owner, ok := p.tracker.Lookup(h)
	if !ok {
		return 0, fmt.Errorf("%w: %q", errs.ErrPaletteValueUnknown, key)
	}
	if owner != key {
		return 0, fmt.Errorf("%w: %q and %q share hash 0x%016x", errs.ErrHashCollision, owner, key, h)
	}

	return p.ids[h], nil
}

// Value returns the value stored under id.
func (p *Values[T]) Value(id int32) (T, error) {
	if id < 0 || int(id) >= len(p.values) {
		var zero T
		return zero, fmt.Errorf("%w: id %d, palette size %d", errs.ErrPaletteIDOutOfRange, id, len(p.values))
	}

	return p.values[id], nil
}

// Len returns the number of entries including the default.
func (p *Values[T]) Len() int {
	return len(p.values)
}

// All yields entries in id order.
func (p *Values[T]) All() iter.Seq2[int32, T] {
	return func(yield func(int32, T) bool) {
		for i, v := range p.values {
			if !yield(int32(i), v) { //nolint:gosec
				return
			}
		}
	}
}
