package tag

import (
	"iter"
	"maps"
	"slices"

	"github.com/voxelforge/worldstore/format"
)

// Compound is a string-keyed map of tags. Keys are unique.
//
// Iteration order is not part of the data model; All and Keys yield keys in
// sorted order so encoded output is deterministic. All read methods accept a
// nil receiver and behave like an empty Compound.
type Compound struct {
	entries map[string]Tag
}

// NewCompound creates an empty Compound.
func NewCompound() *Compound {
	return &Compound{entries: make(map[string]Tag)}
}

// Tag wraps c in a Compound tag.
func (c *Compound) Tag() Tag {
	return Tag{typ: format.TypeCompound, comp: c}
}

// Len returns the number of entries.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}

	return len(c.entries)
}

// Set stores v under key, replacing any previous value.
func (c *Compound) Set(key string, v Tag) {
	if c.entries == nil {
		c.entries = make(map[string]Tag)
	}
	c.entries[key] = v
}

// SetOmitEmpty stores v under key, or removes key when v is data-empty.
func (c *Compound) SetOmitEmpty(key string, v Tag) {
	if v.IsDataEmpty() {
		c.Delete(key)
		return
	}
	c.Set(key, v)
}

// Get returns the tag stored under key, or Empty when absent.
func (c *Compound) Get(key string) Tag {
	v, _ := c.Lookup(key)
	return v
}

// Lookup returns the tag stored under key and whether it was present.
func (c *Compound) Lookup(key string) (Tag, bool) {
	if c == nil {
		return Tag{}, false
	}
	v, ok := c.entries[key]

	return v, ok
}

// Has reports whether key is present.
func (c *Compound) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Delete removes key.
func (c *Compound) Delete(key string) {
	if c == nil {
		return
	}
	delete(c.entries, key)
}

// Keys returns the keys in sorted order.
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(c.entries))
}

// All yields entries in sorted key order.
func (c *Compound) All() iter.Seq2[string, Tag] {
	return func(yield func(string, Tag) bool) {
		for _, k := range c.Keys() {
			if !yield(k, c.entries[k]) {
				return
			}
		}
	}
}

// GetString returns the string under key, or def.
func (c *Compound) GetString(key, def string) string {
	return Get(c, key, def)
}

// GetCompound returns the Compound under key.
func (c *Compound) GetCompound(key string) (*Compound, bool) {
	return c.Get(key).AsCompound()
}

// GetList returns the List under key.
func (c *Compound) GetList(key string) (*List, bool) {
	return c.Get(key).AsList()
}

// GetOrCreateCompound returns the Compound under key, storing a new empty one
// when the key is absent or holds another type.
func (c *Compound) GetOrCreateCompound(key string) *Compound {
	if sub, ok := c.GetCompound(key); ok && sub != nil {
		return sub
	}
	sub := NewCompound()
	c.Set(key, sub.Tag())

	return sub
}

// GetOrCreateList returns the List under key, storing a new empty one when the
// key is absent or holds another type.
func (c *Compound) GetOrCreateList(key string) *List {
	if l, ok := c.GetList(key); ok && l != nil {
		return l
	}
	l := NewList()
	c.Set(key, l.Tag())

	return l
}

// Equal compares entries regardless of insertion order.
func (c *Compound) Equal(other *Compound) bool {
	if c.Len() != other.Len() {
		return false
	}
	for k, v := range c.All() {
		ov, ok := other.Lookup(k)
		if !ok || !v.Equal(ov) {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of c.
func (c *Compound) Clone() *Compound {
	out := &Compound{entries: make(map[string]Tag, c.Len())}
	if c == nil {
		return out
	}
	for k, v := range c.entries {
		out.entries[k] = v.Clone()
	}

	return out
}
