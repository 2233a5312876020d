package world

import (
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/savemarker"
)

// Loaded is the set of resident chunks, keyed by world chunk coordinate.
//
// It is a composite save marker over its chunks: IsSaved is false as soon as
// any chunk is unsaved, and stays false until Store.Save marks it saved.
type Loaded struct {
	mu     sync.RWMutex
	chunks map[geom.Vec3]*chunk.Chunk
	marker *savemarker.Composite
}

var _ savemarker.Saver = (*Loaded)(nil)

// NewLoaded creates an empty collection.
func NewLoaded() *Loaded {
	l := &Loaded{chunks: make(map[geom.Vec3]*chunk.Chunk)}
	l.marker = savemarker.NewComposite(true, l.savers)

	return l
}

func (l *Loaded) savers(yield func(savemarker.Saver) bool) {
	l.mu.RLock()
	snapshot := slices.Collect(maps.Values(l.chunks))
	l.mu.RUnlock()

	for _, c := range snapshot {
		if !yield(c) {
			return
		}
	}
}

// Put adds or replaces the chunk at world chunk coordinate c.
func (l *Loaded) Put(c geom.Vec3, ch *chunk.Chunk) {
	l.mu.Lock()
	l.chunks[c] = ch
	l.mu.Unlock()
}

// Get returns the chunk at c.
func (l *Loaded) Get(c geom.Vec3) (*chunk.Chunk, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ch, ok := l.chunks[c]

	return ch, ok
}

// Remove drops the chunk at c. Unsaved changes in it are discarded.
func (l *Loaded) Remove(c geom.Vec3) {
	l.mu.Lock()
	delete(l.chunks, c)
	l.mu.Unlock()
}

// Len returns the number of resident chunks.
func (l *Loaded) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chunks)
}

// All yields a snapshot of the resident chunks in coordinate order.
func (l *Loaded) All() iter.Seq2[geom.Vec3, *chunk.Chunk] {
	l.mu.RLock()
	keys := slices.SortedFunc(maps.Keys(l.chunks), compareRegions)
	snapshot := make([]*chunk.Chunk, len(keys))
	for i, k := range keys {
		snapshot[i] = l.chunks[k]
	}
	l.mu.RUnlock()

	return func(yield func(geom.Vec3, *chunk.Chunk) bool) {
		for i, k := range keys {
			if !yield(k, snapshot[i]) {
				return
			}
		}
	}
}

// Dirty returns the coordinates of unsaved chunks in coordinate order.
func (l *Loaded) Dirty() []geom.Vec3 {
	var out []geom.Vec3
	for c, ch := range l.All() {
		if !ch.IsSaved() {
			out = append(out, c)
		}
	}

	return out
}

// IsSaved reports whether every chunk has been saved since the collection was
// last marked saved.
func (l *Loaded) IsSaved() bool {
	return l.marker.IsSaved()
}

// MarkSaved marks the collection itself saved. Chunks are not touched.
func (l *Loaded) MarkSaved() {
	l.marker.MarkSaved()
}

// AddListener runs fn after the next successful save, or now if nothing is
// dirty.
func (l *Loaded) AddListener(fn func()) {
	l.marker.AddListener(fn)
}
