// Package chunk holds the in-memory form of a chunk: a dense array of runtime
// block ids plus sparse block-entity payloads keyed by block index.
//
// Block positions are linearized with geom.Vec3.Index, so X varies fastest,
// then Z, then Y. Block-entity payloads are opaque bytes owned by the host.
package chunk

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/savemarker"
)

// Chunk is the smallest independently loadable and savable unit of blocks.
//
// A Chunk also acts as a save marker over itself and any host objects
// registered with Track. Block and entity data must not be mutated while a
// save of the chunk is in progress.
type Chunk struct {
	size     geom.Vec3
	blocks   []uint32
	entities map[int][]byte

	trackMu sync.Mutex
	tracked []savemarker.Saver
	marker  *savemarker.Composite
}

var _ savemarker.Saver = (*Chunk)(nil)

// New creates an all-air chunk of the given size. A new chunk is unsaved.
func New(size geom.Vec3) (*Chunk, error) {
	if !size.Positive() {
		return nil, fmt.Errorf("%w: chunk size %s", errs.ErrInvalidDimensions, size)
	}

	c := &Chunk{
		size:     size,
		blocks:   make([]uint32, size.Volume()),
		entities: make(map[int][]byte),
	}
	c.marker = savemarker.NewComposite(false, c.trackedSavers)

	return c, nil
}

// Size returns the chunk dimensions in blocks.
func (c *Chunk) Size() geom.Vec3 {
	return c.size
}

// Volume returns the number of blocks.
func (c *Chunk) Volume() int {
	return len(c.blocks)
}

// Block returns the runtime id at pos.
func (c *Chunk) Block(pos geom.Vec3) (uint32, error) {
	if !pos.Within(c.size) {
		return 0, fmt.Errorf("%w: block %s in chunk of size %s", errs.ErrCoordOutOfRange, pos, c.size)
	}

	return c.blocks[pos.Index(c.size)], nil
}

// SetBlock stores a runtime id at pos.
func (c *Chunk) SetBlock(pos geom.Vec3, id uint32) error {
	if !pos.Within(c.size) {
		return fmt.Errorf("%w: block %s in chunk of size %s", errs.ErrCoordOutOfRange, pos, c.size)
	}
	c.blocks[pos.Index(c.size)] = id

	return nil
}

// BlockAt returns the runtime id at a linear index, or 0 when out of range.
func (c *Chunk) BlockAt(i int) uint32 {
	if i < 0 || i >= len(c.blocks) {
		return 0
	}

	return c.blocks[i]
}

// SetBlockAt stores a runtime id at a linear index.
func (c *Chunk) SetBlockAt(i int, id uint32) error {
	if i < 0 || i >= len(c.blocks) {
		return fmt.Errorf("%w: block index %d of %d", errs.ErrCoordOutOfRange, i, len(c.blocks))
	}
	c.blocks[i] = id

	return nil
}

// Blocks returns the block array. The slice is shared with the chunk.
func (c *Chunk) Blocks() []uint32 {
	return c.blocks
}

// SetBlocks replaces the whole block array with a copy of ids.
func (c *Chunk) SetBlocks(ids []uint32) error {
	if len(ids) != len(c.blocks) {
		return fmt.Errorf("%w: got %d, chunk holds %d", errs.ErrBlockCountMismatch, len(ids), len(c.blocks))
	}
	copy(c.blocks, ids)

	return nil
}

// Entity returns the block-entity payload at block index i.
func (c *Chunk) Entity(i int) ([]byte, bool) {
	b, ok := c.entities[i]
	return b, ok
}

// SetEntity stores a block-entity payload at block index i. An empty payload
// removes the entity.
func (c *Chunk) SetEntity(i int, blob []byte) error {
	if i < 0 || i >= len(c.blocks) {
		return fmt.Errorf("%w: entity index %d of %d", errs.ErrCoordOutOfRange, i, len(c.blocks))
	}
	if len(blob) == 0 {
		delete(c.entities, i)
		return nil
	}
	c.entities[i] = blob

	return nil
}

// RemoveEntity deletes the payload at block index i.
func (c *Chunk) RemoveEntity(i int) {
	delete(c.entities, i)
}

// EntityCount returns the number of block entities.
func (c *Chunk) EntityCount() int {
	return len(c.entities)
}

// Entities yields block entities in ascending index order.
func (c *Chunk) Entities() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for _, i := range slices.Sorted(maps.Keys(c.entities)) {
			if !yield(i, c.entities[i]) {
				return
			}
		}
	}
}

// IsEmpty reports whether every block is air (runtime id 0) and there are no
// block entities.
func (c *Chunk) IsEmpty() bool {
	if len(c.entities) > 0 {
		return false
	}
	for _, id := range c.blocks {
		if id != 0 {
			return false
		}
	}

	return true
}

// Equal compares size, blocks and entity payloads.
func (c *Chunk) Equal(o *Chunk) bool {
	return c.size == o.size &&
		slices.Equal(c.blocks, o.blocks) &&
		maps.EqualFunc(c.entities, o.entities, func(a, b []byte) bool { return string(a) == string(b) })
}

// Track registers a host object whose unsaved state makes the chunk unsaved,
// such as a block entity that buffers its own changes.
func (c *Chunk) Track(s savemarker.Saver) {
	c.trackMu.Lock()
	c.tracked = append(c.tracked, s)
	c.trackMu.Unlock()
}

func (c *Chunk) trackedSavers(yield func(savemarker.Saver) bool) {
	c.trackMu.Lock()
	snapshot := slices.Clone(c.tracked)
	c.trackMu.Unlock()

	for _, s := range snapshot {
		if !yield(s) {
			return
		}
	}
}

// IsSaved reports whether the chunk and every tracked object are saved.
func (c *Chunk) IsSaved() bool {
	return c.marker.IsSaved()
}

// MarkDirty flags the chunk as changed since the last save.
func (c *Chunk) MarkDirty() {
	c.marker.MarkDirty()
}

// MarkSaved records that the chunk's current contents are on disk. Tracked
// objects are marked first, since their payloads were written with the chunk.
func (c *Chunk) MarkSaved() {
	for s := range c.trackedSavers {
		s.MarkSaved()
	}
	c.marker.MarkSaved()
}

// AddListener runs fn once the chunk is next saved, or now if it already is.
func (c *Chunk) AddListener(fn func()) {
	c.marker.AddListener(fn)
}
