package region

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/internal/pool"
	"github.com/voxelforge/worldstore/palette"
	"github.com/voxelforge/worldstore/tag"
)

// ChunkError reports a chunk body that could not be read. The rest of the
// region is unaffected.
type ChunkError struct {
	Local geom.Vec3
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %s: %v", e.Local, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Region is a fixed-size 3D block of chunk slots persisted as one file.
//
// Only slots holding a chunk are materialized. A Region is a short-lived
// codec session: create one per load or save and discard it afterwards. It is
// not safe for concurrent use.
type Region struct {
	pos       geom.Vec3
	size      geom.Vec3
	chunkSize geom.Vec3
	resolver  block.Resolver

	chunks   map[geom.Vec3]*chunk.Chunk
	failures map[geom.Vec3]error
	states   []block.State
	palette  *palette.Values[block.State]
	state    State
}

// New creates an empty region at region coordinate pos holding size chunks of
// chunkSize blocks each.
func New(pos, size, chunkSize geom.Vec3, resolver block.Resolver) (*Region, error) {
	if !size.Positive() {
		return nil, fmt.Errorf("%w: region size %s", errs.ErrInvalidDimensions, size)
	}
	if !chunkSize.Positive() {
		return nil, fmt.Errorf("%w: chunk size %s", errs.ErrInvalidDimensions, chunkSize)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: nil block resolver", errs.ErrUnknownBlockState)
	}

	return &Region{
		pos:       pos,
		size:      size,
		chunkSize: chunkSize,
		resolver:  resolver,
		chunks:    make(map[geom.Vec3]*chunk.Chunk),
		failures:  make(map[geom.Vec3]error),
		palette:   palette.NewValues(block.Air),
	}, nil
}

// Pos returns the region coordinate.
func (r *Region) Pos() geom.Vec3 { return r.pos }

// Size returns the region dimensions in chunks.
func (r *Region) Size() geom.Vec3 { return r.size }

// ChunkSize returns the chunk dimensions in blocks.
func (r *Region) ChunkSize() geom.Vec3 { return r.chunkSize }

// Capacity returns the number of chunk slots.
func (r *Region) Capacity() int { return r.size.Volume() }

// State returns the lifecycle stage.
func (r *Region) State() State { return r.state }

// Len returns the number of resident chunks.
func (r *Region) Len() int { return len(r.chunks) }

// Palette returns the block-state palette of the last read or write.
func (r *Region) Palette() []block.State {
	return slices.Clone(r.states)
}

func (r *Region) checkLocal(local geom.Vec3) error {
	if !local.Within(r.size) {
		return fmt.Errorf("%w: chunk %s in region of size %s", errs.ErrCoordOutOfRange, local, r.size)
	}

	return nil
}

// Chunk returns the chunk at a region-local coordinate.
func (r *Region) Chunk(local geom.Vec3) (*chunk.Chunk, bool, error) {
	if err := r.checkLocal(local); err != nil {
		return nil, false, err
	}
	c, ok := r.chunks[local]

	return c, ok, nil
}

// SetChunk stores c at a region-local coordinate, replacing any previous
// chunk or recorded failure there.
func (r *Region) SetChunk(local geom.Vec3, c *chunk.Chunk) error {
	if err := r.checkLocal(local); err != nil {
		return err
	}
	if c.Size() != r.chunkSize {
		return fmt.Errorf("%w: chunk of size %s in region of %s chunks", errs.ErrInvalidDimensions, c.Size(), r.chunkSize)
	}
	r.chunks[local] = c
	delete(r.failures, local)

	return nil
}

// RemoveChunk clears a slot.
func (r *Region) RemoveChunk(local geom.Vec3) error {
	if err := r.checkLocal(local); err != nil {
		return err
	}
	delete(r.chunks, local)
	delete(r.failures, local)

	return nil
}

// ChunkErr returns the decode failure recorded for a slot, if any.
func (r *Region) ChunkErr(local geom.Vec3) error {
	if err := r.checkLocal(local); err != nil {
		return err
	}

	return r.failures[local]
}

// Failures yields every slot whose body failed to decode.
func (r *Region) Failures() iter.Seq2[geom.Vec3, error] {
	return func(yield func(geom.Vec3, error) bool) {
		for _, local := range slices.SortedFunc(maps.Keys(r.failures), geom.Compare) {
			if !yield(local, r.failures[local]) {
				return
			}
		}
	}
}

// Chunks yields resident chunks in slot order.
func (r *Region) Chunks() iter.Seq2[geom.Vec3, *chunk.Chunk] {
	return func(yield func(geom.Vec3, *chunk.Chunk) bool) {
		for _, local := range slices.SortedFunc(maps.Keys(r.chunks), geom.Compare) {
			if !yield(local, r.chunks[local]) {
				return
			}
		}
	}
}

// rebuildPalette resets the block-state palette to air plus every state used
// by a resident chunk, and returns the runtime id to palette id mapping.
func (r *Region) rebuildPalette() (map[uint32]int32, error) {
	r.palette.Reset()
	lookup := make(map[uint32]int32)

	for local, c := range r.Chunks() {
		for _, runtimeID := range c.Blocks() {
			if _, ok := lookup[runtimeID]; ok {
				continue
			}
			s, ok := r.resolver.State(runtimeID)
			if !ok {
				return nil, fmt.Errorf("%w: runtime id %d in chunk %s", errs.ErrUnknownBlockState, runtimeID, local)
			}
			pid, err := r.palette.GetOrAdd(s)
			if err != nil {
				return nil, err
			}
			lookup[runtimeID] = pid
		}
	}

	r.states = r.states[:0]
	for _, s := range r.palette.All() {
		r.states = append(r.states, s)
	}

	return lookup, nil
}

// Encode writes the whole region to w and returns the number of bytes written.
//
// Bodies are encoded first so the offset table can be emitted from known
// lengths; w only needs to support sequential writes.
func (r *Region) Encode(w io.Writer) (int64, error) {
	lookup, err := r.rebuildPalette()
	if err != nil {
		return 0, err
	}

	bodies, err := tag.NewEncoder()
	if err != nil {
		return 0, err
	}
	defer bodies.Release()

	offsets := make([]int64, r.Capacity())
	for i := range offsets {
		offsets[i] = Absent
	}
	for local, c := range r.Chunks() {
		if c.Size() != r.chunkSize {
			return 0, fmt.Errorf("%w: chunk %s has size %s, region holds %s", errs.ErrInvalidDimensions, local, c.Size(), r.chunkSize)
		}
		offsets[local.Index(r.size)] = int64(bodies.Len())
		if err := encodeBody(bodies, c, lookup); err != nil {
			return 0, fmt.Errorf("chunk %s: %w", local, err)
		}
	}

	head, err := encodeHeader(r.states, offsets, int64(bodies.Len()))
	if err != nil {
		return 0, err
	}

	n, err := w.Write(head)
	written := int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(bodies.Bytes())
	written += int64(n)
	if err != nil {
		return written, err
	}
	r.state = StateWritten

	return written, nil
}

// resolveStates maps every palette entry to a runtime id.
func (r *Region) resolveStates(states []block.State) ([]uint32, error) {
	runtimeIDs := make([]uint32, len(states))
	for i, s := range states {
		id, ok := r.resolver.RuntimeID(s)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errs.ErrUnknownBlockState, s)
		}
		runtimeIDs[i] = id
	}

	return runtimeIDs, nil
}

// loadHeader reads the header at the current position of rs and returns it
// with the absolute position of the first body byte.
func (r *Region) loadHeader(rs io.ReadSeeker) (*Header, []uint32, int64, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, 0, err
	}
	h, err := ReadHeader(rs, r.Capacity())
	if err != nil {
		return nil, nil, 0, err
	}
	runtimeIDs, err := r.resolveStates(h.States)
	if err != nil {
		return nil, nil, 0, err
	}
	r.states = h.States
	r.state = StatePaletteLoaded

	return h, runtimeIDs, start + h.Size, nil
}

func (r *Region) readBody(rs io.ReadSeeker, at, length int64, runtimeIDs []uint32) (*chunk.Chunk, error) {
	if length > tag.DefaultMaxLength {
		return nil, fmt.Errorf("%w: body of %d bytes", errs.ErrInvalidLength, length)
	}
	if _, err := rs.Seek(at, io.SeekStart); err != nil {
		return nil, err
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	buf.Grow(int(length))
	data := buf.B[:length]
	if _, err := io.ReadFull(rs, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: body of %d bytes: %w", errs.ErrTruncated, length, err)
		}

		return nil, err
	}

	return decodeBody(data, r.chunkSize, runtimeIDs)
}

// Decode reads a whole region from the current position of rs, replacing any
// resident chunks.
//
// Each body is decoded on its own. A failing body is recorded as a
// *ChunkError, retrievable with ChunkErr, and leaves the region in
// StatePartiallyLoaded; header failures abort the call. On success rs is
// positioned just past the last body.
func (r *Region) Decode(rs io.ReadSeeker) error {
	h, runtimeIDs, chunksStart, err := r.loadHeader(rs)
	if err != nil {
		return err
	}

	clear(r.chunks)
	clear(r.failures)
	for slot := range h.Offsets {
		off, length, ok := h.Span(slot)
		if !ok {
			continue
		}
		local := geom.FromIndex(slot, r.size)
		c, err := r.readBody(rs, chunksStart+off, length, runtimeIDs)
		if err != nil {
			r.failures[local] = &ChunkError{Local: local, Err: err}
			continue
		}
		r.chunks[local] = c
	}

	r.state = StateChunksLoaded
	if len(r.failures) > 0 {
		r.state = StatePartiallyLoaded
	}

	_, err = rs.Seek(chunksStart+h.End, io.SeekStart)

	return err
}

// DecodeChunk reads the header of the region at the current position of rs
// and then only the body of the chunk at local.
//
// It returns false with a nil error when the slot is empty. A body that
// fails to decode is returned as a *ChunkError. The chunk is also stored in
// the region.
func (r *Region) DecodeChunk(rs io.ReadSeeker, local geom.Vec3) (*chunk.Chunk, bool, error) {
	if err := r.checkLocal(local); err != nil {
		return nil, false, err
	}

	h, runtimeIDs, chunksStart, err := r.loadHeader(rs)
	if err != nil {
		return nil, false, err
	}

	off, length, ok := h.Span(local.Index(r.size))
	if !ok {
		return nil, false, nil
	}

	c, err := r.readBody(rs, chunksStart+off, length, runtimeIDs)
	if err != nil {
		cerr := &ChunkError{Local: local, Err: err}
		r.failures[local] = cerr

		return nil, false, cerr
	}
	r.chunks[local] = c
	delete(r.failures, local)

	return c, true, nil
}
