package region

import (
	"fmt"
	"io"
	"slices"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/endian"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
	"github.com/voxelforge/worldstore/palette"
	"github.com/voxelforge/worldstore/tag"
)

// Absent is the offset recorded for an empty slot.
const Absent int64 = -1

const offsetSize = 8

// Header is everything in a region file before the first chunk body.
type Header struct {
	// States is the block-state palette; the position is the palette id.
	States []block.State
	// Offsets holds one body offset per slot, or Absent.
	Offsets []int64
	// End is the offset just past the last body.
	End int64
	// Size is the encoded length of the header in bytes.
	Size int64

	// sorted holds the distinct present offsets in ascending order.
	sorted []int64
}

// Present returns the number of slots holding a chunk.
func (h *Header) Present() int {
	n := 0
	for _, off := range h.Offsets {
		if off != Absent {
			n++
		}
	}

	return n
}

// Span returns the body offset and length of slot. ok is false when the slot
// is absent or out of range.
func (h *Header) Span(slot int) (offset, length int64, ok bool) {
	if slot < 0 || slot >= len(h.Offsets) || h.Offsets[slot] == Absent {
		return 0, 0, false
	}

	offset = h.Offsets[slot]
	if h.sorted == nil {
		h.sortOffsets()
	}
	bound := h.End
	if i, found := slices.BinarySearch(h.sorted, offset); found && i+1 < len(h.sorted) {
		bound = h.sorted[i+1]
	}

	return offset, bound - offset, true
}

func (h *Header) sortOffsets() {
	sorted := make([]int64, 0, len(h.Offsets))
	for _, off := range h.Offsets {
		if off != Absent {
			sorted = append(sorted, off)
		}
	}
	slices.Sort(sorted)
	h.sorted = slices.Compact(sorted)
}

// ReadHeader reads the palette, offset table and end marker of a region with
// the given slot capacity. Exactly Size bytes are consumed from r.
func ReadHeader(r io.Reader, capacity int) (*Header, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", errs.ErrInvalidDimensions, capacity)
	}

	cr := &countingReader{r: r}
	statesTag, _, err := palette.DecodeFramed(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: palette: %w", errs.ErrInvalidRegionFile, err)
	}
	states, err := statesFromTag(statesTag)
	if err != nil {
		return nil, err
	}

	dec, err := tag.NewDecoder(cr)
	if err != nil {
		return nil, err
	}
	raw, err := dec.ReadBytes((capacity + 1) * offsetSize)
	if err != nil {
		return nil, fmt.Errorf("%w: offset table: %w", errs.ErrInvalidRegionFile, err)
	}

	engine := endian.Default()
	h := &Header{
		States:  states,
		Offsets: make([]int64, capacity),
		End:     int64(engine.Uint64(raw[capacity*offsetSize:])), //nolint:gosec
	}
	if h.End < 0 {
		return nil, fmt.Errorf("%w: end marker %d", errs.ErrInvalidRegionFile, h.End)
	}
	for i := range h.Offsets {
		off := int64(engine.Uint64(raw[i*offsetSize:])) //nolint:gosec
		if off != Absent && (off < 0 || off > h.End) {
			return nil, fmt.Errorf("%w: slot %d offset %d beyond end %d", errs.ErrInvalidRegionFile, i, off, h.End)
		}
		h.Offsets[i] = off
	}
	h.Size = cr.n
	h.sortOffsets()

	return h, nil
}

func statesFromTag(t tag.Tag) ([]block.State, error) {
	l, ok := t.AsList()
	if !ok {
		return nil, fmt.Errorf("%w: block-state palette is %s", errs.ErrInvalidRegionFile, t.Type())
	}
	if l.Len() > 0 && l.ElemType() != format.TypeCompound {
		return nil, fmt.Errorf("%w: block-state palette holds %s", errs.ErrInvalidRegionFile, l.ElemType())
	}

	states := make([]block.State, 0, l.Len())
	for i, item := range l.All() {
		s, err := block.StateFromTag(item)
		if err != nil {
			return nil, fmt.Errorf("block-state palette entry %d: %w", i, err)
		}
		states = append(states, s)
	}

	return states, nil
}

func statesTag(states []block.State) tag.Tag {
	l := tag.NewList()
	for _, s := range states {
		_ = l.Add(s.Tag())
	}

	return l.Tag()
}

// encodeHeader writes the framed palette, the offset table and end marker.
func encodeHeader(states []block.State, offsets []int64, end int64) ([]byte, error) {
	head, err := palette.EncodeFramed(statesTag(states))
	if err != nil {
		return nil, err
	}

	engine := endian.Default()
	out := make([]byte, 0, len(head)+(len(offsets)+1)*offsetSize)
	out = append(out, head...)
	for _, off := range offsets {
		out = engine.AppendUint64(out, uint64(off)) //nolint:gosec
	}
	out = engine.AppendUint64(out, uint64(end)) //nolint:gosec

	return out, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}
