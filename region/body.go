package region

import (
	"bytes"
	"fmt"

	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/internal/pool"
	"github.com/voxelforge/worldstore/tag"
)

// encodeBody appends one chunk body. lookup maps runtime ids to palette ids
// and must cover every block in c.
func encodeBody(enc *tag.Encoder, c *chunk.Chunk, lookup map[uint32]int32) error {
	ids, release := pool.GetInt32Slice(c.Volume())
	defer release()

	for i, runtimeID := range c.Blocks() {
		pid, ok := lookup[runtimeID]
		if !ok {
			return fmt.Errorf("%w: runtime id %d", errs.ErrPaletteValueUnknown, runtimeID)
		}
		ids[i] = pid
	}
	for _, pid := range ids {
		enc.WriteInt32(pid)
	}

	enc.WriteInt32(int32(c.EntityCount())) //nolint:gosec
	for i, blob := range c.Entities() {
		enc.WriteInt32(int32(i))         //nolint:gosec
		enc.WriteInt32(int32(len(blob))) //nolint:gosec
		enc.WriteBytes(blob)
	}

	return nil
}

// decodeBody decodes one chunk body. runtimeIDs maps palette ids to runtime
// ids. The decoded chunk is marked saved since it matches storage.
func decodeBody(data []byte, size geom.Vec3, runtimeIDs []uint32) (*chunk.Chunk, error) {
	c, err := chunk.New(size)
	if err != nil {
		return nil, err
	}

	dec, err := tag.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	blocks := c.Blocks()
	for i := range blocks {
		pid, err := dec.ReadInt32()
		if err != nil {
			return nil, err
		}
		if pid < 0 || int(pid) >= len(runtimeIDs) {
			return nil, fmt.Errorf("%w: block %d uses id %d, palette size %d", errs.ErrPaletteIDOutOfRange, i, pid, len(runtimeIDs))
		}
		blocks[i] = runtimeIDs[pid]
	}

	count, err := dec.ReadInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count) > len(blocks) {
		return nil, fmt.Errorf("%w: entity count %d", errs.ErrInvalidLength, count)
	}

	for range count {
		idx, err := dec.ReadInt32()
		if err != nil {
			return nil, err
		}
		n, err := dec.ReadInt32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: entity blob length %d", errs.ErrInvalidLength, n)
		}
		if n == 0 {
			continue
		}
		blob, err := dec.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		if err := c.SetEntity(int(idx), blob); err != nil {
			return nil, err
		}
	}

	c.MarkSaved()

	return c, nil
}
