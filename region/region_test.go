package region

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
)

var (
	testRegionSize = geom.V(4, 2, 4)
	testChunkSize  = geom.V(4, 4, 4)
	stone          = block.State{Name: "stone"}
	chest          = block.State{Name: "chest", Properties: map[string]string{"facing": "east"}}
)

func newTestRegion(t *testing.T, reg block.Resolver) *Region {
	t.Helper()

	r, err := New(geom.V(0, 0, 0), testRegionSize, testChunkSize, reg)
	require.NoError(t, err)

	return r
}

func newTestChunk(t *testing.T) *chunk.Chunk {
	t.Helper()

	c, err := chunk.New(testChunkSize)
	require.NoError(t, err)

	return c
}

func encodeRegion(t *testing.T, r *Region) []byte {
	t.Helper()

	var buf bytes.Buffer
	n, err := r.Encode(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Equal(t, StateWritten, r.State())

	return buf.Bytes()
}

func bodySize(entityBytes int) int {
	return testChunkSize.Volume()*4 + 4 + entityBytes
}

func TestEndToEnd_SingleChunk(t *testing.T) {
	require := require.New(t)
	reg := block.NewRegistry(true)
	stoneID := reg.Register(stone)

	c := newTestChunk(t)
	require.NoError(c.SetBlockAt(2, stoneID))
	require.NoError(c.SetEntity(2, []byte("ABC")))

	r := newTestRegion(t, reg)
	require.NoError(r.SetChunk(geom.V(1, 0, 3), c))
	data := encodeRegion(t, r)

	loaded := newTestRegion(t, reg)
	require.NoError(loaded.Decode(bytes.NewReader(data)))
	require.Equal(StateChunksLoaded, loaded.State())
	require.Equal(1, loaded.Len())

	got, ok, err := loaded.Chunk(geom.V(1, 0, 3))
	require.NoError(err)
	require.True(ok)
	require.Equal(c.Blocks(), got.Blocks())

	want := make([]uint32, testChunkSize.Volume())
	want[2] = stoneID
	require.Equal(want, got.Blocks())

	blob, ok := got.Entity(2)
	require.True(ok)
	require.Equal([]byte("ABC"), blob)
	require.Equal(1, got.EntityCount(), "no entity at any other index")
	require.True(got.IsSaved(), "decoded chunks match storage")
}

func TestOffsetTable_SingleChunkRead(t *testing.T) {
	require := require.New(t)
	reg := block.NewRegistry(true)
	stoneID := reg.Register(stone)
	chestID := reg.Register(chest)

	a := newTestChunk(t)
	require.NoError(a.SetBlockAt(0, stoneID))
	b := newTestChunk(t)
	for i := range b.Volume() {
		require.NoError(b.SetBlockAt(i, stoneID))
	}
	require.NoError(b.SetBlockAt(5, chestID))
	require.NoError(b.SetEntity(5, []byte{1, 2, 3, 4}))

	r := newTestRegion(t, reg)
	require.NoError(r.SetChunk(geom.V(0, 0, 0), a))
	require.NoError(r.SetChunk(geom.V(2, 1, 0), b))
	data := encodeRegion(t, r)

	full := newTestRegion(t, reg)
	require.NoError(full.Decode(bytes.NewReader(data)))
	fromFull, ok, err := full.Chunk(geom.V(2, 1, 0))
	require.NoError(err)
	require.True(ok)

	single := newTestRegion(t, reg)
	one, ok, err := single.DecodeChunk(bytes.NewReader(data), geom.V(2, 1, 0))
	require.NoError(err)
	require.True(ok)
	require.True(one.Equal(fromFull))
	require.True(one.Equal(b))
	require.Equal(StatePaletteLoaded, single.State())

	for _, absent := range []geom.Vec3{geom.V(1, 0, 0), geom.V(3, 1, 3), geom.V(2, 0, 0)} {
		c, ok, err := single.DecodeChunk(bytes.NewReader(data), absent)
		require.NoError(err, absent.String())
		require.False(ok)
		require.Nil(c)
	}

	_, _, err = single.DecodeChunk(bytes.NewReader(data), geom.V(4, 0, 0))
	require.ErrorIs(err, errs.ErrCoordOutOfRange)
}

func TestSparseRoundTrip(t *testing.T) {
	require := require.New(t)
	reg := block.NewRegistry(true)

	r := newTestRegion(t, reg)
	slots := []geom.Vec3{geom.V(0, 0, 0), geom.V(3, 1, 2), geom.V(1, 0, 3)}
	for _, local := range slots {
		require.NoError(r.SetChunk(local, newTestChunk(t)))
	}
	data := encodeRegion(t, r)

	h, err := ReadHeader(bytes.NewReader(data), r.Capacity())
	require.NoError(err)
	require.Equal(3, h.Present())
	require.Equal(int64(3*bodySize(0)), h.End)
	require.Equal(len(data), int(h.Size)+3*bodySize(0), "file grows with populated chunks, not capacity")

	loaded := newTestRegion(t, reg)
	require.NoError(loaded.Decode(bytes.NewReader(data)))
	require.Equal(3, loaded.Len())

	var got []geom.Vec3
	for local := range loaded.Chunks() {
		got = append(got, local)
	}
	require.Equal([]geom.Vec3{geom.V(0, 0, 0), geom.V(1, 0, 3), geom.V(3, 1, 2)}, got)
}

func TestEncode_EmptyRegion(t *testing.T) {
	reg := block.NewRegistry(true)
	data := encodeRegion(t, newTestRegion(t, reg))

	h, err := ReadHeader(bytes.NewReader(data), testRegionSize.Volume())
	require.NoError(t, err)
	require.Equal(t, 0, h.Present())
	require.Equal(t, int64(0), h.End)
	require.Len(t, h.States, 1)
	require.True(t, h.States[0].Equal(block.Air))

	loaded := newTestRegion(t, reg)
	require.NoError(t, loaded.Decode(bytes.NewReader(data)))
	require.Equal(t, 0, loaded.Len())
}

func TestPalette_AirAlwaysZero(t *testing.T) {
	reg := block.NewRegistry(true)
	stoneID := reg.Register(stone)

	c := newTestChunk(t)
	for i := range c.Volume() {
		require.NoError(t, c.SetBlockAt(i, stoneID))
	}

	r := newTestRegion(t, reg)
	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), c))
	encodeRegion(t, r)

	states := r.Palette()
	require.Len(t, states, 2)
	require.True(t, states[0].Equal(block.Air))
	require.True(t, states[1].Equal(stone))
}

func TestDecode_TranslatesRuntimeIDs(t *testing.T) {
	writer := block.NewRegistry(true)
	stoneID := writer.Register(stone)

	c := newTestChunk(t)
	require.NoError(t, c.SetBlockAt(7, stoneID))
	r := newTestRegion(t, writer)
	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), c))
	data := encodeRegion(t, r)

	reader := block.NewRegistry(true)
	reader.Register(block.State{Name: "dirt"})
	readerStone := reader.Register(stone)
	require.NotEqual(t, stoneID, readerStone)

	loaded := newTestRegion(t, reader)
	got, ok, err := loaded.DecodeChunk(bytes.NewReader(data), geom.V(0, 0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, readerStone, got.BlockAt(7))
}

func TestUnknownBlockState(t *testing.T) {
	reg := block.NewRegistry(false)
	c := newTestChunk(t)
	require.NoError(t, c.SetBlockAt(0, 42))

	r := newTestRegion(t, reg)
	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), c))
	_, err := r.Encode(&bytes.Buffer{})
	require.ErrorIs(t, err, errs.ErrUnknownBlockState)

	writer := block.NewRegistry(true)
	c2 := newTestChunk(t)
	require.NoError(t, c2.SetBlockAt(0, writer.Register(stone)))
	w := newTestRegion(t, writer)
	require.NoError(t, w.SetChunk(geom.V(0, 0, 0), c2))
	data := encodeRegion(t, w)

	strict := newTestRegion(t, block.NewRegistry(false))
	err = strict.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, errs.ErrUnknownBlockState)
}

func TestPartialCorruption(t *testing.T) {
	require := require.New(t)
	reg := block.NewRegistry(true)

	r := newTestRegion(t, reg)
	require.NoError(r.SetChunk(geom.V(0, 0, 0), newTestChunk(t)))
	require.NoError(r.SetChunk(geom.V(1, 0, 0), newTestChunk(t)))
	data := encodeRegion(t, r)

	h, err := ReadHeader(bytes.NewReader(data), r.Capacity())
	require.NoError(err)
	off, _, ok := h.Span(geom.V(0, 0, 0).Index(testRegionSize))
	require.True(ok)
	// first block id of the first chunk points far past the palette
	copy(data[h.Size+off:], []byte{0xFF, 0xFF, 0xFF, 0x7F})

	loaded := newTestRegion(t, reg)
	require.NoError(loaded.Decode(bytes.NewReader(data)))
	require.Equal(StatePartiallyLoaded, loaded.State())
	require.Equal(1, loaded.Len())

	require.ErrorIs(loaded.ChunkErr(geom.V(0, 0, 0)), errs.ErrPaletteIDOutOfRange)
	require.NoError(loaded.ChunkErr(geom.V(1, 0, 0)))
	_, ok, err = loaded.Chunk(geom.V(1, 0, 0))
	require.NoError(err)
	require.True(ok)

	failed := 0
	for range loaded.Failures() {
		failed++
	}
	require.Equal(1, failed)

	_, ok, err = newTestRegion(t, reg).DecodeChunk(bytes.NewReader(data), geom.V(0, 0, 0))
	require.False(ok)
	var cerr *ChunkError
	require.True(errors.As(err, &cerr))
	require.Equal(geom.V(0, 0, 0), cerr.Local)
}

func TestTruncatedLastChunk(t *testing.T) {
	reg := block.NewRegistry(true)
	r := newTestRegion(t, reg)
	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), newTestChunk(t)))
	require.NoError(t, r.SetChunk(geom.V(0, 1, 0), newTestChunk(t)))
	data := encodeRegion(t, r)

	loaded := newTestRegion(t, reg)
	require.NoError(t, loaded.Decode(bytes.NewReader(data[:len(data)-1])))
	require.Equal(t, StatePartiallyLoaded, loaded.State())
	require.ErrorIs(t, loaded.ChunkErr(geom.V(0, 1, 0)), errs.ErrTruncated)
	require.NoError(t, loaded.ChunkErr(geom.V(0, 0, 0)))
}

func TestDecode_StopsAtEndMarker(t *testing.T) {
	reg := block.NewRegistry(true)
	r := newTestRegion(t, reg)
	require.NoError(t, r.SetChunk(geom.V(3, 0, 0), newTestChunk(t)))
	data := encodeRegion(t, r)

	trailer := []byte("next record")
	rd := bytes.NewReader(append(data, trailer...))
	require.NoError(t, newTestRegion(t, reg).Decode(rd))
	require.Equal(t, len(trailer), rd.Len())
}

func TestReadHeader_Invalid(t *testing.T) {
	reg := block.NewRegistry(true)
	r := newTestRegion(t, reg)
	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), newTestChunk(t)))
	data := encodeRegion(t, r)

	_, err := ReadHeader(bytes.NewReader([]byte{99}), r.Capacity())
	require.ErrorIs(t, err, errs.ErrInvalidRegionFile)

	h, err := ReadHeader(bytes.NewReader(data), r.Capacity())
	require.NoError(t, err)
	tableStart := int(h.Size) - (r.Capacity()+1)*offsetSize

	_, err = ReadHeader(bytes.NewReader(data[:tableStart+4]), r.Capacity())
	require.ErrorIs(t, err, errs.ErrInvalidRegionFile)
	require.ErrorIs(t, err, errs.ErrTruncated)

	bad := bytes.Clone(data)
	// slot 0 offset beyond the end marker
	copy(bad[tableStart:], []byte{0, 0, 0, 0, 0, 0, 0, 0x10})
	_, err = ReadHeader(bytes.NewReader(bad), r.Capacity())
	require.ErrorIs(t, err, errs.ErrInvalidRegionFile)

	_, err = ReadHeader(bytes.NewReader(data), 0)
	require.ErrorIs(t, err, errs.ErrInvalidDimensions)
}

func TestHeader_Span(t *testing.T) {
	h := &Header{Offsets: []int64{40, Absent, 0, 40, 15, Absent}, End: 70}

	tests := []struct {
		slot   int
		off    int64
		length int64
		ok     bool
	}{
		{slot: 0, off: 40, length: 30, ok: true},
		{slot: 1},
		{slot: 2, off: 0, length: 15, ok: true},
		{slot: 3, off: 40, length: 30, ok: true},
		{slot: 4, off: 15, length: 25, ok: true},
		{slot: 5},
		{slot: -1},
		{slot: 6},
	}

	for _, tt := range tests {
		off, length, ok := h.Span(tt.slot)
		require.Equal(t, tt.ok, ok, "slot %d", tt.slot)
		require.Equal(t, tt.off, off, "slot %d", tt.slot)
		require.Equal(t, tt.length, length, "slot %d", tt.slot)
	}
}

func TestChunkAccessors(t *testing.T) {
	r := newTestRegion(t, block.NewRegistry(true))

	_, _, err := r.Chunk(geom.V(-1, 0, 0))
	require.ErrorIs(t, err, errs.ErrCoordOutOfRange)
	require.ErrorIs(t, r.SetChunk(geom.V(0, 2, 0), newTestChunk(t)), errs.ErrCoordOutOfRange)
	require.ErrorIs(t, r.RemoveChunk(geom.V(0, 0, 4)), errs.ErrCoordOutOfRange)
	require.ErrorIs(t, r.ChunkErr(geom.V(9, 9, 9)), errs.ErrCoordOutOfRange)

	small, err := chunk.New(geom.V(2, 2, 2))
	require.NoError(t, err)
	require.ErrorIs(t, r.SetChunk(geom.V(0, 0, 0), small), errs.ErrInvalidDimensions)

	require.NoError(t, r.SetChunk(geom.V(0, 0, 0), newTestChunk(t)))
	require.Equal(t, 1, r.Len())
	require.NoError(t, r.RemoveChunk(geom.V(0, 0, 0)))
	require.Equal(t, 0, r.Len())
	require.Equal(t, 32, r.Capacity())
}

func TestNew_Invalid(t *testing.T) {
	reg := block.NewRegistry(true)

	_, err := New(geom.V(0, 0, 0), geom.V(0, 1, 1), testChunkSize, reg)
	require.ErrorIs(t, err, errs.ErrInvalidDimensions)
	_, err = New(geom.V(0, 0, 0), testRegionSize, geom.V(1, -1, 1), reg)
	require.ErrorIs(t, err, errs.ErrInvalidDimensions)
	_, err = New(geom.V(0, 0, 0), testRegionSize, testChunkSize, nil)
	require.Error(t, err)
}
