package pool

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorWriter struct {
	err error
}

func (w *errorWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb.B)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_MustWrite(t *testing.T) {
	bb := NewByteBuffer(TagBufferDefaultSize)

	bb.MustWrite([]byte("hello"))
	bb.MustWrite([]byte{})
	bb.MustWrite([]byte(" world"))

	assert.Equal(t, []byte("hello world"), bb.Bytes())
}

func TestByteBuffer_ReserveAndPatch(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.MustWrite([]byte{0xAA})

	off := bb.Reserve(8)
	require.Equal(t, 1, off)
	require.Equal(t, 9, bb.Len())
	require.Equal(t, make([]byte, 8), bb.Slice(off, off+8))

	bb.MustWrite([]byte{0xBB})
	copy(bb.Slice(off, off+8), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	assert.Equal(t, []byte{0xAA, 1, 2, 3, 4, 5, 6, 7, 8, 0xBB}, bb.Bytes())
}

func TestByteBuffer_ReserveClearsReusedMemory(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWrite([]byte{9, 9, 9, 9})
	bb.Reset()

	off := bb.Reserve(4)
	assert.Equal(t, []byte{0, 0, 0, 0}, bb.Slice(off, off+4))
}

func TestByteBuffer_SlicePanicsOutOfBounds(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWrite([]byte{1, 2})

	assert.Panics(t, func() { bb.Slice(1, 3) })
	assert.Panics(t, func() { bb.Slice(-1, 1) })
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(TagBufferDefaultSize)
	data := []byte("important data that must be preserved")
	bb.MustWrite(data)

	bb.Grow(TagBufferDefaultSize * 3)

	assert.GreaterOrEqual(t, bb.Cap(), len(data)+TagBufferDefaultSize*3)
	assert.Equal(t, data, bb.Bytes())

	before := bb.Cap()
	bb.Grow(1)
	assert.Equal(t, before, bb.Cap(), "should not reallocate when capacity is sufficient")
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(TagBufferDefaultSize)
	_, err := bb.Write([]byte("test data"))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := bb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "test data", buf.String())

	_, err = bb.WriteTo(&errorWriter{err: io.ErrShortWrite})
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestByteBufferPool_DropsOversizedBuffers(t *testing.T) {
	p := NewByteBufferPool(16, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.MustWrite(make([]byte, 10))
	p.Put(bb)

	reused := p.Get()
	assert.Equal(t, 0, reused.Len(), "pooled buffers come back empty")

	big := NewByteBuffer(128)
	p.Put(big)
	p.Put(nil)
}

func TestDefaultPools(t *testing.T) {
	tb := GetTagBuffer()
	require.NotNil(t, tb)
	PutTagBuffer(tb)

	cb := GetChunkBuffer()
	require.NotNil(t, cb)
	require.GreaterOrEqual(t, cb.Cap(), 0)
	PutChunkBuffer(cb)
}

func TestGetInt32Slice(t *testing.T) {
	s, cleanup := GetInt32Slice(100)
	require.Len(t, s, 100)
	cleanup()

	s2, cleanup2 := GetInt32Slice(10)
	defer cleanup2()
	require.Len(t, s2, 10)
}
