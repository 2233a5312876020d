package tag

import (
	"fmt"
	"math"

	"github.com/voxelforge/worldstore/endian"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
	"github.com/voxelforge/worldstore/internal/pool"
)

// Encoder appends tags and primitives to an in-memory buffer.
//
// Compound and List byte lengths are reserved and patched inside the buffer
// once their payload is encoded, so the output can be handed to any
// forward-only writer.
//
// Note: The Encoder is NOT thread-safe.
type Encoder struct {
	buf      *pool.ByteBuffer
	engine   endian.EndianEngine
	strings  StringTable
	maxDepth int
	depth    int
}

// NewEncoder creates an Encoder backed by a pooled buffer.
// Call Release when the encoded bytes are no longer needed.
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		buf:      pool.GetTagBuffer(),
		engine:   cfg.engine,
		strings:  cfg.strings,
		maxDepth: cfg.maxDepth,
	}, nil
}

// Bytes returns the encoded data. The slice is valid until the next write,
// Reset or Release.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes written.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Reset discards written data and keeps the buffer.
func (e *Encoder) Reset() {
	e.buf.Reset()
	e.depth = 0
}

// Release returns the buffer to the pool. The Encoder must not be used afterwards.
func (e *Encoder) Release() {
	if e.buf != nil {
		pool.PutTagBuffer(e.buf)
		e.buf = nil
	}
}

// Encode writes t's type byte followed by its payload.
func (e *Encoder) Encode(t Tag) error {
	e.WriteType(t.typ)
	return e.EncodePayload(t)
}

// WriteType writes a one-byte type code.
func (e *Encoder) WriteType(typ format.TagType) {
	e.buf.B = append(e.buf.B, byte(typ))
}

// EncodePayload writes t's payload without the type byte.
func (e *Encoder) EncodePayload(t Tag) error {
	switch t.typ {
	case format.TypeEmpty:
		return nil
	case format.TypeUint8, format.TypeInt8, format.TypeBool:
		e.WriteUint8(uint8(t.bits))
	case format.TypeUint16, format.TypeInt16, format.TypeChar:
		e.WriteUint16(uint16(t.bits))
	case format.TypeUint32, format.TypeInt32, format.TypeFloat32:
		e.WriteUint32(uint32(t.bits))
	case format.TypeUint64, format.TypeInt64, format.TypeFloat64:
		e.WriteUint64(t.bits)
	case format.TypeDecimal128:
		e.WriteUint64(t.bits)
		e.WriteUint64(t.hi)
	case format.TypeString:
		return e.WriteString(t.str)
	case format.TypeCompound:
		return e.encodeCompound(t.comp)
	case format.TypeList:
		return e.encodeList(t.list)
	default:
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedTagType, t.typ)
	}

	return nil
}

func (e *Encoder) encodeCompound(c *Compound) error {
	return e.collection(func() error {
		e.WriteInt32(int32(c.Len())) //nolint:gosec
		for key, v := range c.All() {
			if err := e.WriteString(key); err != nil {
				return err
			}
			if err := e.Encode(v); err != nil {
				return fmt.Errorf("compound key %q: %w", key, err)
			}
		}

		return nil
	})
}

func (e *Encoder) encodeList(l *List) error {
	return e.collection(func() error {
		e.WriteInt32(int32(l.Len())) //nolint:gosec
		if l.Len() == 0 {
			return nil
		}
		e.WriteType(l.ElemType())
		for i, v := range l.All() {
			if err := e.EncodePayload(v); err != nil {
				return fmt.Errorf("list index %d: %w", i, err)
			}
		}

		return nil
	})
}

// collection reserves the int64 byte length, runs body and patches the length
// with the number of bytes body produced.
func (e *Encoder) collection(body func() error) error {
	if e.depth >= e.maxDepth {
		return fmt.Errorf("%w: depth %d", errs.ErrMaxDepthExceeded, e.depth)
	}
	e.depth++
	defer func() { e.depth-- }()

	lenOff := e.buf.Reserve(8)
	start := e.buf.Len()
	if err := body(); err != nil {
		return err
	}
	e.engine.PutUint64(e.buf.Slice(lenOff, start), uint64(e.buf.Len()-start)) //nolint:gosec

	return nil
}

// WriteString writes s inline (int32 length and bytes) or, with a string
// table, as its int32 id.
func (e *Encoder) WriteString(s string) error {
	if e.strings != nil {
		e.WriteInt32(e.strings.ID(s))
		return nil
	}
	if len(s) > math.MaxInt32 {
		return fmt.Errorf("%w: string of %d bytes", errs.ErrInvalidLength, len(s))
	}
	e.WriteInt32(int32(len(s))) //nolint:gosec
	e.buf.B = append(e.buf.B, s...)

	return nil
}

// WriteBytes writes raw bytes with no prefix.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf.MustWrite(b)
}

func (e *Encoder) WriteUint8(v uint8)   { e.buf.B = append(e.buf.B, v) }
func (e *Encoder) WriteInt8(v int8)     { e.WriteUint8(uint8(v)) }
func (e *Encoder) WriteUint16(v uint16) { e.buf.B = e.engine.AppendUint16(e.buf.B, v) }
func (e *Encoder) WriteInt16(v int16)   { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteUint32(v uint32) { e.buf.B = e.engine.AppendUint32(e.buf.B, v) }
func (e *Encoder) WriteInt32(v int32)   { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteUint64(v uint64) { e.buf.B = e.engine.AppendUint64(e.buf.B, v) }
func (e *Encoder) WriteInt64(v int64)   { e.WriteUint64(uint64(v)) } //nolint:gosec

func (e *Encoder) WriteFloat32(v float32) { e.WriteUint32(math.Float32bits(v)) }
func (e *Encoder) WriteFloat64(v float64) { e.WriteUint64(math.Float64bits(v)) }

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteUint8(1)
		return
	}
	e.WriteUint8(0)
}

// Marshal encodes t into a new byte slice.
func Marshal(t Tag, opts ...Option) ([]byte, error) {
	enc, err := NewEncoder(opts...)
	if err != nil {
		return nil, err
	}
	defer enc.Release()

	if err := enc.Encode(t); err != nil {
		return nil, err
	}

	return append([]byte(nil), enc.Bytes()...), nil
}
