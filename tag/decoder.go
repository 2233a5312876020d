package tag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/voxelforge/worldstore/endian"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
)

// Decoder reads tags and primitives from an io.Reader.
//
// The Decoder never reads past the end of the tag it decodes: a top-level
// Compound or List is pulled in one read using its length prefix and decoded
// from memory, which also makes it cheap to decode straight from a file.
//
// Note: The Decoder is NOT thread-safe.
type Decoder struct {
	r         io.Reader
	engine    endian.EndianEngine
	strings   StringTable
	maxLength int
	maxDepth  int
	depth     int
	offset    int64
	inMemory  bool
	scratch   [16]byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	_, inMemory := r.(*bytes.Reader)

	return &Decoder{
		r:         r,
		engine:    cfg.engine,
		strings:   cfg.strings,
		maxLength: cfg.maxLength,
		maxDepth:  cfg.maxDepth,
		inMemory:  inMemory,
	}, nil
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Decode reads one type byte and the payload it announces.
func (d *Decoder) Decode() (Tag, error) {
	typ, err := d.ReadType()
	if err != nil {
		return Tag{}, err
	}

	return d.DecodePayload(typ)
}

// ReadType reads and validates a one-byte type code.
func (d *Decoder) ReadType() (format.TagType, error) {
	b, err := d.ReadUint8()
	if err != nil {
		return 0, err
	}
	typ := format.TagType(b)
	if !typ.Valid() {
		return 0, fmt.Errorf("%w: %d at offset %d", errs.ErrUnsupportedTagType, b, d.offset-1)
	}

	return typ, nil
}

// DecodePayload reads the payload of a tag whose type is already known.
func (d *Decoder) DecodePayload(typ format.TagType) (Tag, error) {
	switch typ {
	case format.TypeEmpty:
		return Tag{}, nil
	case format.TypeString:
		s, err := d.ReadString()
		if err != nil {
			return Tag{}, err
		}

		return String(s), nil
	case format.TypeCompound, format.TypeList:
		return d.decodeCollection(typ)
	}

	size := typ.FixedSize()
	if size <= 0 {
		return Tag{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedTagType, typ)
	}
	if err := d.fill(size); err != nil {
		return Tag{}, err
	}

	t := Tag{typ: typ}
	switch size {
	case 1:
		t.bits = uint64(d.scratch[0])
	case 2:
		t.bits = uint64(d.engine.Uint16(d.scratch[:2]))
	case 4:
		t.bits = uint64(d.engine.Uint32(d.scratch[:4]))
	case 8:
		t.bits = d.engine.Uint64(d.scratch[:8])
	case 16:
		t.bits = d.engine.Uint64(d.scratch[:8])
		t.hi = d.engine.Uint64(d.scratch[8:16])
	}
	if typ == format.TypeBool && t.bits != 0 {
		t.bits = 1
	}

	return t, nil
}

func (d *Decoder) decodeCollection(typ format.TagType) (Tag, error) {
	n, err := d.readLength()
	if err != nil {
		return Tag{}, err
	}
	if n < 4 {
		return Tag{}, fmt.Errorf("%w: %s byte length %d", errs.ErrInvalidLength, typ, n)
	}

	if !d.inMemory {
		var body bytes.Buffer
		copied, err := io.CopyN(&body, d.r, n)
		d.offset += copied
		if err != nil {
			return Tag{}, truncated(err)
		}
		sub := &Decoder{
			r:         bytes.NewReader(body.Bytes()),
			engine:    d.engine,
			strings:   d.strings,
			maxLength: d.maxLength,
			maxDepth:  d.maxDepth,
			depth:     d.depth,
			inMemory:  true,
		}

		return sub.collectionBody(typ, n)
	}
	if left := d.remaining(); left < n {
		return Tag{}, fmt.Errorf("%w: %s declares %d bytes, %d left", errs.ErrTruncated, typ, n, left)
	}

	return d.collectionBody(typ, n)
}

func (d *Decoder) collectionBody(typ format.TagType, n int64) (Tag, error) {
	if d.depth >= d.maxDepth {
		return Tag{}, fmt.Errorf("%w: depth %d", errs.ErrMaxDepthExceeded, d.depth)
	}
	d.depth++
	defer func() { d.depth-- }()

	start := d.offset
	count, err := d.ReadInt32()
	if err != nil {
		return Tag{}, err
	}
	perEntry := int64(1)
	if typ == format.TypeCompound {
		perEntry = minEntrySize
	}
	if count < 0 || int64(count) > (n-4)/perEntry {
		return Tag{}, fmt.Errorf("%w: %s entry count %d for %d bytes", errs.ErrInvalidLength, typ, count, n)
	}

	var t Tag
	if typ == format.TypeCompound {
		t, err = d.compoundEntries(int(count))
	} else {
		t, err = d.listElements(int(count))
	}
	if err != nil {
		return Tag{}, err
	}

	if consumed := d.offset - start; consumed != n {
		return Tag{}, fmt.Errorf("%w: %s declared %d bytes, decoded %d", errs.ErrInvalidLength, typ, n, consumed)
	}

	return t, nil
}

// minEntrySize is the smallest encoded Compound entry: a 4-byte string id or
// length followed by a type byte.
const minEntrySize = 5

// minWireSize is the smallest payload of a tag of type typ.
func minWireSize(typ format.TagType) int64 {
	switch typ {
	case format.TypeString:
		return 4
	case format.TypeCompound, format.TypeList:
		return 12
	}
	if size := typ.FixedSize(); size > 0 {
		return int64(size)
	}

	return 1
}

// remaining returns the bytes left in an in-memory source. Streams report
// math.MaxInt64.
func (d *Decoder) remaining() int64 {
	if br, ok := d.r.(*bytes.Reader); ok {
		return int64(br.Len())
	}

	return math.MaxInt64
}

func (d *Decoder) compoundEntries(count int) (Tag, error) {
	c := &Compound{entries: make(map[string]Tag, count)}
	for range count {
		key, err := d.ReadString()
		if err != nil {
			return Tag{}, err
		}
		v, err := d.Decode()
		if err != nil {
			return Tag{}, fmt.Errorf("compound key %q: %w", key, err)
		}
		c.entries[key] = v
	}

	return c.Tag(), nil
}

func (d *Decoder) listElements(count int) (Tag, error) {
	l := NewList()
	if count == 0 {
		return l.Tag(), nil
	}

	elemType, err := d.ReadType()
	if err != nil {
		return Tag{}, err
	}
	if elemType == format.TypeEmpty {
		return Tag{}, fmt.Errorf("%w: list of %d Empty elements", errs.ErrUnsupportedTagType, count)
	}

	if size := minWireSize(elemType); int64(count) > d.remaining()/size {
		return Tag{}, fmt.Errorf("%w: %d %s elements, %d bytes left", errs.ErrInvalidLength, count, elemType, d.remaining())
	}

	l.elemType = elemType
	l.items = make([]Tag, 0, count)
	for i := range count {
		v, err := d.DecodePayload(elemType)
		if err != nil {
			return Tag{}, fmt.Errorf("list index %d: %w", i, err)
		}
		l.items = append(l.items, v)
	}

	return l.Tag(), nil
}

// SkipTag reads a type byte and discards the payload. Compound and List
// payloads are skipped by their length prefix without being parsed.
func (d *Decoder) SkipTag() error {
	typ, err := d.ReadType()
	if err != nil {
		return err
	}

	switch typ {
	case format.TypeString:
		_, err = d.ReadString()
		return err
	case format.TypeCompound, format.TypeList:
		n, err := d.readLength()
		if err != nil {
			return err
		}

		return d.Skip(n)
	default:
		return d.Skip(int64(typ.FixedSize()))
	}
}

// Skip discards n bytes.
func (d *Decoder) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	if s, ok := d.r.(io.Seeker); ok {
		return d.seekSkip(s, n)
	}
	copied, err := io.CopyN(io.Discard, d.r, n)
	d.offset += copied
	if err != nil {
		return truncated(err)
	}

	return nil
}

// seekSkip skips n bytes of a seekable source. Seeking past the end does not
// fail on most seekers, so the distance to the end is checked first and the
// position is left unchanged when it is too short.
func (d *Decoder) seekSkip(s io.Seeker, n int64) error {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	target := cur + n
	if end-cur < n {
		target = cur
	}
	if _, err := s.Seek(target, io.SeekStart); err != nil {
		return err
	}
	if target == cur {
		return fmt.Errorf("%w: skip %d bytes, %d left", errs.ErrTruncated, n, end-cur)
	}
	d.offset += n

	return nil
}

// ReadString reads an inline string or, with a string table, an int32 id.
// Unknown ids decode as "".
func (d *Decoder) ReadString() (string, error) {
	v, err := d.ReadInt32()
	if err != nil {
		return "", err
	}
	if d.strings != nil {
		if v < 0 {
			return "", nil
		}

		return d.strings.Value(v), nil
	}
	if v < 0 || int(v) > d.maxLength {
		return "", fmt.Errorf("%w: string length %d", errs.ErrInvalidLength, v)
	}
	if v == 0 {
		return "", nil
	}
	b := make([]byte, v)
	if err := d.readFull(b); err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadBytes reads exactly n raw bytes.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > d.maxLength {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrInvalidLength, n)
	}
	b := make([]byte, n)
	if err := d.readFull(b); err != nil {
		return nil, err
	}

	return b, nil
}

func (d *Decoder) ReadUint8() (uint8, error) {
	if err := d.fill(1); err != nil {
		return 0, err
	}

	return d.scratch[0], nil
}

func (d *Decoder) ReadInt8() (int8, error) {
	v, err := d.ReadUint8()
	return int8(v), err
}

func (d *Decoder) ReadUint16() (uint16, error) {
	if err := d.fill(2); err != nil {
		return 0, err
	}

	return d.engine.Uint16(d.scratch[:2]), nil
}

func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

func (d *Decoder) ReadUint32() (uint32, error) {
	if err := d.fill(4); err != nil {
		return 0, err
	}

	return d.engine.Uint32(d.scratch[:4]), nil
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

func (d *Decoder) ReadUint64() (uint64, error) {
	if err := d.fill(8); err != nil {
		return 0, err
	}

	return d.engine.Uint64(d.scratch[:8]), nil
}

func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err //nolint:gosec
}

func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadUint8()
	return v != 0, err
}

func (d *Decoder) readLength() (int64, error) {
	n, err := d.ReadInt64()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(d.maxLength) {
		return 0, fmt.Errorf("%w: byte length %d", errs.ErrInvalidLength, n)
	}

	return n, nil
}

func (d *Decoder) fill(n int) error {
	return d.readFull(d.scratch[:n])
}

func (d *Decoder) readFull(b []byte) error {
	n, err := io.ReadFull(d.r, b)
	d.offset += int64(n)
	if err != nil {
		return truncated(err)
	}

	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", errs.ErrTruncated, err)
	}

	return err
}

// Unmarshal decodes exactly one tag from data.
func Unmarshal(data []byte, opts ...Option) (Tag, error) {
	dec, err := NewDecoder(bytes.NewReader(data), opts...)
	if err != nil {
		return Tag{}, err
	}

	t, err := dec.Decode()
	if err != nil {
		return Tag{}, err
	}
	if rest := int64(len(data)) - dec.Offset(); rest != 0 {
		return Tag{}, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidLength, rest)
	}

	return t, nil
}
