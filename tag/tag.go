package tag

import (
	"math"
	"unicode/utf16"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
)

// Decimal128 is an opaque 128-bit decimal value, stored low half first.
type Decimal128 struct {
	Lo uint64
	Hi uint64
}

// IsZero reports whether both halves are zero.
func (d Decimal128) IsZero() bool {
	return d.Lo == 0 && d.Hi == 0
}

// Tag is one node of the tag tree.
//
// The zero value is the Empty tag. Fixed-width values are stored as raw bits;
// Compound and List tags reference mutable containers, so copies of such a Tag
// share the same container.
type Tag struct {
	typ  format.TagType
	bits uint64
	hi   uint64
	str  string
	comp *Compound
	list *List
}

// Empty returns the absent-value tag.
func Empty() Tag { return Tag{} }

func Uint8(v uint8) Tag   { return Tag{typ: format.TypeUint8, bits: uint64(v)} }
func Int8(v int8) Tag     { return Tag{typ: format.TypeInt8, bits: uint64(uint8(v))} }
func Uint16(v uint16) Tag { return Tag{typ: format.TypeUint16, bits: uint64(v)} }
func Int16(v int16) Tag   { return Tag{typ: format.TypeInt16, bits: uint64(uint16(v))} }
func Uint32(v uint32) Tag { return Tag{typ: format.TypeUint32, bits: uint64(v)} }
func Int32(v int32) Tag   { return Tag{typ: format.TypeInt32, bits: uint64(uint32(v))} }
func Uint64(v uint64) Tag { return Tag{typ: format.TypeUint64, bits: v} }
func Int64(v int64) Tag   { return Tag{typ: format.TypeInt64, bits: uint64(v)} } //nolint:gosec

func Float32(v float32) Tag { return Tag{typ: format.TypeFloat32, bits: uint64(math.Float32bits(v))} }
func Float64(v float64) Tag { return Tag{typ: format.TypeFloat64, bits: math.Float64bits(v)} }

func Decimal(v Decimal128) Tag {
	return Tag{typ: format.TypeDecimal128, bits: v.Lo, hi: v.Hi}
}

func Bool(v bool) Tag {
	if v {
		return Tag{typ: format.TypeBool, bits: 1}
	}

	return Tag{typ: format.TypeBool}
}

// Char returns a Char tag holding one UTF-16 code unit.
func Char(c uint16) Tag { return Tag{typ: format.TypeChar, bits: uint64(c)} }

// RuneChar returns a Char tag for r, which must fit in a single UTF-16 code unit.
func RuneChar(r rune) (Tag, error) {
	if r < 0 || r > 0xFFFF || utf16.IsSurrogate(r) {
		return Tag{}, errs.ErrInvalidChar
	}

	return Char(uint16(r)), nil
}

func String(s string) Tag { return Tag{typ: format.TypeString, str: s} }

// Type returns the wire discriminant of t.
func (t Tag) Type() format.TagType { return t.typ }

// IsEmpty reports whether t is the Empty tag.
func (t Tag) IsEmpty() bool { return t.typ == format.TypeEmpty }

func (t Tag) AsUint8() (uint8, bool)   { return uint8(t.bits), t.typ == format.TypeUint8 }
func (t Tag) AsInt8() (int8, bool)     { return int8(uint8(t.bits)), t.typ == format.TypeInt8 }
func (t Tag) AsUint16() (uint16, bool) { return uint16(t.bits), t.typ == format.TypeUint16 }
func (t Tag) AsInt16() (int16, bool)   { return int16(uint16(t.bits)), t.typ == format.TypeInt16 }
func (t Tag) AsUint32() (uint32, bool) { return uint32(t.bits), t.typ == format.TypeUint32 }
func (t Tag) AsInt32() (int32, bool)   { return int32(uint32(t.bits)), t.typ == format.TypeInt32 }
func (t Tag) AsUint64() (uint64, bool) { return t.bits, t.typ == format.TypeUint64 }
func (t Tag) AsInt64() (int64, bool)   { return int64(t.bits), t.typ == format.TypeInt64 } //nolint:gosec

func (t Tag) AsFloat32() (float32, bool) {
	return math.Float32frombits(uint32(t.bits)), t.typ == format.TypeFloat32
}

func (t Tag) AsFloat64() (float64, bool) {
	return math.Float64frombits(t.bits), t.typ == format.TypeFloat64
}

func (t Tag) AsDecimal() (Decimal128, bool) {
	return Decimal128{Lo: t.bits, Hi: t.hi}, t.typ == format.TypeDecimal128
}

func (t Tag) AsBool() (bool, bool)   { return t.bits != 0, t.typ == format.TypeBool }
func (t Tag) AsChar() (uint16, bool) { return uint16(t.bits), t.typ == format.TypeChar }

func (t Tag) AsString() (string, bool) { return t.str, t.typ == format.TypeString }

// AsCompound returns the Compound behind t.
func (t Tag) AsCompound() (*Compound, bool) {
	return t.comp, t.typ == format.TypeCompound
}

// AsList returns the List behind t.
func (t Tag) AsList() (*List, bool) {
	return t.list, t.typ == format.TypeList
}

// Compound returns the Compound behind t, or nil when t is another type.
// Compound's read methods accept a nil receiver, so lookups can be chained.
func (t Tag) Compound() *Compound {
	if t.typ != format.TypeCompound {
		return nil
	}

	return t.comp
}

// List returns the List behind t, or nil when t is another type.
func (t Tag) List() *List {
	if t.typ != format.TypeList {
		return nil
	}

	return t.list
}

// Equal reports structural equality.
//
// Value tags compare by wrapped value (floats by bit pattern), Compounds ignore
// key order and Lists compare element by element.
func (t Tag) Equal(other Tag) bool {
	if t.typ != other.typ {
		return false
	}

	switch t.typ {
	case format.TypeString:
		return t.str == other.str
	case format.TypeCompound:
		return t.comp.Equal(other.comp)
	case format.TypeList:
		return t.list.Equal(other.list)
	default:
		return t.bits == other.bits && t.hi == other.hi
	}
}

// IsDataEmpty reports whether t holds a default value that can be omitted:
// Empty, numeric zero, false, NUL char, "" or a zero-count collection.
func (t Tag) IsDataEmpty() bool {
	switch t.typ {
	case format.TypeString:
		return t.str == ""
	case format.TypeCompound:
		return t.comp.Len() == 0
	case format.TypeList:
		return t.list.Len() == 0
	case format.TypeFloat32:
		return math.Float32frombits(uint32(t.bits)) == 0
	case format.TypeFloat64:
		return math.Float64frombits(t.bits) == 0
	default:
		return t.bits == 0 && t.hi == 0
	}
}

// Clone returns a deep copy of t.
func (t Tag) Clone() Tag {
	switch t.typ {
	case format.TypeCompound:
		return t.comp.Clone().Tag()
	case format.TypeList:
		return t.list.Clone().Tag()
	default:
		return t
	}
}
