// Package format defines the one-byte type codes that prefix every tag on the wire.
package format

// TagType is the wire discriminant of a tag.
type TagType uint8

const (
	TypeEmpty      TagType = 0  // TypeEmpty represents an absent value with no payload.
	TypeUint8      TagType = 1  // TypeUint8 represents an unsigned 8-bit integer.
	TypeInt8       TagType = 2  // TypeInt8 represents a signed 8-bit integer.
	TypeUint16     TagType = 3  // TypeUint16 represents an unsigned 16-bit integer.
	TypeInt16      TagType = 4  // TypeInt16 represents a signed 16-bit integer.
	TypeUint32     TagType = 5  // TypeUint32 represents an unsigned 32-bit integer.
	TypeInt32      TagType = 6  // TypeInt32 represents a signed 32-bit integer.
	TypeUint64     TagType = 7  // TypeUint64 represents an unsigned 64-bit integer.
	TypeInt64      TagType = 8  // TypeInt64 represents a signed 64-bit integer.
	TypeFloat32    TagType = 9  // TypeFloat32 represents an IEEE-754 single.
	TypeFloat64    TagType = 10 // TypeFloat64 represents an IEEE-754 double.
	TypeDecimal128 TagType = 11 // TypeDecimal128 represents an opaque 128-bit decimal.
	TypeBool       TagType = 12 // TypeBool represents a boolean stored as one byte.
	TypeChar       TagType = 13 // TypeChar represents one UTF-16 code unit.
	TypeString     TagType = 14 // TypeString represents variable-length UTF-8 text.
	TypeCompound   TagType = 15 // TypeCompound represents a string-keyed map of tags.
	TypeList       TagType = 16 // TypeList represents a homogeneous sequence of tags.

	maxTagType = TypeList
)

var fixedSizes = [...]int{
	TypeEmpty:      0,
	TypeUint8:      1,
	TypeInt8:       1,
	TypeUint16:     2,
	TypeInt16:      2,
	TypeUint32:     4,
	TypeInt32:      4,
	TypeUint64:     8,
	TypeInt64:      8,
	TypeFloat32:    4,
	TypeFloat64:    8,
	TypeDecimal128: 16,
	TypeBool:       1,
	TypeChar:       2,
}

// Valid reports whether t is a known type code.
func (t TagType) Valid() bool {
	return t <= maxTagType
}

// IsPrimitive reports whether t is one of the 13 fixed-width value types.
func (t TagType) IsPrimitive() bool {
	return t >= TypeUint8 && t <= TypeChar
}

// IsCollection reports whether t is Compound or List, the length-prefixed types.
func (t TagType) IsCollection() bool {
	return t == TypeCompound || t == TypeList
}

// FixedSize returns the payload size of fixed-width types, or -1 for String,
// Compound, List and unknown codes.
func (t TagType) FixedSize() int {
	if int(t) < len(fixedSizes) {
		return fixedSizes[t]
	}

	return -1
}

func (t TagType) String() string {
	switch t {
	case TypeEmpty:
		return "Empty"
	case TypeUint8:
		return "Uint8"
	case TypeInt8:
		return "Int8"
	case TypeUint16:
		return "Uint16"
	case TypeInt16:
		return "Int16"
	case TypeUint32:
		return "Uint32"
	case TypeInt32:
		return "Int32"
	case TypeUint64:
		return "Uint64"
	case TypeInt64:
		return "Int64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeDecimal128:
		return "Decimal128"
	case TypeBool:
		return "Bool"
	case TypeChar:
		return "Char"
	case TypeString:
		return "String"
	case TypeCompound:
		return "Compound"
	case TypeList:
		return "List"
	default:
		return "Unknown"
	}
}
