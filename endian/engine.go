// Package endian provides the byte order used on the worldstore wire.
//
// Every multi-byte integer in a tag stream, a region file or a chunk body is
// written through an EndianEngine. The format convention is little-endian;
// big-endian and host-native engines exist for hosts that pin a different order
// at a higher layer (both sides of a file must agree, nothing is recorded in it).
//
// # Basic Usage
//
//	engine := endian.Default()
//	buf = engine.AppendUint32(buf, 42)
//	v := engine.Uint32(buf[len(buf)-4:])
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface, so encoders can append and decoders can slice with the
// same value.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. On a little-endian host the low byte (0x00) comes first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host stores integers least significant byte first.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsNativeBigEndian reports whether the host stores integers most significant byte first.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Default returns the engine of the worldstore wire convention (little-endian).
func Default() EndianEngine {
	return binary.LittleEndian
}

// Native returns the engine matching the host byte order.
func Native() EndianEngine {
	if IsNativeBigEndian() {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Name returns "little", "big" or "unknown" for the given engine.
func Name(engine EndianEngine) string {
	switch engine {
	case binary.LittleEndian:
		return "little"
	case binary.BigEndian:
		return "big"
	default:
		return "unknown"
	}
}
