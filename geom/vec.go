// Package geom holds the integer vector type shared by chunk, region and
// world coordinates, and the index order used for blocks and chunk slots.
package geom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voxelforge/worldstore/errs"
)

// Vec3 is an integer 3D vector used for block, chunk and region coordinates
// as well as for sizes.
type Vec3 struct {
	X, Y, Z int32
}

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z int32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// FloorDiv divides component-wise, rounding toward negative infinity.
func (v Vec3) FloorDiv(d Vec3) Vec3 {
	return Vec3{FloorDiv(v.X, d.X), FloorDiv(v.Y, d.Y), FloorDiv(v.Z, d.Z)}
}

// Volume returns X*Y*Z.
func (v Vec3) Volume() int {
	return int(v.X) * int(v.Y) * int(v.Z)
}

// Positive reports whether every component is greater than zero.
func (v Vec3) Positive() bool {
	return v.X > 0 && v.Y > 0 && v.Z > 0
}

// Within reports whether 0 <= v < size on every axis.
func (v Vec3) Within(size Vec3) bool {
	return v.X >= 0 && v.Y >= 0 && v.Z >= 0 && v.X < size.X && v.Y < size.Y && v.Z < size.Z
}

// Index returns the linear index of v inside a box of the given size.
// X varies fastest, then Z, then Y: x + z*sx + y*sx*sz.
func (v Vec3) Index(size Vec3) int {
	return int(v.X) + int(v.Z)*int(size.X) + int(v.Y)*int(size.X)*int(size.Z)
}

// FromIndex is the inverse of Index.
func FromIndex(i int, size Vec3) Vec3 {
	sx, sz := int(size.X), int(size.Z)
	return Vec3{
		X: int32(i % sx),        //nolint:gosec
		Z: int32((i / sx) % sz), //nolint:gosec
		Y: int32(i / (sx * sz)), //nolint:gosec
	}
}

// String formats v as "x.y.z".
func (v Vec3) String() string {
	return fmt.Sprintf("%d.%d.%d", v.X, v.Y, v.Z)
}

// Parse reads a vector formatted by String.
func Parse(s string) (Vec3, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("%w: %q is not x.y.z", errs.ErrInvalidDimensions, s)
	}

	var out [3]int32
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return Vec3{}, fmt.Errorf("%w: %q: %w", errs.ErrInvalidDimensions, s, err)
		}
		out[i] = int32(n)
	}

	return Vec3{out[0], out[1], out[2]}, nil
}

// Compare orders vectors by Y, then Z, then X, matching Index order.
func Compare(a, b Vec3) int {
	switch {
	case a.Y != b.Y:
		return cmpInt32(a.Y, b.Y)
	case a.Z != b.Z:
		return cmpInt32(a.Z, b.Z)
	default:
		return cmpInt32(a.X, b.X)
	}
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FloorDiv divides a by b rounding toward negative infinity.
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
