// Package region encodes a fixed 3D block of chunks as one file.
//
// File layout (integers little-endian):
//
//	+--------------------------------------------------------------+
//	| string palette    List tag of String, position = string id   |
//	| block states      List tag of Compound, strings by palette id |
//	+--------------------------------------------------------------+
//	| offset table      capacity x int64, -1 = slot absent          |
//	| end marker        int64                                       |
//	+--------------------------------------------------------------+
//	| chunk bodies      packed in slot order                        |
//	+--------------------------------------------------------------+
//
// Offsets and the end marker are relative to the first body byte, so one
// chunk can be read by decoding the header and table and seeking straight to
// its body. A body extends to the next larger offset in the table, or to the
// end marker.
//
// Chunk body:
//
//	blocks x int32 block-state id | int32 entity count |
//	count x (int32 block index | int32 length | payload)
//
// Block-state id 0 is always air. Slots and blocks are both ordered with
// geom.Vec3.Index (X fastest, then Z, then Y).
package region
