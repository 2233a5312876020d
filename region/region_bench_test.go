package region

import (
	"bytes"
	"testing"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/geom"
)

func benchRegion(b *testing.B) (*Region, []byte) {
	b.Helper()

	reg := block.NewRegistry(true)
	ids := []uint32{0, reg.Register(block.State{Name: "stone"}), reg.Register(block.State{Name: "dirt"})}

	r, err := New(geom.V(0, 0, 0), geom.V(8, 8, 8), geom.V(16, 16, 16), reg)
	if err != nil {
		b.Fatal(err)
	}
	for slot := range 64 {
		c, _ := chunk.New(geom.V(16, 16, 16))
		for i := range c.Volume() {
			_ = c.SetBlockAt(i, ids[(i+slot)%len(ids)])
		}
		_ = c.SetEntity(slot, []byte("payload"))
		if err := r.SetChunk(geom.FromIndex(slot*7, r.Size()), c); err != nil {
			b.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := r.Encode(&buf); err != nil {
		b.Fatal(err)
	}

	return r, buf.Bytes()
}

func BenchmarkRegion_Encode(b *testing.B) {
	r, data := benchRegion(b)
	buf := bytes.NewBuffer(make([]byte, 0, len(data)))

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		buf.Reset()
		if _, err := r.Encode(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRegion_Decode(b *testing.B) {
	r, data := benchRegion(b)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		loaded, _ := New(r.Pos(), r.Size(), r.ChunkSize(), r.resolver)
		if err := loaded.Decode(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRegion_DecodeChunk(b *testing.B) {
	r, data := benchRegion(b)
	target := geom.FromIndex(21, r.Size())

	b.ReportAllocs()
	for b.Loop() {
		loaded, _ := New(r.Pos(), r.Size(), r.ChunkSize(), r.resolver)
		if _, ok, err := loaded.DecodeChunk(bytes.NewReader(data), target); err != nil || !ok {
			b.Fatal(ok, err)
		}
	}
}
