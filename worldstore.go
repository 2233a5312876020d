// Package worldstore persists sparse 3D voxel worlds.
//
// Worlds are split into chunks, and chunks are grouped into regions that are
// stored one file each. Structured data is written in a self-describing binary
// tag format, with repeated strings and block states interned into palettes.
// Any single chunk can be read back by decoding only its region's header and
// its own body.
//
// # Core Features
//
//   - Tag tree format (Compound, List, String, 13 fixed-width values) with
//     skip-without-parse length prefixes
//   - String palettes that turn repeated keys into int32 ids
//   - Per-region block-state palettes; id 0 is always air
//   - Offset table for O(1) access to one chunk of a region
//   - Atomic full-region rewrites through any afero.Fs
//   - Save markers that tell which chunks still need writing
//
// # Basic Usage
//
// Saving a chunk and reading it back:
//
//	import "github.com/voxelforge/worldstore"
//
//	store, _ := worldstore.OpenDir("./saves/overworld")
//	stone := store.Resolver().(*block.Registry).Register(block.State{Name: "stone"})
//
//	c, _ := store.NewChunk()
//	c.SetBlock(geom.V(1, 2, 3), stone)
//	c.SetEntity(geom.V(1, 2, 3).Index(c.Size()), chestPayload)
//
//	loaded := world.NewLoaded()
//	loaded.Put(geom.V(0, 0, 0), c)
//	store.Save(ctx, loaded)
//
//	got, ok, _ := store.LoadChunk(ctx, geom.V(0, 0, 0))
//
// Encoding a tag tree:
//
//	root := tag.NewCompound()
//	root.Set("name", tag.String("spawn"))
//	root.Set("pos", tag.ListOf[int32](0, 64, 0).Tag())
//
//	data, _ := worldstore.Marshal(root.Tag())
//	decoded, _ := worldstore.Unmarshal(data)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the tag,
// palette and world packages. For fine-grained control use those packages,
// and region for direct access to region files.
package worldstore

import (
	"bytes"

	"github.com/spf13/afero"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/internal/hash"
	"github.com/voxelforge/worldstore/palette"
	"github.com/voxelforge/worldstore/tag"
	"github.com/voxelforge/worldstore/world"
)

// Open opens or creates the world stored under root on fsys.
//
// Parameters:
//   - fsys: Filesystem holding the world, e.g. afero.NewOsFs() or afero.NewMemMapFs()
//   - root: World directory; created when missing
//   - opts: Store options such as world.WithLogger or world.WithResolver
//
// Returns:
//   - *world.Store: The opened store
//   - error: An error if the directory or its world.options file is unusable
func Open(fsys afero.Fs, root string, opts ...world.Option) (*world.Store, error) {
	return world.Open(fsys, root, opts...)
}

// OpenDir opens or creates a world in a directory of the OS filesystem.
//
// Example:
//
//	store, err := worldstore.OpenDir("./saves/overworld",
//	    world.WithRegionSize(geom.V(4, 4, 4)),
//	)
func OpenDir(root string, opts ...world.Option) (*world.Store, error) {
	return world.Open(afero.NewOsFs(), root, opts...)
}

// NewRegistry creates an in-memory block resolver that registers unseen block
// states on first use. Runtime id 0 is air.
func NewRegistry() *block.Registry {
	return block.NewRegistry(true)
}

// Marshal encodes one tag with inline strings.
//
// Parameters:
//   - t: Tag to encode
//   - opts: Codec options such as tag.WithBigEndian
//
// Returns:
//   - []byte: Encoded bytes, starting with the type code
//   - error: An error if the tree exceeds the depth limit
func Marshal(t tag.Tag, opts ...tag.Option) ([]byte, error) {
	return tag.Marshal(t, opts...)
}

// Unmarshal decodes exactly one tag written by Marshal.
func Unmarshal(data []byte, opts ...tag.Option) (tag.Tag, error) {
	return tag.Unmarshal(data, opts...)
}

// MarshalFramed encodes t with its strings interned into a string palette
// that is written in front of it. This is the form used by world.options and
// region headers, and is usually much smaller than Marshal for trees with
// repeated keys.
func MarshalFramed(t tag.Tag, opts ...tag.Option) ([]byte, error) {
	return palette.EncodeFramed(t, opts...)
}

// UnmarshalFramed decodes data written by MarshalFramed.
func UnmarshalFramed(data []byte, opts ...tag.Option) (tag.Tag, error) {
	t, _, err := palette.DecodeFramed(bytes.NewReader(data), opts...)
	return t, err
}

// BlockStateID returns the 64-bit identity under which block-state palettes
// index s. States with equal names and properties have the same identity.
//
// Example:
//
//	a := worldstore.BlockStateID(block.State{Name: "log", Properties: map[string]string{"axis": "y"}})
func BlockStateID(s block.State) uint64 {
	return hash.ID(s.Key())
}
