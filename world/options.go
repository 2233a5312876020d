package world

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/format"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/palette"
	"github.com/voxelforge/worldstore/tag"
)

// FormatVersion is the on-disk format version written to world.options.
const FormatVersion int32 = 1

// Options is the persisted world configuration.
type Options struct {
	Version    int32
	ID         uuid.UUID
	RegionSize geom.Vec3
	ChunkSize  geom.Vec3
}

func vecTag(v geom.Vec3) tag.Tag {
	return tag.ListOf(v.X, v.Y, v.Z).Tag()
}

func vecFromTag(t tag.Tag) (geom.Vec3, bool) {
	l, ok := t.AsList()
	if !ok || l.Len() != 3 || l.ElemType() != format.TypeInt32 {
		return geom.Vec3{}, false
	}
	xs := tag.Values[int32](l)

	return geom.V(xs[0], xs[1], xs[2]), true
}

// Tag encodes o as a Compound.
func (o Options) Tag() tag.Tag {
	c := tag.NewCompound()
	c.Set("version", tag.Int32(o.Version))
	c.Set("id", tag.String(o.ID.String()))
	c.Set("regionSize", vecTag(o.RegionSize))
	c.Set("chunkSize", vecTag(o.ChunkSize))

	return c.Tag()
}

// OptionsFromTag decodes a Compound produced by Options.Tag.
func OptionsFromTag(t tag.Tag) (Options, error) {
	c, ok := t.AsCompound()
	if !ok {
		return Options{}, fmt.Errorf("%w: root is %s", errs.ErrInvalidOptionsFile, t.Type())
	}

	o := Options{Version: tag.Get(c, "version", int32(0))}
	if o.Version <= 0 || o.Version > FormatVersion {
		return Options{}, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidOptionsFile, o.Version)
	}

	var err error
	if o.ID, err = uuid.Parse(c.GetString("id", "")); err != nil {
		return Options{}, fmt.Errorf("%w: id: %w", errs.ErrInvalidOptionsFile, err)
	}
	if o.RegionSize, ok = vecFromTag(c.Get("regionSize")); !ok || !o.RegionSize.Positive() {
		return Options{}, fmt.Errorf("%w: bad regionSize", errs.ErrInvalidOptionsFile)
	}
	if o.ChunkSize, ok = vecFromTag(c.Get("chunkSize")); !ok || !o.ChunkSize.Positive() {
		return Options{}, fmt.Errorf("%w: bad chunkSize", errs.ErrInvalidOptionsFile)
	}

	return o, nil
}

// ReadOptions reads a world.options file.
func ReadOptions(fs afero.Fs, path string) (Options, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Options{}, err
	}

	body, _, err := palette.DecodeFramed(bytes.NewReader(data))
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", errs.ErrInvalidOptionsFile, err)
	}

	return OptionsFromTag(body)
}

// WriteOptions atomically replaces the world.options file at path.
func WriteOptions(fs afero.Fs, path string, o Options) error {
	data, err := palette.EncodeFramed(o.Tag())
	if err != nil {
		return err
	}

	return writeAtomic(fs, path, func(f afero.File) error {
		_, err := f.Write(data)
		return err
	})
}

// writeAtomic writes through fill into a temporary sibling of path and renames
// it over path once the data is synced.
func writeAtomic(fs afero.Fs, path string, fill func(afero.File) error) error {
	tmp := path + tempSuffix
	f, err := fs.OpenFile(tmp, osCreateFlags, 0o644)
	if err != nil {
		return err
	}

	if err := fill(f); err != nil {
		_ = f.Close()
		_ = fs.Remove(tmp)

		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = fs.Remove(tmp)

		return err
	}
	if err := f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return err
	}

	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return err
	}

	return nil
}
