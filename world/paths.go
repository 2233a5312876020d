package world

import (
	"fmt"
	"strings"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
)

const (
	// RegionExt is the file extension of region files.
	RegionExt = ".region"
	// OptionsFileName is the name of the world options file.
	OptionsFileName = "world.options"

	tempSuffix    = ".tmp"
	corruptSuffix = ".corrupt"
)

// RegionFileName returns the file name of the region at r.
func RegionFileName(r geom.Vec3) string {
	return r.String() + RegionExt
}

// ParseRegionFileName recovers the region coordinate from a file name
// produced by RegionFileName.
func ParseRegionFileName(name string) (geom.Vec3, error) {
	base, ok := strings.CutSuffix(name, RegionExt)
	if !ok {
		return geom.Vec3{}, fmt.Errorf("%w: %q is not a region file", errs.ErrInvalidRegionFile, name)
	}
	v, err := geom.Parse(base)
	if err != nil {
		return geom.Vec3{}, fmt.Errorf("%w: %q: %w", errs.ErrInvalidRegionFile, name, err)
	}

	return v, nil
}
