package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
)

// Config is the file configuration used by tools that open a world.
//
//	root: ./saves/overworld
//	region_size: [8, 8, 8]
//	chunk_size: [16, 16, 16]
//
// Sizes only apply to worlds that do not yet have a world.options file.
type Config struct {
	Root       string   `yaml:"root"`
	RegionSize [3]int32 `yaml:"region_size,omitempty"`
	ChunkSize  [3]int32 `yaml:"chunk_size,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Root:       ".",
		RegionSize: [3]int32{DefaultRegionSize.X, DefaultRegionSize.Y, DefaultRegionSize.Z},
		ChunkSize:  [3]int32{DefaultChunkSize.X, DefaultChunkSize.Y, DefaultChunkSize.Z},
	}
}

// LoadConfig reads a YAML config from fs, filling unset fields with defaults.
// An empty path returns the defaults.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the root is set and both sizes are positive.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("empty root")
	}
	if !c.regionSize().Positive() {
		return fmt.Errorf("%w: region_size %v", errs.ErrInvalidDimensions, c.RegionSize)
	}
	if !c.chunkSize().Positive() {
		return fmt.Errorf("%w: chunk_size %v", errs.ErrInvalidDimensions, c.ChunkSize)
	}

	return nil
}

func (c Config) regionSize() geom.Vec3 {
	return geom.V(c.RegionSize[0], c.RegionSize[1], c.RegionSize[2])
}

func (c Config) chunkSize() geom.Vec3 {
	return geom.V(c.ChunkSize[0], c.ChunkSize[1], c.ChunkSize[2])
}

// StoreOptions converts the sizes into Store options.
func (c Config) StoreOptions() []Option {
	return []Option{WithRegionSize(c.regionSize()), WithChunkSize(c.chunkSize())}
}
