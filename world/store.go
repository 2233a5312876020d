package world

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/voxelforge/worldstore/block"
	"github.com/voxelforge/worldstore/chunk"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/internal/options"
	"github.com/voxelforge/worldstore/internal/pool"
	"github.com/voxelforge/worldstore/region"
)

const osCreateFlags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC

var (
	// DefaultRegionSize is the region size, in chunks, of new worlds.
	DefaultRegionSize = geom.V(8, 8, 8)
	// DefaultChunkSize is the chunk size, in blocks, of new worlds.
	DefaultChunkSize = geom.V(16, 16, 16)
)

// Store is the long-lived handle on one world directory.
//
// Loads of different regions may run concurrently. Saves are serialized so
// that at most one writer touches a region file at a time.
type Store struct {
	fs       afero.Fs
	root     string
	logger   *slog.Logger
	resolver block.Resolver
	opts     Options

	saveMu sync.Mutex
}

type storeConfig struct {
	logger     *slog.Logger
	resolver   block.Resolver
	regionSize geom.Vec3
	chunkSize  geom.Vec3
}

// Option configures Open.
type Option = options.Option[*storeConfig]

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *storeConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithResolver sets the block resolver. The default is an auto-registering
// block.Registry.
func WithResolver(resolver block.Resolver) Option {
	return options.New(func(c *storeConfig) error {
		if resolver == nil {
			return fmt.Errorf("%w: nil block resolver", errs.ErrUnknownBlockState)
		}
		c.resolver = resolver

		return nil
	})
}

// WithRegionSize sets the region size, in chunks, for a new world. Existing
// worlds keep the size recorded in world.options.
func WithRegionSize(size geom.Vec3) Option {
	return options.New(func(c *storeConfig) error {
		if !size.Positive() {
			return fmt.Errorf("%w: region size %s", errs.ErrInvalidDimensions, size)
		}
		c.regionSize = size

		return nil
	})
}

// WithChunkSize sets the chunk size, in blocks, for a new world. Existing
// worlds keep the size recorded in world.options.
func WithChunkSize(size geom.Vec3) Option {
	return options.New(func(c *storeConfig) error {
		if !size.Positive() {
			return fmt.Errorf("%w: chunk size %s", errs.ErrInvalidDimensions, size)
		}
		c.chunkSize = size

		return nil
	})
}

// Open opens the world stored under root, creating the directory and a new
// world.options file when needed.
func Open(fsys afero.Fs, root string, opts ...Option) (*Store, error) {
	cfg := &storeConfig{
		logger:     slog.Default(),
		regionSize: DefaultRegionSize,
		chunkSize:  DefaultChunkSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.resolver == nil {
		cfg.resolver = block.NewRegistry(true)
	}

	exists, err := afero.DirExists(fsys, root)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := fsys.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create world root: %w", err)
		}
	}

	s := &Store{
		fs:       fsys,
		root:     root,
		logger:   cfg.logger.With(slog.String("world", root)),
		resolver: cfg.resolver,
	}

	optsPath := s.path(OptionsFileName)
	o, err := ReadOptions(fsys, optsPath)
	switch {
	case err == nil:
		s.opts = o
	case errors.Is(err, fs.ErrNotExist):
		s.opts = Options{
			Version:    FormatVersion,
			ID:         uuid.New(),
			RegionSize: cfg.regionSize,
			ChunkSize:  cfg.chunkSize,
		}
		if err := WriteOptions(fsys, optsPath, s.opts); err != nil {
			return nil, fmt.Errorf("write %s: %w", OptionsFileName, err)
		}
		s.logger.Info("created world", slog.String("id", s.opts.ID.String()))
	default:
		return nil, err
	}

	return s, nil
}

// Root returns the world directory.
func (s *Store) Root() string { return s.root }

// Options returns the persisted world options.
func (s *Store) Options() Options { return s.opts }

// Resolver returns the block resolver used for every region.
func (s *Store) Resolver() block.Resolver { return s.resolver }

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name)
}

// RegionPath returns the file path of the region at r.
func (s *Store) RegionPath(r geom.Vec3) string {
	return s.path(RegionFileName(r))
}

// NewChunk creates an empty chunk of the world's chunk size.
func (s *Store) NewChunk() (*chunk.Chunk, error) {
	return chunk.New(s.opts.ChunkSize)
}

// Locate splits a world chunk coordinate into its region coordinate and its
// coordinate inside that region.
func (s *Store) Locate(c geom.Vec3) (regionPos, local geom.Vec3) {
	regionPos = c.FloorDiv(s.opts.RegionSize)
	local = c.Sub(regionPos.Mul(s.opts.RegionSize))

	return regionPos, local
}

// ChunkCoord is the inverse of Locate.
func (s *Store) ChunkCoord(regionPos, local geom.Vec3) geom.Vec3 {
	return regionPos.Mul(s.opts.RegionSize).Add(local)
}

// Regions lists the coordinates of every region file under the root, in slot
// order. Files whose names do not parse are skipped.
func (s *Store) Regions() ([]geom.Vec3, error) {
	matches, err := afero.Glob(s.fs, s.path("*"+RegionExt))
	if err != nil {
		return nil, err
	}

	out := make([]geom.Vec3, 0, len(matches))
	for _, m := range matches {
		r, err := ParseRegionFileName(filepath.Base(m))
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, compareRegions)

	return out, nil
}

func compareRegions(a, b geom.Vec3) int {
	return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y), cmp.Compare(a.Z, b.Z))
}

func (s *Store) newRegion(r geom.Vec3) (*region.Region, error) {
	return region.New(r, s.opts.RegionSize, s.opts.ChunkSize, s.resolver)
}

// LoadRegion reads the region at r.
//
// A missing file returns false. So does an unreadable one, after logging,
// since callers treat both as "not generated". Individual chunks that fail to
// decode are logged and left out; see region.Region.ChunkErr.
func (s *Store) LoadRegion(ctx context.Context, r geom.Vec3) (*region.Region, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path := s.RegionPath(r)
	f, err := s.fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	reg, err := s.newRegion(r)
	if err != nil {
		return nil, false, err
	}
	if err := reg.Decode(f); err != nil {
		s.logger.WarnContext(ctx, "unreadable region treated as empty",
			slog.String("region", r.String()), slog.String("path", path), slog.Any("err", err))

		return nil, false, nil
	}
	for local, cerr := range reg.Failures() {
		s.logger.WarnContext(ctx, "chunk failed to decode",
			slog.String("region", r.String()), slog.String("chunk", local.String()), slog.Any("err", cerr))
	}

	return reg, true, nil
}

// LoadChunk reads one chunk by world chunk coordinate without decoding the
// rest of its region.
//
// A missing or unreadable region, or an empty slot, returns false. A chunk
// body that fails to decode is returned as an error.
func (s *Store) LoadChunk(ctx context.Context, c geom.Vec3) (*chunk.Chunk, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r, local := s.Locate(c)
	path := s.RegionPath(r)
	f, err := s.fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	reg, err := s.newRegion(r)
	if err != nil {
		return nil, false, err
	}

	ch, ok, err := reg.DecodeChunk(f, local)
	var cerr *region.ChunkError
	switch {
	case errors.As(err, &cerr):
		return nil, false, fmt.Errorf("load chunk %s: %w", c, err)
	case err != nil:
		s.logger.WarnContext(ctx, "unreadable region treated as empty",
			slog.String("region", r.String()), slog.String("path", path), slog.Any("err", err))

		return nil, false, nil
	}

	return ch, ok, nil
}

// SaveStats summarizes one Save call.
type SaveStats struct {
	Regions int
	Chunks  int
	Bytes   int64
}

// Save writes every dirty chunk of loaded to disk.
//
// Dirty chunks are grouped by region. For each region, in coordinate order,
// the existing file is read so untouched chunks are kept, the dirty chunks
// are overlaid, and the whole file is rewritten through a temporary file and
// a rename. The chunks of a region are marked saved once its file is in
// place; loaded itself is marked saved when every region succeeded.
//
// ctx is checked between regions. A region write that has started runs to
// completion.
func (s *Store) Save(ctx context.Context, loaded *Loaded) (SaveStats, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	var stats SaveStats
	if loaded.IsSaved() {
		return stats, nil
	}

	groups := make(map[geom.Vec3]map[geom.Vec3]*chunk.Chunk)
	for c, ch := range loaded.All() {
		if ch.IsSaved() {
			continue
		}
		r, local := s.Locate(c)
		if groups[r] == nil {
			groups[r] = make(map[geom.Vec3]*chunk.Chunk)
		}
		groups[r][local] = ch
	}

	regions := make([]geom.Vec3, 0, len(groups))
	for r := range groups {
		regions = append(regions, r)
	}
	slices.SortFunc(regions, compareRegions)

	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, err := s.saveRegion(ctx, r, groups[r])
		if err != nil {
			return stats, fmt.Errorf("save region %s: %w", r, err)
		}
		for _, ch := range groups[r] {
			ch.MarkSaved()
		}
		stats.Regions++
		stats.Chunks += len(groups[r])
		stats.Bytes += n
	}

	loaded.MarkSaved()
	s.logger.DebugContext(ctx, "saved world",
		slog.Int("regions", stats.Regions), slog.Int("chunks", stats.Chunks), slog.Int64("bytes", stats.Bytes))

	return stats, nil
}

func (s *Store) saveRegion(ctx context.Context, r geom.Vec3, dirty map[geom.Vec3]*chunk.Chunk) (int64, error) {
	path := s.RegionPath(r)
	reg, ok, err := s.LoadRegion(ctx, r)
	if err != nil {
		return 0, err
	}
	if !ok || reg.State() == region.StatePartiallyLoaded {
		if err := s.keepDamaged(ctx, r, path); err != nil {
			return 0, err
		}
	}
	if !ok {
		if reg, err = s.newRegion(r); err != nil {
			return 0, err
		}
	}

	for local, ch := range dirty {
		if err := reg.SetChunk(local, ch); err != nil {
			return 0, err
		}
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	n, err := reg.Encode(buf)
	if err != nil {
		return 0, err
	}

	if err := writeAtomic(s.fs, path, func(f afero.File) error {
		_, err := buf.WriteTo(f)
		return err
	}); err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "wrote region",
		slog.String("region", r.String()), slog.String("path", path), slog.Int("chunks", reg.Len()))

	return n, nil
}

// keepDamaged moves an existing region file that could not be fully read to
// "<path>.corrupt" (or "<path>.corrupt.N" when that is taken) before it is
// rewritten without the unreadable chunks. A missing file is left alone.
func (s *Store) keepDamaged(ctx context.Context, r geom.Vec3, path string) error {
	exists, err := afero.Exists(s.fs, path)
	if err != nil || !exists {
		return err
	}

	backup := path + corruptSuffix
	for i := 1; ; i++ {
		taken, err := afero.Exists(s.fs, backup)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		backup = fmt.Sprintf("%s%s.%d", path, corruptSuffix, i)
	}

	if err := s.fs.Rename(path, backup); err != nil {
		return fmt.Errorf("keep damaged region: %w", err)
	}
	s.logger.WarnContext(ctx, "damaged region kept aside before rewrite",
		slog.String("region", r.String()), slog.String("path", backup))

	return nil
}

// DeleteRegion removes the file of the region at r. A missing file is not an
// error.
func (s *Store) DeleteRegion(r geom.Vec3) error {
	err := s.fs.Remove(s.RegionPath(r))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Destroy removes the whole world directory. The Store must not be used
// afterwards.
func (s *Store) Destroy() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.logger.Info("destroying world")

	return s.fs.RemoveAll(s.root)
}
