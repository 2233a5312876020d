package tag

import (
	"fmt"

	"github.com/voxelforge/worldstore/endian"
	"github.com/voxelforge/worldstore/errs"
	"github.com/voxelforge/worldstore/internal/options"
)

const (
	// DefaultMaxLength bounds any single length field read from the wire (64MiB).
	DefaultMaxLength = 64 * 1024 * 1024
	// DefaultMaxDepth bounds Compound/List nesting.
	DefaultMaxDepth = 512
)

// StringTable interns strings into int32 ids for compact encoding.
//
// ID must return -1 for the empty string and a stable non-negative id
// otherwise. Value must return "" for ids it does not know.
type StringTable interface {
	ID(s string) int32
	Value(id int32) string
}

type config struct {
	engine    endian.EndianEngine
	strings   StringTable
	maxLength int
	maxDepth  int
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		engine:    endian.Default(),
		maxLength: DefaultMaxLength,
		maxDepth:  DefaultMaxDepth,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Option configures an Encoder or Decoder.
type Option = options.Option[*config]

// WithStringTable routes every String payload and Compound key through table.
// Encoder and decoder must use tables holding the same id assignment.
func WithStringTable(table StringTable) Option {
	return options.NoError(func(c *config) {
		c.strings = table
	})
}

// WithLittleEndian selects the little-endian wire convention (the default).
func WithLittleEndian() Option {
	return options.NoError(func(c *config) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian selects big-endian integers.
func WithBigEndian() Option {
	return options.NoError(func(c *config) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithNativeEndian selects the host byte order. Data written this way is only
// portable between hosts of the same order.
func WithNativeEndian() Option {
	return options.NoError(func(c *config) {
		c.engine = endian.Native()
	})
}

// WithMaxLength bounds string and collection lengths accepted by a Decoder.
func WithMaxLength(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max length %d", errs.ErrInvalidLength, n)
		}
		c.maxLength = n

		return nil
	})
}

// WithMaxDepth bounds Compound/List nesting for both directions.
func WithMaxDepth(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max depth %d", errs.ErrMaxDepthExceeded, n)
		}
		c.maxDepth = n

		return nil
	})
}
