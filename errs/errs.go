// Package errs defines the sentinel errors returned by worldstore packages.
//
// Errors are wrapped with context using fmt.Errorf("%w: ...") at the point of
// failure; match them with errors.Is.
package errs

import "errors"

// Format errors. The current encode or decode call is aborted.
var (
	ErrUnsupportedTagType  = errors.New("unsupported tag type")
	ErrInvalidLength       = errors.New("invalid length")
	ErrTruncated           = errors.New("truncated data")
	ErrPaletteIDOutOfRange = errors.New("palette id out of range")
	ErrHashCollision       = errors.New("palette key hash collision")
	ErrUnknownBlockState   = errors.New("unknown block state")
	ErrInvalidRegionFile   = errors.New("invalid region file")
	ErrInvalidOptionsFile  = errors.New("invalid world options file")
)

// Contract violations. These indicate a programming error in the caller.
var (
	ErrListTypeMismatch    = errors.New("list element type mismatch")
	ErrEmptyListElement    = errors.New("empty tag cannot be a list element")
	ErrCoordOutOfRange     = errors.New("coordinate out of range")
	ErrPaletteValueUnknown = errors.New("value not present in palette")
	ErrInvalidDimensions   = errors.New("invalid dimensions")
	ErrInvalidChar         = errors.New("char outside the basic multilingual plane")
	ErrBlockCountMismatch  = errors.New("block count does not match chunk size")
)

// Resource limits guarding decoders against corrupt length fields.
var (
	ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")
	ErrIndexOutOfRange  = errors.New("index out of range")
)
