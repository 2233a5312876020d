package region

// State is the lifecycle stage of a Region.
type State uint8

const (
	// StateEmpty is a region that has not been read or written.
	StateEmpty State = iota
	// StatePaletteLoaded means the header and offset table were read.
	StatePaletteLoaded
	// StateChunksLoaded means every present chunk was decoded.
	StateChunksLoaded
	// StatePartiallyLoaded means at least one chunk body failed to decode.
	StatePartiallyLoaded
	// StateWritten means the region was encoded since it was last read.
	StateWritten
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaletteLoaded:
		return "palette-loaded"
	case StateChunksLoaded:
		return "chunks-loaded"
	case StatePartiallyLoaded:
		return "partially-loaded"
	case StateWritten:
		return "written"
	default:
		return "unknown"
	}
}
