// Package types provides the core data model of a decoded Standard MIDI File.
//
// This package defines the Chunk, Header, Division, Event, TimedEvent and
// Checkpoint types shared by the scanner, decoder, seek index and merger.
package types

// ChunkKind classifies a top-level chunk by its tag.
type ChunkKind uint8

const (
	// ChunkUnknown is any chunk whose tag is neither MThd nor MTrk.
	ChunkUnknown ChunkKind = iota
	// ChunkHeader is the MThd chunk.
	ChunkHeader
	// ChunkTrack is an MTrk chunk.
	ChunkTrack
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkHeader:
		return "header"
	case ChunkTrack:
		return "track"
	default:
		return "opaque"
	}
}

// Chunk is a top-level chunk header.
//
// Start and End delimit the payload only; the 4-byte tag and 4-byte length
// fields precede Start.
type Chunk struct {
	Tag    [4]byte
	Length uint32
	Start  int64
	End    int64
}

// Kind returns the chunk classification derived from its tag.
func (c Chunk) Kind() ChunkKind {
	switch string(c.Tag[:]) {
	case "MThd":
		return ChunkHeader
	case "MTrk":
		return ChunkTrack
	default:
		return ChunkUnknown
	}
}

// TagString returns the tag as a string.
func (c Chunk) TagString() string {
	return string(c.Tag[:])
}
