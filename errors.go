package smfseek

import (
	"github.com/simonhull/smfseek/internal/types"
)

// Error kinds. Every error returned by this package wraps one of them;
// test with errors.Is.
var (
	ErrUnexpectedEOF     = types.ErrUnexpectedEOF
	ErrOutOfBounds       = types.ErrOutOfBounds
	ErrMalformedVLQ      = types.ErrMalformedVLQ
	ErrUnknownFormat     = types.ErrUnknownFormat
	ErrTruncatedChunk    = types.ErrTruncatedChunk
	ErrMalformedHeader   = types.ErrMalformedHeader
	ErrUnsupportedFormat = types.ErrUnsupportedFormat
	ErrTruncatedTrack    = types.ErrTruncatedTrack
	ErrInvalidStatus     = types.ErrInvalidStatus
)

// OutOfBoundsError is an alias to types.OutOfBoundsError.
// Re-exporting from internal/types to maintain public API.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError is an alias to types.UnsupportedFormatError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError is an alias to types.CorruptedFileError.
// Re-exporting from internal/types to maintain public API.
type CorruptedFileError = types.CorruptedFileError

// TrackError is an alias to types.TrackError.
// Re-exporting from internal/types to maintain public API.
type TrackError = types.TrackError

// Warning is an alias to types.Warning.
// Re-exporting from internal/types to maintain public API.
type Warning = types.Warning
