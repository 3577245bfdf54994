package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every decode failure wraps exactly one of these so callers can
// classify it with errors.Is regardless of the concrete error struct.
var (
	// ErrUnexpectedEOF is returned when fewer bytes remain than a read requires.
	ErrUnexpectedEOF = errors.New("unexpected end of data")

	// ErrOutOfBounds is returned when seeking past the end of a source.
	ErrOutOfBounds = errors.New("offset out of bounds")

	// ErrMalformedVLQ is returned for a variable-length quantity longer than 4 bytes.
	ErrMalformedVLQ = errors.New("malformed variable-length quantity")

	// ErrUnknownFormat is returned when the source does not start with an MThd chunk.
	ErrUnknownFormat = errors.New("not a standard MIDI file")

	// ErrTruncatedChunk is returned when a chunk declares more bytes than remain.
	ErrTruncatedChunk = errors.New("truncated chunk")

	// ErrMalformedHeader is returned when the MThd payload is shorter than 6 bytes.
	ErrMalformedHeader = errors.New("malformed header chunk")

	// ErrUnsupportedFormat is returned for a header format other than 0, 1 or 2.
	ErrUnsupportedFormat = errors.New("unsupported SMF format")

	// ErrTruncatedTrack is returned when a track chunk ends in the middle of an event.
	ErrTruncatedTrack = errors.New("truncated track")

	// ErrInvalidStatus is returned for a data byte with no running status in effect.
	ErrInvalidStatus = errors.New("invalid status byte")
)

// OutOfBoundsError is returned when attempting to read or seek beyond the bounds
// of a source or of a bounded window over it.
//
// A non-zero Length marks a failed read and unwraps to ErrUnexpectedEOF;
// a zero Length marks a failed seek and unwraps to ErrOutOfBounds.
type OutOfBoundsError struct {
	Source string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Length == 0 {
		return fmt.Sprintf("%s: offset %d out of bounds (size: %d) while seeking to %s",
			e.Source, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
		e.Source, e.Length, e.Offset, e.Size, e.What)
}

func (e *OutOfBoundsError) Unwrap() error {
	if e.Length == 0 {
		return ErrOutOfBounds
	}
	return ErrUnexpectedEOF
}

// UnsupportedFormatError is returned when the header names a format other than 0, 1 or 2.
//
// The error is recoverable: the header that carried it is still returned, and
// a caller may choose to play track 0 only.
type UnsupportedFormatError struct {
	Source string
	Format uint16
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %d", e.Source, e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// CorruptedFileError is returned when the file structure is invalid.
//
// Kind is one of the Err* sentinels; Err optionally carries the lower-level
// cause (for example the OutOfBoundsError that exposed a truncation).
type CorruptedFileError struct {
	Source string
	Reason string
	Offset int64
	Kind   error
	Err    error
}

func (e *CorruptedFileError) Error() string {
	msg := fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Source, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptedFileError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// TrackError attaches the track position to a decode failure.
type TrackError struct {
	Track  int
	Tick   uint64
	Offset int64
	Err    error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("track %d at tick %d (offset %d): %v", e.Track, e.Tick, e.Offset, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent decoding but may indicate
// malformed or unusual data. Examples include:
//   - A format 0 file declaring more than one track
//   - A declared track count that differs from the MTrk chunks found
//   - A track that ends without an End-of-Track meta event
//
// Warnings are collected in File.Warnings during Open.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "header", "chunks", "track", "tempo"

	// Warning message
	Message string

	// Source offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
