// Package binary provides bounds-checked big-endian reading primitives over an
// immutable byte source.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/simonhull/smfseek/internal/types"
)

// SafeReader wraps an immutable source with bounds checking and helpful error
// messages. It holds no position and is safe for concurrent use.
//
// A SafeReader built from a byte slice hands out sub-slices of it; one built
// from an io.ReaderAt copies every span it returns.
type SafeReader struct {
	r    io.ReaderAt
	buf  []byte
	name string
	size int64
}

// NewSafeReader creates a SafeReader over r, which must hold size bytes.
func NewSafeReader(r io.ReaderAt, size int64, name string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		name: name,
	}
}

// NewBytesReader creates a SafeReader sharing data without copying it.
func NewBytesReader(data []byte, name string) *SafeReader {
	return &SafeReader{
		buf:  data,
		size: int64(len(data)),
		name: name,
	}
}

// Name returns the source name used in error messages.
func (sr *SafeReader) Name() string {
	return sr.name
}

// Size returns the source length in bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// Span returns n bytes at off, reading no further than limit.
func (sr *SafeReader) Span(off int64, n int, limit int64, what string) ([]byte, error) {
	if limit > sr.size {
		limit = sr.size
	}
	if n < 0 || off < 0 || off+int64(n) > limit {
		return nil, &types.OutOfBoundsError{
			Source: sr.name,
			What:   what,
			Offset: off,
			Length: max(n, 1),
			Size:   limit,
		}
	}
	if n == 0 {
		return nil, nil
	}

	if sr.buf != nil {
		return sr.buf[off : off+int64(n) : off+int64(n)], nil
	}

	b := make([]byte, n)
	got, err := sr.r.ReadAt(b, off)
	if got < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%s: failed to read %s at offset %d: %w: %w",
			sr.name, what, off, types.ErrUnexpectedEOF, err)
	}
	return b, nil
}

// Read reads a big-endian value of type T from the given offset.
func Read[T uint8 | uint16 | uint32](sr *SafeReader, off int64, what string) (T, error) {
	var zero T
	size := sizeOf[T]()

	buf, err := sr.Span(off, size, sr.size, what)
	if err != nil {
		return zero, err
	}
	return decode[T](buf), nil
}

func sizeOf[T uint8 | uint16 | uint32]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	default:
		return 4
	}
}

func decode[T uint8 | uint16 | uint32](buf []byte) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(binary.BigEndian.Uint16(buf))
	default:
		return T(binary.BigEndian.Uint32(buf))
	}
}

// Cursor provides sequential reading within a window [start, end) of a
// SafeReader. Offsets are always absolute source offsets.
//
// Position is the offset immediately following the last successfully read
// byte; a failed read leaves it unchanged.
type Cursor struct {
	sr    *SafeReader
	start int64
	end   int64
	pos   int64
}

// NewCursor creates a Cursor over the whole source, positioned at 0.
func NewCursor(sr *SafeReader) *Cursor {
	return &Cursor{sr: sr, end: sr.size}
}

// NewWindow creates a Cursor limited to [start, end), positioned at start.
// The window is clamped to the source.
func NewWindow(sr *SafeReader, start, end int64) *Cursor {
	end = min(end, sr.size)
	start = min(max(start, 0), end)
	return &Cursor{sr: sr, start: start, end: end, pos: start}
}

// Position returns the current absolute offset.
func (c *Cursor) Position() int64 {
	return c.pos
}

// End returns the exclusive end of the window.
func (c *Cursor) End() int64 {
	return c.end
}

// Remaining returns the number of unread bytes in the window.
func (c *Cursor) Remaining() int64 {
	return c.end - c.pos
}

// SeekTo moves the cursor to an absolute offset inside the window. The end of
// the window itself is a valid target.
func (c *Cursor) SeekTo(off int64) error {
	if off < c.start || off > c.end {
		return &types.OutOfBoundsError{
			Source: c.sr.name,
			What:   fmt.Sprintf("offset %d", off),
			Offset: off,
			Size:   c.end,
		}
	}
	c.pos = off
	return nil
}

// ReadBytes reads n bytes and advances.
func (c *Cursor) ReadBytes(n int, what string) ([]byte, error) {
	b, err := c.sr.Span(c.pos, n, c.end, what)
	if err != nil {
		return nil, err
	}
	c.pos += int64(n)
	return b, nil
}

// ReadU8 reads one byte and advances.
func (c *Cursor) ReadU8(what string) (uint8, error) {
	return ReadValue[uint8](c, what)
}

// PeekU8 reads one byte without advancing.
func (c *Cursor) PeekU8(what string) (uint8, error) {
	b, err := c.sr.Span(c.pos, 1, c.end, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a big-endian uint16 and advances.
func (c *Cursor) ReadU16(what string) (uint16, error) {
	return ReadValue[uint16](c, what)
}

// ReadU32 reads a big-endian uint32 and advances.
func (c *Cursor) ReadU32(what string) (uint32, error) {
	return ReadValue[uint32](c, what)
}

// ReadValue reads a numeric value and advances the cursor.
func ReadValue[T uint8 | uint16 | uint32](c *Cursor, what string) (T, error) {
	var zero T
	buf, err := c.ReadBytes(sizeOf[T](), what)
	if err != nil {
		return zero, err
	}
	return decode[T](buf), nil
}

// ChainReader allows chaining multiple reads with deferred error checking.
// This avoids repetitive "if err != nil" checks.
type ChainReader struct {
	*Cursor
	err error
}

// NewChainReader creates a new ChainReader.
func NewChainReader(c *Cursor) *ChainReader {
	return &ChainReader{Cursor: c}
}

// ReadChained reads a value with deferred error checking.
// If a previous read failed, returns zero value without attempting read.
func ReadChained[T uint8 | uint16 | uint32](cr *ChainReader, what string) T {
	if cr.err != nil {
		var zero T
		return zero
	}

	val, err := ReadValue[T](cr.Cursor, what)
	if err != nil {
		cr.err = err
		var zero T
		return zero
	}

	return val
}

// Bytes reads n bytes, accumulating any error.
func (cr *ChainReader) Bytes(n int, what string) []byte {
	if cr.err != nil {
		return nil
	}

	val, err := cr.Cursor.ReadBytes(n, what)
	if err != nil {
		cr.err = err
		return nil
	}

	return val
}

// Error returns the accumulated error, if any.
func (cr *ChainReader) Error() error {
	return cr.err
}
