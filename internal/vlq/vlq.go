// Package vlq implements the MIDI variable-length quantity: a big-endian
// integer stored seven bits per byte, with the high bit set on every byte
// except the last.
package vlq

import (
	"fmt"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/types"
)

const (
	// MaxLen is the longest encoding a well-formed file may contain.
	MaxLen = 4

	// MaxValue is the largest value representable in MaxLen bytes (28 bits).
	MaxValue = 0x0FFFFFFF
)

// Decode reads one quantity from c and returns its value and encoded length.
//
// It fails with types.ErrMalformedVLQ when the fourth byte still has its
// continuation bit set, and with types.ErrUnexpectedEOF (via the cursor) when
// the window ends first. On failure the cursor position is unspecified.
func Decode(c *binary.Cursor, what string) (uint32, int, error) {
	var value uint32
	start := c.Position()
	for n := 1; n <= MaxLen; n++ {
		b, err := c.ReadU8(what)
		if err != nil {
			return 0, n - 1, err
		}
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, MaxLen, fmt.Errorf("%s at offset %d: %w", what, start, types.ErrMalformedVLQ)
}

// DecodeBytes decodes a quantity from the front of b without a cursor.
func DecodeBytes(b []byte) (uint32, int, error) {
	var value uint32
	for n := 0; n < MaxLen; n++ {
		if n >= len(b) {
			return 0, n, types.ErrUnexpectedEOF
		}
		value = value<<7 | uint32(b[n]&0x7F)
		if b[n]&0x80 == 0 {
			return value, n + 1, nil
		}
	}
	return 0, MaxLen, types.ErrMalformedVLQ
}

// Len returns the number of bytes Append uses for v.
func Len(v uint32) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	default:
		return 4
	}
}

// Append appends the encoding of v to dst. Values above MaxValue are
// truncated to their low 28 bits.
func Append(dst []byte, v uint32) []byte {
	v &= MaxValue
	n := Len(v)
	for i := n - 1; i > 0; i-- {
		dst = append(dst, byte(v>>(7*uint(i)))&0x7F|0x80)
	}
	return append(dst, byte(v)&0x7F)
}
