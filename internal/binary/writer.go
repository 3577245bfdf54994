package binary

import (
	"encoding/binary"
	"io"
)

// SafeWriter wraps io.Writer with position tracking and a sticky error:
// after the first failed write every further write is skipped, and Err
// reports the failure.
type SafeWriter struct {
	w      io.Writer
	offset int64
	err    error
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// Err returns the first write error, if any.
func (sw *SafeWriter) Err() error {
	return sw.err
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	if sw.err != nil {
		return sw.err
	}
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	sw.err = err
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// Write writes a value of type T in big-endian byte order, the order of
// every multi-byte field in a MIDI file.
func Write[T uint8 | uint16 | uint32](sw *SafeWriter, val T) error {
	var buf [4]byte
	switch any(val).(type) {
	case uint8:
		return sw.WriteBytes([]byte{byte(val)})
	case uint16:
		binary.BigEndian.PutUint16(buf[:], uint16(val))
		return sw.WriteBytes(buf[:2])
	default:
		binary.BigEndian.PutUint32(buf[:], uint32(val))
		return sw.WriteBytes(buf[:4])
	}
}

// WriteLE writes a value of type T in little-endian byte order (RIFF/WAV fields
// and PCM samples).
func WriteLE[T uint16 | uint32 | int16](sw *SafeWriter, val T) error {
	var buf [4]byte
	switch v := any(val).(type) {
	case uint16:
		binary.LittleEndian.PutUint16(buf[:], v)
		return sw.WriteBytes(buf[:2])
	case int16:
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		return sw.WriteBytes(buf[:2])
	default:
		binary.LittleEndian.PutUint32(buf[:], uint32(val))
		return sw.WriteBytes(buf[:4])
	}
}
