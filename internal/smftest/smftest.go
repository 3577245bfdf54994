// Package smftest builds Standard MIDI File fixtures for tests.
package smftest

import (
	"bytes"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/vlq"
)

// Track accumulates the raw payload of an MTrk chunk.
type Track struct {
	buf []byte
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{}
}

// Raw appends a delta-time followed by raw event bytes, written as given.
// Omitting the status byte produces a running-status event.
func (t *Track) Raw(delta uint32, b ...byte) *Track {
	t.buf = vlq.Append(t.buf, delta)
	t.buf = append(t.buf, b...)
	return t
}

// NoteOn appends a note-on with an explicit status byte.
func (t *Track) NoteOn(delta uint32, ch, key, vel byte) *Track {
	return t.Raw(delta, 0x90|ch&0x0F, key, vel)
}

// NoteOff appends a note-off with an explicit status byte.
func (t *Track) NoteOff(delta uint32, ch, key byte) *Track {
	return t.Raw(delta, 0x80|ch&0x0F, key, 0)
}

// Meta appends a meta event.
func (t *Track) Meta(delta uint32, typ byte, data ...byte) *Track {
	t.buf = vlq.Append(t.buf, delta)
	t.buf = append(t.buf, 0xFF, typ)
	t.buf = vlq.Append(t.buf, uint32(len(data)))
	t.buf = append(t.buf, data...)
	return t
}

// Tempo appends a Set Tempo meta event.
func (t *Track) Tempo(delta uint32, microsPerQuarter uint32) *Track {
	return t.Meta(delta, 0x51, byte(microsPerQuarter>>16), byte(microsPerQuarter>>8), byte(microsPerQuarter))
}

// SysEx appends an F0 or F7 packet.
func (t *Track) SysEx(delta uint32, status byte, data ...byte) *Track {
	t.buf = vlq.Append(t.buf, delta)
	t.buf = append(t.buf, status)
	t.buf = vlq.Append(t.buf, uint32(len(data)))
	t.buf = append(t.buf, data...)
	return t
}

// End appends the canonical End-of-Track event.
func (t *Track) End(delta uint32) *Track {
	return t.Meta(delta, 0x2F)
}

// Bytes returns the track payload.
func (t *Track) Bytes() []byte {
	return t.buf
}

// Chunk encodes one chunk with the given tag and payload.
func Chunk(tag string, payload []byte) []byte {
	buf := &bytes.Buffer{}
	sw := binary.NewSafeWriter(buf)
	_ = sw.WriteString(tag)
	_ = binary.Write(sw, uint32(len(payload)))
	_ = sw.WriteBytes(payload)
	return buf.Bytes()
}

// Header encodes an MThd chunk.
func Header(format, tracks, division uint16) []byte {
	buf := &bytes.Buffer{}
	sw := binary.NewSafeWriter(buf)
	_ = binary.Write(sw, format)
	_ = binary.Write(sw, tracks)
	_ = binary.Write(sw, division)
	return Chunk("MThd", buf.Bytes())
}

// File encodes a complete file whose header declares len(tracks) tracks.
func File(format, division uint16, tracks ...*Track) []byte {
	out := Header(format, uint16(len(tracks)), division)
	for _, t := range tracks {
		out = append(out, Chunk("MTrk", t.Bytes())...)
	}
	return out
}
