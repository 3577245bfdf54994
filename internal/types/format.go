package types

import (
	"fmt"
	"time"
)

// Format is the SMF header format field.
type Format uint16

const (
	// SingleTrack is format 0: one track holding every channel.
	SingleTrack Format = 0 // single track
	// MultiTrackSync is format 1: simultaneous tracks sharing one tempo map.
	MultiTrackSync Format = 1 // multi-track sync
	// MultiTrackAsync is format 2: independent single-track patterns.
	MultiTrackAsync Format = 2 // multi-track async
)

// Valid reports whether f is one of the three defined formats.
func (f Format) Valid() bool {
	return f <= MultiTrackAsync
}

func (f Format) String() string {
	switch f {
	case SingleTrack:
		return "single track"
	case MultiTrackSync:
		return "multi-track sync"
	case MultiTrackAsync:
		return "multi-track async"
	default:
		return fmt.Sprintf("format(%d)", uint16(f))
	}
}

// DefaultMicrosPerQuarter is the tempo in effect before any Set Tempo event (120 BPM).
const DefaultMicrosPerQuarter = 500000

// Division is the header time-division field.
//
// It is either MetricTicks (ticks per quarter note) or SMPTE (frames per
// second and ticks per frame).
type Division interface {
	// TickDuration returns the wall-clock length of one tick at the given
	// tempo. SMPTE divisions ignore the tempo.
	TickDuration(microsPerQuarter uint32) time.Duration

	// Raw returns the 16-bit field as stored in the header.
	Raw() uint16

	fmt.Stringer
	isDivision()
}

// MetricTicks is a ticks-per-quarter-note division (15 bits).
type MetricTicks uint16

// TickDuration returns microsPerQuarter / ticks, or zero for a zero division.
func (m MetricTicks) TickDuration(microsPerQuarter uint32) time.Duration {
	if m == 0 {
		return 0
	}
	return time.Duration(microsPerQuarter) * time.Microsecond / time.Duration(m)
}

// Raw returns the 16-bit header field.
func (m MetricTicks) Raw() uint16 { return uint16(m) & 0x7FFF }

func (m MetricTicks) String() string { return fmt.Sprintf("%d ticks per quarter note", uint16(m)) }

func (MetricTicks) isDivision() {}

// SMPTE is a time-code division. FramesPerSecond is the magnitude of the
// negative high byte (24, 25, 29 or 30 for well-formed files; 29 means 29.97).
type SMPTE struct {
	FramesPerSecond uint8
	TicksPerFrame   uint8
}

// TickDuration returns one second divided by frames times ticks per frame.
func (s SMPTE) TickDuration(uint32) time.Duration {
	if s.FramesPerSecond == 0 || s.TicksPerFrame == 0 {
		return 0
	}
	fps := float64(s.FramesPerSecond)
	if s.FramesPerSecond == 29 {
		fps = 29.97
	}
	return time.Duration(float64(time.Second) / (fps * float64(s.TicksPerFrame)))
}

// Raw returns the 16-bit header field.
func (s SMPTE) Raw() uint16 {
	return uint16(uint8(-int8(s.FramesPerSecond)))<<8 | uint16(s.TicksPerFrame)
}

func (s SMPTE) String() string {
	return fmt.Sprintf("SMPTE %d fps, %d ticks per frame", s.FramesPerSecond, s.TicksPerFrame)
}

func (SMPTE) isDivision() {}

// DivisionFromRaw interprets a 16-bit division field. The sign bit of the
// high byte selects SMPTE.
func DivisionFromRaw(raw uint16) Division {
	if raw&0x8000 == 0 {
		return MetricTicks(raw & 0x7FFF)
	}
	fps := -int8(raw >> 8)
	return SMPTE{
		FramesPerSecond: uint8(fps),
		TicksPerFrame:   uint8(raw & 0xFF),
	}
}

// Header is the interpreted MThd payload.
type Header struct {
	Format     Format
	TrackCount uint16
	Division   Division
}

// Validate reports structural oddities that real files exhibit but that do not
// prevent decoding.
func (h Header) Validate() []Warning {
	var warnings []Warning

	if h.Format == SingleTrack && h.TrackCount != 1 {
		warnings = append(warnings, Warning{
			Stage:   "header",
			Message: fmt.Sprintf("format 0 declares %d tracks, expected 1", h.TrackCount),
		})
	}

	switch d := h.Division.(type) {
	case MetricTicks:
		if d == 0 {
			warnings = append(warnings, Warning{Stage: "header", Message: "division is zero ticks per quarter note"})
		}
	case SMPTE:
		switch d.FramesPerSecond {
		case 24, 25, 29, 30:
		default:
			warnings = append(warnings, Warning{
				Stage:   "header",
				Message: fmt.Sprintf("unusual SMPTE frame rate %d", d.FramesPerSecond),
			})
		}
		if d.TicksPerFrame == 0 {
			warnings = append(warnings, Warning{Stage: "header", Message: "division is zero ticks per frame"})
		}
	}

	return warnings
}
