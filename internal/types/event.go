package types

import "fmt"

// EventKind discriminates the Event variants.
type EventKind uint8

const (
	// KindChannel is a channel voice message (status 0x80-0xEF).
	KindChannel EventKind = iota
	// KindSysEx is an F0-initiated system exclusive packet.
	KindSysEx
	// KindSysExContinuation is an F7 packet continuing an unterminated F0 packet.
	KindSysExContinuation
	// KindEscape is an F7 packet outside any open system exclusive message.
	KindEscape
	// KindSystem is a system common or realtime message (0xF1-0xF6, 0xF8-0xFE).
	KindSystem
	// KindMeta is a meta event (0xFF).
	KindMeta
)

func (k EventKind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindSysEx:
		return "sysex"
	case KindSysExContinuation:
		return "sysex continuation"
	case KindEscape:
		return "escape"
	case KindSystem:
		return "system"
	case KindMeta:
		return "meta"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// VoiceKind is the message type of a channel voice event.
type VoiceKind uint8

const (
	NoteOff         VoiceKind = 0x80
	NoteOn          VoiceKind = 0x90
	PolyPressure    VoiceKind = 0xA0
	ControlChange   VoiceKind = 0xB0
	ProgramChange   VoiceKind = 0xC0
	ChannelPressure VoiceKind = 0xD0
	PitchBend       VoiceKind = 0xE0
)

func (v VoiceKind) String() string {
	switch v {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	case PolyPressure:
		return "PolyPressure"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case ChannelPressure:
		return "ChannelPressure"
	case PitchBend:
		return "PitchBend"
	default:
		return fmt.Sprintf("voice(0x%02X)", uint8(v))
	}
}

// Meta event types this package needs to recognise. Everything else is
// carried as raw bytes.
const (
	MetaEndOfTrack = 0x2F
	MetaSetTempo   = 0x51
)

// Event is one decoded track event.
//
// Data holds the event's raw bytes without the status byte: the one or two
// data bytes of a channel or system message, the packet bytes of a system
// exclusive or escape event, or the payload of a meta event. When the file
// was opened from a byte slice Data aliases that slice and must not be
// modified.
type Event struct {
	Kind     EventKind
	Status   byte
	MetaType byte
	Data     []byte

	// Running is set on channel events whose status byte was omitted.
	Running bool
}

// Voice returns the channel voice kind. Only meaningful for KindChannel.
func (e Event) Voice() VoiceKind {
	return VoiceKind(e.Status & 0xF0)
}

// Channel returns the 0-15 channel number. Only meaningful for KindChannel.
func (e Event) Channel() uint8 {
	return e.Status & 0x0F
}

// IsEndOfTrack reports whether e is the canonical End-of-Track meta event.
func (e Event) IsEndOfTrack() bool {
	return e.Kind == KindMeta && e.MetaType == MetaEndOfTrack && len(e.Data) == 0
}

// PitchBendValue returns the 14-bit pitch bend amount (0x2000 is centre).
func (e Event) PitchBendValue() (uint16, bool) {
	if e.Kind != KindChannel || e.Voice() != PitchBend || len(e.Data) < 2 {
		return 0, false
	}
	return uint16(e.Data[1]&0x7F)<<7 | uint16(e.Data[0]&0x7F), true
}

// TempoMicros returns the microseconds per quarter note of a Set Tempo meta event.
func (e Event) TempoMicros() (uint32, bool) {
	if e.Kind != KindMeta || e.MetaType != MetaSetTempo || len(e.Data) != 3 {
		return 0, false
	}
	return uint32(e.Data[0])<<16 | uint32(e.Data[1])<<8 | uint32(e.Data[2]), true
}

func (e Event) String() string {
	switch e.Kind {
	case KindChannel:
		return fmt.Sprintf("%s ch%d % X", e.Voice(), e.Channel(), e.Data)
	case KindMeta:
		return fmt.Sprintf("meta 0x%02X (%d bytes)", e.MetaType, len(e.Data))
	case KindSystem:
		return fmt.Sprintf("system 0x%02X % X", e.Status, e.Data)
	default:
		return fmt.Sprintf("%s (%d bytes)", e.Kind, len(e.Data))
	}
}

// TimedEvent is an Event positioned on its track's timeline.
type TimedEvent struct {
	// Tick is the cumulative tick count since the start of the track.
	Tick uint64
	// Track is the zero-based index of the MTrk chunk that holds the event.
	Track int
	// Seq is the event's ordinal within its track.
	Seq uint64
	// Offset is the absolute source offset of the event's delta-time.
	Offset int64

	Event
}

// Checkpoint is decoder state captured at an event boundary.
//
// Tick is the cumulative tick before the next event's delta-time is added,
// so every event decoded before the checkpoint has a tick <= Tick.
type Checkpoint struct {
	Tick          uint64
	Offset        int64
	Seq           uint64
	RunningStatus byte
	SysExOpen     bool
}
