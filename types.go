package smfseek

import (
	"github.com/simonhull/smfseek/internal/seek"
	"github.com/simonhull/smfseek/internal/tempo"
	"github.com/simonhull/smfseek/internal/types"
)

// Data model re-exported from internal/types.
type (
	Chunk      = types.Chunk
	ChunkKind  = types.ChunkKind
	Header     = types.Header
	Format     = types.Format
	Division   = types.Division
	Event      = types.Event
	EventKind  = types.EventKind
	VoiceKind  = types.VoiceKind
	TimedEvent = types.TimedEvent
	Checkpoint = types.Checkpoint
)

// MetricTicks is a ticks-per-quarter-note division.
type MetricTicks = types.MetricTicks

// SMPTE is a time-code division.
type SMPTE = types.SMPTE

// SeekIndex is a track's checkpoint list.
type SeekIndex = seek.Index

// TempoMap converts between ticks and wall-clock time.
type TempoMap = tempo.Map

// TempoChange is one entry of a TempoMap.
type TempoChange = tempo.Change

const (
	ChunkUnknown = types.ChunkUnknown
	ChunkHeader  = types.ChunkHeader
	ChunkTrack   = types.ChunkTrack
)

const (
	SingleTrack     = types.SingleTrack
	MultiTrackSync  = types.MultiTrackSync
	MultiTrackAsync = types.MultiTrackAsync
)

const (
	KindChannel           = types.KindChannel
	KindSysEx             = types.KindSysEx
	KindSysExContinuation = types.KindSysExContinuation
	KindEscape            = types.KindEscape
	KindSystem            = types.KindSystem
	KindMeta              = types.KindMeta
)

const (
	NoteOff         = types.NoteOff
	NoteOn          = types.NoteOn
	PolyPressure    = types.PolyPressure
	ControlChange   = types.ControlChange
	ProgramChange   = types.ProgramChange
	ChannelPressure = types.ChannelPressure
	PitchBend       = types.PitchBend
)

// DefaultMicrosPerQuarter is the tempo before any Set Tempo event (120 BPM).
const DefaultMicrosPerQuarter = types.DefaultMicrosPerQuarter
