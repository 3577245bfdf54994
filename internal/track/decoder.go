// Package track decodes the event stream of one MTrk chunk.
//
// The Decoder is an explicit state machine: cumulative tick, running status,
// whether an F0 system exclusive packet is still open, and the ordinal of the
// next event. All of that state is captured by State and restored by Resume,
// which is what the seek index builds on.
package track

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/types"
	"github.com/simonhull/smfseek/internal/vlq"
)

// Decoder walks one track chunk, producing events in source order.
// A Decoder is not safe for concurrent use; create one per goroutine.
type Decoder struct {
	sr    *binary.SafeReader
	c     *binary.Cursor
	chunk types.Chunk
	index int

	tick      uint64
	running   byte
	sysexOpen bool
	seq       uint64

	terminated bool
	err        error
}

// NewDecoder creates a Decoder positioned at the start of chunk. index is the
// zero-based track number reported on every event.
func NewDecoder(sr *binary.SafeReader, chunk types.Chunk, index int) *Decoder {
	return &Decoder{
		sr:    sr,
		c:     binary.NewWindow(sr, chunk.Start, chunk.End),
		chunk: chunk,
		index: index,
	}
}

// Track returns the zero-based track number.
func (d *Decoder) Track() int {
	return d.index
}

// State returns the decoder state at the current event boundary.
func (d *Decoder) State() types.Checkpoint {
	return types.Checkpoint{
		Tick:          d.tick,
		Offset:        d.c.Position(),
		Seq:           d.seq,
		RunningStatus: d.running,
		SysExOpen:     d.sysexOpen,
	}
}

// Resume restores a state previously returned by State, on this decoder or on
// another decoder over the same chunk. The zero Checkpoint with Offset set to
// the chunk start is the initial state.
func (d *Decoder) Resume(cp types.Checkpoint) error {
	if err := d.c.SeekTo(cp.Offset); err != nil {
		return &types.TrackError{Track: d.index, Tick: cp.Tick, Offset: cp.Offset, Err: err}
	}
	d.tick = cp.Tick
	d.running = cp.RunningStatus
	d.sysexOpen = cp.SysExOpen
	d.seq = cp.Seq
	d.terminated = false
	d.err = nil
	return nil
}

// Reset rewinds the decoder to the start of its chunk.
func (d *Decoder) Reset() {
	_ = d.Resume(types.Checkpoint{Offset: d.chunk.Start})
}

// Terminated reports whether the canonical End-of-Track event was decoded.
// A decoder that returned io.EOF without it ran off the end of the chunk.
func (d *Decoder) Terminated() bool {
	return d.terminated
}

// Done reports whether Next will return no further events.
func (d *Decoder) Done() bool {
	return d.err != nil || d.terminated || d.c.Remaining() == 0
}

// Next decodes the next event.
//
// It returns io.EOF after End-of-Track or at a clean chunk end. Any other
// error is a *types.TrackError and is sticky.
func (d *Decoder) Next() (types.TimedEvent, error) {
	if d.err != nil {
		return types.TimedEvent{}, d.err
	}
	if d.terminated || d.c.Remaining() == 0 {
		return types.TimedEvent{}, io.EOF
	}

	off := d.c.Position()
	before := d.tick

	delta, _, err := vlq.Decode(d.c, "delta-time")
	if err != nil {
		return types.TimedEvent{}, d.fail(before, off, err)
	}
	tick := before + uint64(delta)

	ev, err := d.decodeEvent()
	if err != nil {
		return types.TimedEvent{}, d.fail(tick, off, err)
	}

	d.tick = tick
	te := types.TimedEvent{
		Tick:   tick,
		Track:  d.index,
		Seq:    d.seq,
		Offset: off,
		Event:  ev,
	}
	d.seq++
	if ev.IsEndOfTrack() {
		d.terminated = true
	}
	return te, nil
}

func (d *Decoder) decodeEvent() (types.Event, error) {
	status, err := d.c.PeekU8("status")
	if err != nil {
		return types.Event{}, err
	}

	switch {
	case status < 0x80:
		if d.running == 0 {
			return types.Event{}, fmt.Errorf("data byte 0x%02X with no running status: %w", status, types.ErrInvalidStatus)
		}
		data, err := d.c.ReadBytes(channelDataLen(d.running), "channel data")
		if err != nil {
			return types.Event{}, err
		}
		return types.Event{Kind: types.KindChannel, Status: d.running, Data: data, Running: true}, nil

	case status < 0xF0:
		if err := d.consumeStatus(); err != nil {
			return types.Event{}, err
		}
		data, err := d.c.ReadBytes(channelDataLen(status), "channel data")
		if err != nil {
			return types.Event{}, err
		}
		d.running = status
		return types.Event{Kind: types.KindChannel, Status: status, Data: data}, nil

	case status == 0xFF:
		if err := d.consumeStatus(); err != nil {
			return types.Event{}, err
		}
		metaType, err := d.c.ReadU8("meta type")
		if err != nil {
			return types.Event{}, err
		}
		data, err := d.readPacket("meta")
		if err != nil {
			return types.Event{}, err
		}
		return types.Event{Kind: types.KindMeta, Status: status, MetaType: metaType, Data: data}, nil

	case status == 0xF0:
		if err := d.consumeStatus(); err != nil {
			return types.Event{}, err
		}
		data, err := d.readPacket("sysex")
		if err != nil {
			return types.Event{}, err
		}
		d.sysexOpen = !terminatesSysEx(data)
		return types.Event{Kind: types.KindSysEx, Status: status, Data: data}, nil

	case status == 0xF7:
		if err := d.consumeStatus(); err != nil {
			return types.Event{}, err
		}
		data, err := d.readPacket("sysex continuation")
		if err != nil {
			return types.Event{}, err
		}
		if !d.sysexOpen {
			return types.Event{Kind: types.KindEscape, Status: status, Data: data}, nil
		}
		d.sysexOpen = !terminatesSysEx(data)
		return types.Event{Kind: types.KindSysExContinuation, Status: status, Data: data}, nil

	default:
		if err := d.consumeStatus(); err != nil {
			return types.Event{}, err
		}
		data, err := d.c.ReadBytes(systemDataLen(status), "system data")
		if err != nil {
			return types.Event{}, err
		}
		return types.Event{Kind: types.KindSystem, Status: status, Data: data}, nil
	}
}

// consumeStatus advances past a status byte already seen with PeekU8.
func (d *Decoder) consumeStatus() error {
	_, err := d.c.ReadU8("status")
	return err
}

// readPacket reads a VLQ length followed by that many bytes.
func (d *Decoder) readPacket(what string) ([]byte, error) {
	n, _, err := vlq.Decode(d.c, what+" length")
	if err != nil {
		return nil, err
	}
	return d.c.ReadBytes(int(n), what+" data")
}

func (d *Decoder) fail(tick uint64, off int64, err error) error {
	if errors.Is(err, types.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: %w", types.ErrTruncatedTrack, err)
	}
	d.err = &types.TrackError{Track: d.index, Tick: tick, Offset: off, Err: err}
	return d.err
}

// All returns an iterator over the remaining events. A decode error is
// yielded once and ends the sequence; events already yielded stay valid.
func (d *Decoder) All() iter.Seq2[types.TimedEvent, error] {
	return func(yield func(types.TimedEvent, error) bool) {
		for {
			ev, err := d.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(types.TimedEvent{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Events decodes chunk from its start.
func Events(sr *binary.SafeReader, chunk types.Chunk, index int) iter.Seq2[types.TimedEvent, error] {
	return func(yield func(types.TimedEvent, error) bool) {
		NewDecoder(sr, chunk, index).All()(yield)
	}
}

func terminatesSysEx(data []byte) bool {
	return len(data) > 0 && data[len(data)-1] == 0xF7
}

func channelDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

// systemDataLen returns the data byte count of a system common or realtime
// status. Undefined statuses carry none.
func systemDataLen(status byte) int {
	switch status {
	case 0xF2:
		return 2
	case 0xF1, 0xF3:
		return 1
	default:
		return 0
	}
}
