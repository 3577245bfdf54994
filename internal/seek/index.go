// Package seek builds per-track seek indexes.
//
// An Index is an ordered list of decoder checkpoints taken while decoding a
// track once. Seeking to a tick resumes decoding at the latest checkpoint
// strictly before that tick and discards events until the target is reached,
// so the replay cost is bounded by the checkpoint interval.
package seek

import (
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/track"
	"github.com/simonhull/smfseek/internal/types"
)

// DefaultEvery is the default number of events between checkpoints.
const DefaultEvery = 128

// Interval controls checkpoint density. A checkpoint is taken once Events
// events or Ticks ticks have passed since the previous one, whichever comes
// first. A zero field disables that trigger; a zero Interval means
// DefaultInterval.
type Interval struct {
	Events int
	Ticks  uint64
}

// DefaultInterval returns a checkpoint every DefaultEvery events.
func DefaultInterval() Interval {
	return Interval{Events: DefaultEvery}
}

func (iv Interval) due(events int, ticks uint64) bool {
	return (iv.Events > 0 && events >= iv.Events) || (iv.Ticks > 0 && ticks >= iv.Ticks)
}

// Index is an immutable seek index over one track chunk. It is safe for
// concurrent use.
type Index struct {
	sr          *binary.SafeReader
	chunk       types.Chunk
	track       int
	checkpoints []types.Checkpoint

	events     uint64
	endTick    uint64
	terminated bool
}

// Build decodes the whole track once and records checkpoints.
//
// When decoding fails Build returns the index covering every event before the
// failure together with the error, so seeking within the decodable prefix
// still works.
func Build(sr *binary.SafeReader, chunk types.Chunk, trackIndex int, iv Interval) (*Index, error) {
	if iv == (Interval{}) {
		iv = DefaultInterval()
	}

	dec := track.NewDecoder(sr, chunk, trackIndex)
	start := dec.State()
	idx := &Index{
		sr:          sr,
		chunk:       chunk,
		track:       trackIndex,
		checkpoints: []types.Checkpoint{start},
	}

	last := start
	since := 0
	for {
		if since > 0 && !dec.Done() {
			if st := dec.State(); iv.due(since, st.Tick-last.Tick) {
				idx.checkpoints = append(idx.checkpoints, st)
				last = st
				since = 0
			}
		}

		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return idx, err
		}
		since++
		idx.events++
		idx.endTick = ev.Tick
	}

	idx.terminated = dec.Terminated()
	return idx, nil
}

// Track returns the zero-based track number.
func (idx *Index) Track() int {
	return idx.track
}

// Checkpoints returns a copy of the checkpoint list. The first entry is
// always the track start.
func (idx *Index) Checkpoints() []types.Checkpoint {
	return slices.Clone(idx.checkpoints)
}

// Events returns the number of events decoded while building.
func (idx *Index) Events() uint64 {
	return idx.events
}

// EndTick returns the tick of the last decoded event.
func (idx *Index) EndTick() uint64 {
	return idx.endTick
}

// Terminated reports whether the track ended with End-of-Track.
func (idx *Index) Terminated() bool {
	return idx.terminated
}

// Locate returns the latest checkpoint whose tick is strictly less than
// tick, or the track start if there is none.
//
// Every event decoded before a checkpoint has a tick no greater than the
// checkpoint's, so a strict bound guarantees that no event at the target
// tick lies before the returned position.
func (idx *Index) Locate(tick uint64) types.Checkpoint {
	i, _ := slices.BinarySearchFunc(idx.checkpoints, tick, func(cp types.Checkpoint, t uint64) int {
		if cp.Tick < t {
			return -1
		}
		return 1
	})
	if i == 0 {
		return idx.checkpoints[0]
	}
	return idx.checkpoints[i-1]
}

// Seek returns the events with a tick of at least tick, in source order.
//
// Decoding resumes at Locate(tick); events before the target are decoded and
// discarded. Each call uses its own decoder, so concurrent seeks are safe.
func (idx *Index) Seek(tick uint64) iter.Seq2[types.TimedEvent, error] {
	return func(yield func(types.TimedEvent, error) bool) {
		dec := track.NewDecoder(idx.sr, idx.chunk, idx.track)
		if err := dec.Resume(idx.Locate(tick)); err != nil {
			yield(types.TimedEvent{}, fmt.Errorf("seek to tick %d: %w", tick, err))
			return
		}
		for ev, err := range dec.All() {
			if err != nil {
				yield(types.TimedEvent{}, err)
				return
			}
			if ev.Tick < tick {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
