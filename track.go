package smfseek

import (
	"iter"
	"log/slog"
	"sync"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/seek"
	"github.com/simonhull/smfseek/internal/timeline"
	"github.com/simonhull/smfseek/internal/track"
)

// Track is one MTrk chunk of a File.
//
// A Track holds a view of the shared source and, once built, its seek index.
// It never holds the decoded event list; every sequence decodes on demand
// with its own decoder state.
type Track struct {
	// Number is the zero-based index of the track among the MTrk chunks
	Number int

	// Chunk is the track's chunk header
	Chunk Chunk

	sr       *binary.SafeReader
	interval seek.Interval
	logger   *slog.Logger

	once     sync.Once
	index    *SeekIndex
	indexErr error
}

func newTrack(sr *binary.SafeReader, c Chunk, number int, options *openOptions) *Track {
	return &Track{
		Number:   number,
		Chunk:    c,
		sr:       sr,
		interval: options.interval,
		logger:   options.logger,
	}
}

// Events returns the track's events from the start.
func (t *Track) Events() iter.Seq2[TimedEvent, error] {
	return track.Events(t.sr, t.Chunk, t.Number)
}

// EventsFrom returns the track's events with a tick of at least tick.
//
// Decoding resumes at the nearest checkpoint before tick, building the seek
// index first if needed. A track whose index stopped at a decode error can
// still be read up to the damaged event, where the error is yielded.
func (t *Track) EventsFrom(tick uint64) iter.Seq2[TimedEvent, error] {
	if tick == 0 {
		return t.Events()
	}
	return func(yield func(TimedEvent, error) bool) {
		idx, err := t.SeekIndex()
		if idx == nil {
			yield(TimedEvent{}, err)
			return
		}
		idx.Seek(tick)(yield)
	}
}

// SeekIndex returns the track's seek index, building it on first call.
//
// If the track fails to decode, the index covering the events before the
// failure is returned with the error. Both are cached.
func (t *Track) SeekIndex() (*SeekIndex, error) {
	t.once.Do(func() {
		t.index, t.indexErr = seek.Build(t.sr, t.Chunk, t.Number, t.interval)
		log := t.logger.With("source", t.sr.Name(), "track", t.Number)
		if t.indexErr != nil {
			log.Warn("seek index incomplete", "error", t.indexErr)
		}
		if t.indexErr == nil && !t.index.Terminated() {
			log.Warn("track has no End-of-Track event")
		}
		log.Debug("built seek index",
			"events", t.index.Events(),
			"checkpoints", len(t.index.Checkpoints()),
			"end_tick", t.index.EndTick())
	})
	return t.index, t.indexErr
}

// Locate returns the checkpoint a seek to tick resumes from.
func (t *Track) Locate(tick uint64) (Checkpoint, error) {
	idx, err := t.SeekIndex()
	if idx == nil {
		return Checkpoint{}, err
	}
	return idx.Locate(tick), nil
}

// Decode decodes every event of the track into memory. On error it returns
// the events before the failure.
func (t *Track) Decode() ([]TimedEvent, error) {
	return timeline.Collect(t.Events())
}
