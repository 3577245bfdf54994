// Package synth drives a software synthesizer from a decoded file.
//
// The Sequencer converts event ticks to sample positions through the file's
// tempo map and renders audio between event boundaries. It is an offline
// renderer: the caller asks for blocks of samples and no wall clock is
// involved.
package synth

import (
	"fmt"
	"iter"
	"log/slog"
	"math"
	"time"

	"github.com/simonhull/smfseek"
	"github.com/simonhull/smfseek/internal/logger"
)

// Synthesizer receives channel messages and renders stereo audio.
// *meltysynth.Synthesizer satisfies it.
type Synthesizer interface {
	ProcessMidiMessage(channel, command, data1, data2 int32)
	Render(left, right []float32)
	NoteOffAll(immediate bool)
}

// Sequencer plays a File through a Synthesizer. It is not safe for
// concurrent use.
type Sequencer struct {
	file       *smfseek.File
	synth      Synthesizer
	sampleRate int
	tempo      *smfseek.TempoMap
	logger     *slog.Logger

	origin time.Duration // playback position of sample 0
	sample int64         // samples rendered since origin

	next      func() (smfseek.TimedEvent, error, bool)
	stop      func()
	pending   *smfseek.TimedEvent
	exhausted bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger for dispatch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSequencer creates a sequencer positioned at the start of f.
func NewSequencer(f *smfseek.File, synth Synthesizer, sampleRate int, opts ...Option) (*Sequencer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	tm, tempoErr := f.TempoMap()
	if tm == nil {
		return nil, fmt.Errorf("tempo map: %w", tempoErr)
	}

	s := &Sequencer{
		file:       f,
		synth:      synth,
		sampleRate: sampleRate,
		tempo:      tm,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if tempoErr != nil {
		s.logger.Warn("tempo map is partial", "source", f.Name, "error", tempoErr)
	}
	s.restart(0, f.Events())
	return s, nil
}

func (s *Sequencer) restart(origin time.Duration, events iter.Seq2[smfseek.TimedEvent, error]) {
	if s.stop != nil {
		s.stop()
	}
	s.next, s.stop = iter.Pull2(events)
	s.origin = origin
	s.sample = 0
	s.pending = nil
	s.exhausted = false
}

// Seek silences every voice and moves playback to d. Events are read
// through each track's seek index, so the cost does not grow with d.
func (s *Sequencer) Seek(d time.Duration) {
	d = max(d, 0)
	s.synth.NoteOffAll(true)
	s.restart(d, s.file.EventsAt(d))
	s.logger.Debug("seek", "position", d, "tick", s.tempo.TickAt(d))
}

// Position returns the playback position.
func (s *Sequencer) Position() time.Duration {
	return s.origin + time.Duration(float64(s.sample)*float64(time.Second)/float64(s.sampleRate))
}

// Done reports whether every event has been dispatched.
func (s *Sequencer) Done() bool {
	return s.exhausted && s.pending == nil
}

// Close releases the event sequence.
func (s *Sequencer) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Render fills left and right with the next len(left) samples, dispatching
// every event that falls inside the block at its sample position. Past the
// last event it keeps rendering so that releases ring out.
//
// A decode error stops dispatch and is returned; the block is rendered up to
// the position of the damage.
func (s *Sequencer) Render(left, right []float32) error {
	if len(left) != len(right) {
		return fmt.Errorf("buffer length mismatch: %d and %d", len(left), len(right))
	}

	n := len(left)
	done := 0
	for done < n {
		if s.pending == nil && !s.exhausted {
			ev, err, ok := s.next()
			switch {
			case !ok:
				s.exhausted = true
			case err != nil:
				s.exhausted = true
				s.synth.Render(left[done:], right[done:])
				s.sample += int64(n - done)
				return err
			default:
				s.pending = &ev
			}
		}

		limit := n
		if s.pending != nil {
			at := s.sampleOf(s.pending.Tick)
			if at <= s.sample {
				s.dispatch(*s.pending)
				s.pending = nil
				continue
			}
			limit = min(n, done+int(at-s.sample))
		}

		s.synth.Render(left[done:limit], right[done:limit])
		s.sample += int64(limit - done)
		done = limit
	}
	return nil
}

// sampleOf returns the sample index of tick relative to the origin.
func (s *Sequencer) sampleOf(tick uint64) int64 {
	offset := s.tempo.DurationAt(tick) - s.origin
	return int64(math.Round(offset.Seconds() * float64(s.sampleRate)))
}

func (s *Sequencer) dispatch(ev smfseek.TimedEvent) {
	if ev.Kind != smfseek.KindChannel || len(ev.Data) == 0 {
		return
	}
	var data2 int32
	if len(ev.Data) > 1 {
		data2 = int32(ev.Data[1])
	}
	s.synth.ProcessMidiMessage(int32(ev.Channel()), int32(ev.Voice()), int32(ev.Data[0]), data2)
}
