// Package tempo converts between ticks and wall-clock time.
//
// A Map is built from the Set Tempo meta events of every track. Before the
// first tempo change the tempo is 500000 microseconds per quarter note. When
// several tracks change tempo at the same tick, the highest-numbered track
// wins. SMPTE divisions have a fixed tick length and ignore tempo events.
package tempo

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/simonhull/smfseek/internal/types"
)

// Change is a tempo in effect from Tick onwards. At is the wall-clock
// position of Tick.
type Change struct {
	Tick             uint64
	MicrosPerQuarter uint32
	At               time.Duration
}

// Map is an immutable tempo map. It is safe for concurrent use.
type Map struct {
	div     types.Division
	changes []Change
}

// New returns a map with the default tempo only.
func New(div types.Division) *Map {
	return &Map{
		div:     div,
		changes: []Change{{MicrosPerQuarter: types.DefaultMicrosPerQuarter}},
	}
}

// Build reads tempo events from a tick-ordered merged sequence. It stops at
// the first error and returns it with the map built so far.
func Build(div types.Division, events iter.Seq2[types.TimedEvent, error]) (*Map, error) {
	m := New(div)
	for ev, err := range events {
		if err != nil {
			return m, err
		}
		if us, ok := ev.TempoMicros(); ok {
			m.set(ev.Tick, us)
		}
	}
	return m, nil
}

// set records a tempo change. Ticks must be non-decreasing across calls;
// a change at the same tick as the previous one replaces it. A zero tempo
// is ignored.
func (m *Map) set(tick uint64, micros uint32) {
	if micros == 0 {
		return
	}
	last := &m.changes[len(m.changes)-1]
	if tick == last.Tick {
		last.MicrosPerQuarter = micros
		return
	}
	m.changes = append(m.changes, Change{
		Tick:             tick,
		MicrosPerQuarter: micros,
		At:               last.At + m.span(tick-last.Tick, last.MicrosPerQuarter),
	})
}

// Division returns the division the map was built for.
func (m *Map) Division() types.Division {
	return m.div
}

// Changes returns a copy of the tempo changes, starting with the tempo in
// effect at tick 0.
func (m *Map) Changes() []Change {
	return slices.Clone(m.changes)
}

// tickNanos returns the length of one tick in nanoseconds.
func (m *Map) tickNanos(micros uint32) float64 {
	switch d := m.div.(type) {
	case types.MetricTicks:
		if d == 0 {
			return 0
		}
		return float64(micros) * 1000 / float64(d)
	case types.SMPTE:
		if d.FramesPerSecond == 0 || d.TicksPerFrame == 0 {
			return 0
		}
		fps := float64(d.FramesPerSecond)
		if d.FramesPerSecond == 29 {
			fps = 29.97
		}
		return 1e9 / (fps * float64(d.TicksPerFrame))
	default:
		return 0
	}
}

func (m *Map) span(ticks uint64, micros uint32) time.Duration {
	return time.Duration(math.Round(float64(ticks) * m.tickNanos(micros)))
}

// at returns the index of the change in effect at tick.
func (m *Map) at(tick uint64) int {
	i, found := slices.BinarySearchFunc(m.changes, tick, func(c Change, t uint64) int {
		switch {
		case c.Tick < t:
			return -1
		case c.Tick > t:
			return 1
		default:
			return 0
		}
	})
	if found {
		return i
	}
	return i - 1
}

// MicrosPerQuarterAt returns the tempo in effect at tick.
func (m *Map) MicrosPerQuarterAt(tick uint64) uint32 {
	return m.changes[m.at(tick)].MicrosPerQuarter
}

// DurationAt returns the wall-clock position of tick.
func (m *Map) DurationAt(tick uint64) time.Duration {
	c := m.changes[m.at(tick)]
	return c.At + m.span(tick-c.Tick, c.MicrosPerQuarter)
}

// TickAt returns the first tick whose wall-clock position is at or after d.
// Negative durations map to tick 0.
func (m *Map) TickAt(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	i, found := slices.BinarySearchFunc(m.changes, d, func(c Change, t time.Duration) int {
		switch {
		case c.At < t:
			return -1
		case c.At > t:
			return 1
		default:
			return 0
		}
	})
	if found {
		return m.changes[i].Tick
	}
	c := m.changes[i-1]
	ns := m.tickNanos(c.MicrosPerQuarter)
	if ns == 0 {
		return c.Tick
	}
	// span rounds to the nearest nanosecond; the half-nanosecond slack maps
	// DurationAt(t) back to t.
	ticks := math.Ceil((float64(d-c.At) - 0.5) / ns)
	return c.Tick + uint64(max(ticks, 0))
}
