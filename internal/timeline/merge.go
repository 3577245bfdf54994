// Package timeline merges per-track event sequences into one tick-ordered
// sequence.
package timeline

import (
	"container/heap"
	"iter"

	"github.com/simonhull/smfseek/internal/types"
)

// item is the head of one source sequence.
type item struct {
	ev  types.TimedEvent
	err error
	src int
}

// less orders by tick, then track, then in-track sequence. Errors are keyed at
// the position their source had reached.
func (a item) less(b item) bool {
	if a.ev.Tick != b.ev.Tick {
		return a.ev.Tick < b.ev.Tick
	}
	if a.ev.Track != b.ev.Track {
		return a.ev.Track < b.ev.Track
	}
	if a.ev.Seq != b.ev.Seq {
		return a.ev.Seq < b.ev.Seq
	}
	return a.src < b.src
}

type queue []item

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].less(q[j]) }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)        { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Merge combines tick-ordered sequences into one sequence ordered by
// ascending tick, then ascending track number, then in-track sequence.
// The order is deterministic for identical inputs.
//
// Each source is pulled only when its previous event has been yielded. A
// source error is delivered in its timeline position, after every event that
// sorts before it, and ends the merged sequence.
func Merge(seqs ...iter.Seq2[types.TimedEvent, error]) iter.Seq2[types.TimedEvent, error] {
	return func(yield func(types.TimedEvent, error) bool) {
		nexts := make([]func() (types.TimedEvent, error, bool), len(seqs))
		for i, s := range seqs {
			next, stop := iter.Pull2(s)
			defer stop()
			nexts[i] = next
		}

		// last tracks the key of the most recent event from each source so an
		// error can be placed after it.
		last := make([]types.TimedEvent, len(seqs))
		for i := range last {
			last[i].Track = i
		}

		q := make(queue, 0, len(seqs))
		advance := func(src int) {
			ev, err, ok := nexts[src]()
			if !ok {
				return
			}
			if err != nil {
				key := last[src]
				key.Seq++
				heap.Push(&q, item{ev: key, err: err, src: src})
				return
			}
			last[src] = ev
			heap.Push(&q, item{ev: ev, src: src})
		}

		for i := range seqs {
			advance(i)
		}

		for q.Len() > 0 {
			it := heap.Pop(&q).(item)
			if it.err != nil {
				yield(types.TimedEvent{}, it.err)
				return
			}
			if !yield(it.ev, nil) {
				return
			}
			advance(it.src)
		}
	}
}

// Collect drains seq into a slice. On error it returns the events yielded so far.
func Collect(seq iter.Seq2[types.TimedEvent, error]) ([]types.TimedEvent, error) {
	var events []types.TimedEvent
	for ev, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
