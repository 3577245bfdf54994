package seek

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/smftest"
	"github.com/simonhull/smfseek/internal/track"
	"github.com/simonhull/smfseek/internal/types"
)

func trackSource(payload []byte) (*binary.SafeReader, types.Chunk) {
	data := smftest.Chunk("MTrk", payload)
	chunk := types.Chunk{Length: uint32(len(payload)), Start: 8, End: int64(len(data))}
	copy(chunk.Tag[:], "MTrk")
	return binary.NewBytesReader(data, "test.mid"), chunk
}

// buildTrack mixes explicit and running-status channel events with meta,
// system and sysex events so checkpoints land in every decoder state.
func buildTrack(deltas []uint32) []byte {
	tr := smftest.NewTrack()
	for i, d := range deltas {
		switch i % 6 {
		case 0:
			tr.NoteOn(d, byte(i%16), byte(i%128), 100)
		case 1, 2:
			tr.Raw(d, byte(i%128), 64)
		case 3:
			tr.Meta(d, 0x01, byte('a'+i%26))
		case 4:
			tr.SysEx(d, 0xF0, 0x7E, byte(i%128))
		case 5:
			tr.SysEx(d, 0xF7, 0xF7)
		}
	}
	return tr.End(0).Bytes()
}

func decodeAll(t *testing.T, sr *binary.SafeReader, chunk types.Chunk) []types.TimedEvent {
	t.Helper()
	var events []types.TimedEvent
	for ev, err := range track.Events(sr, chunk, 0) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func sameEvent(a, b types.TimedEvent) bool {
	return a.Tick == b.Tick && a.Seq == b.Seq && a.Offset == b.Offset &&
		a.Kind == b.Kind && a.Status == b.Status && a.MetaType == b.MetaType &&
		a.Running == b.Running && bytes.Equal(a.Data, b.Data)
}

func TestBuild_Checkpoints(t *testing.T) {
	deltas := make([]uint32, 20)
	for i := range deltas {
		deltas[i] = 10
	}
	sr, chunk := trackSource(buildTrack(deltas))

	idx, err := Build(sr, chunk, 0, Interval{Events: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cps := idx.Checkpoints()
	// 21 events: checkpoints at start and after events 4, 8, 12, 16, 20.
	if len(cps) != 6 {
		t.Fatalf("expected 6 checkpoints, got %d", len(cps))
	}
	if cps[0].Offset != chunk.Start || cps[0].Tick != 0 || cps[0].RunningStatus != 0 {
		t.Errorf("first checkpoint should be the track start, got %+v", cps[0])
	}
	for i := 1; i < len(cps); i++ {
		if cps[i].Seq != uint64(4*i) {
			t.Errorf("checkpoint %d seq = %d, want %d", i, cps[i].Seq, 4*i)
		}
		if cps[i].Tick != uint64(40*i) {
			t.Errorf("checkpoint %d tick = %d, want %d", i, cps[i].Tick, 40*i)
		}
	}
	if idx.Events() != 21 || idx.EndTick() != 200 || !idx.Terminated() {
		t.Errorf("events=%d end=%d terminated=%v", idx.Events(), idx.EndTick(), idx.Terminated())
	}
}

func TestBuild_TickSpan(t *testing.T) {
	sr, chunk := trackSource(buildTrack([]uint32{0, 0, 50, 0, 200, 10, 10}))

	idx, err := Build(sr, chunk, 0, Interval{Ticks: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cps := idx.Checkpoints()
	if len(cps) != 2 || cps[1].Tick != 250 {
		t.Errorf("expected one checkpoint at tick 250, got %+v", cps)
	}
}

func TestLocate(t *testing.T) {
	idx := &Index{checkpoints: []types.Checkpoint{
		{Tick: 0, Offset: 8},
		{Tick: 100, Offset: 20},
		{Tick: 100, Offset: 30},
		{Tick: 300, Offset: 40},
	}}

	tests := []struct {
		tick       uint64
		wantOffset int64
	}{
		{0, 8},
		{50, 8},
		{100, 8},
		{101, 30},
		{300, 30},
		{301, 40},
		{1 << 40, 40},
	}
	for _, tt := range tests {
		if got := idx.Locate(tt.tick); got.Offset != tt.wantOffset {
			t.Errorf("Locate(%d) offset = %d, want %d", tt.tick, got.Offset, tt.wantOffset)
		}
	}
}

func TestSeek_EventsAtTargetTick(t *testing.T) {
	// Several events share tick 100, straddling a checkpoint.
	payload := smftest.NewTrack().
		NoteOn(100, 0, 60, 100).
		Raw(0, 62, 100).
		Raw(0, 64, 100).
		Raw(0, 67, 100).
		Raw(10, 60, 0).
		End(0).
		Bytes()
	sr, chunk := trackSource(payload)

	idx, err := Build(sr, chunk, 0, Interval{Events: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []types.TimedEvent
	for ev, err := range idx.Seek(100) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ev)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 events from tick 100, got %d", len(got))
	}
	if got[0].Seq != 0 || got[1].Data[0] != 62 || !got[1].Running {
		t.Errorf("unexpected first events %v, %v", got[0], got[1])
	}
}

func TestSeek_PastEnd(t *testing.T) {
	sr, chunk := trackSource(buildTrack([]uint32{1, 2, 3}))
	idx, err := Build(sr, chunk, 0, DefaultInterval())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, err := range idx.Seek(1000) {
		t.Fatalf("expected no events, got err=%v", err)
	}
}

func TestBuild_PartialOnError(t *testing.T) {
	payload := smftest.NewTrack().
		NoteOn(0, 0, 60, 100).
		Raw(10, 61, 100).
		Raw(10, 62, 100).
		Raw(10, 63, 100).
		Bytes()
	payload = append(payload, 0x00, 0x90, 64) // truncated event at tick 30
	sr, chunk := trackSource(payload)

	idx, err := Build(sr, chunk, 0, Interval{Events: 2})
	if !errors.Is(err, types.ErrTruncatedTrack) {
		t.Fatalf("error = %v, want ErrTruncatedTrack", err)
	}
	if idx == nil || idx.Events() != 4 {
		t.Fatalf("expected partial index with 4 events, got %+v", idx)
	}

	var ticks []uint64
	var seekErr error
	for ev, err := range idx.Seek(20) {
		if err != nil {
			seekErr = err
			break
		}
		ticks = append(ticks, ev.Tick)
	}
	if len(ticks) != 2 || ticks[0] != 20 || ticks[1] != 30 {
		t.Errorf("seek within the decodable prefix returned ticks %v", ticks)
	}
	if !errors.Is(seekErr, types.ErrTruncatedTrack) {
		t.Errorf("seek should surface the truncation after the prefix, got %v", seekErr)
	}
}

func TestSeek_EqualsFilter_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("seek(T) yields the filtered suffix", prop.ForAll(
		func(deltas []uint32, every int, span uint64, target uint64) bool {
			sr, chunk := trackSource(buildTrack(deltas))

			var full []types.TimedEvent
			for ev, err := range track.Events(sr, chunk, 0) {
				if err != nil {
					return false
				}
				full = append(full, ev)
			}

			idx, err := Build(sr, chunk, 0, Interval{Events: every, Ticks: span})
			if err != nil {
				return false
			}

			var want []types.TimedEvent
			for _, ev := range full {
				if ev.Tick >= target {
					want = append(want, ev)
				}
			}

			i := 0
			for ev, err := range idx.Seek(target) {
				if err != nil || i >= len(want) || !sameEvent(ev, want[i]) {
					return false
				}
				i++
			}
			return i == len(want)
		},
		gen.SliceOf(gen.UInt32Range(0, 40)),
		gen.IntRange(0, 10),
		gen.UInt64Range(0, 120),
		gen.UInt64Range(0, 1500),
	))

	properties.TestingRun(t)
}

func TestSeek_ConcurrentReaders(t *testing.T) {
	deltas := make([]uint32, 500)
	for i := range deltas {
		deltas[i] = uint32(i % 7)
	}
	sr, chunk := trackSource(buildTrack(deltas))
	idx, err := Build(sr, chunk, 0, Interval{Events: 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := decodeAll(t, sr, chunk)

	done := make(chan bool, 8)
	for g := 0; g < 8; g++ {
		go func(target uint64) {
			ok := true
			var n int
			for ev, err := range idx.Seek(target) {
				if err != nil || ev.Tick < target {
					ok = false
					break
				}
				n++
			}
			var expected int
			for _, ev := range want {
				if ev.Tick >= target {
					expected++
				}
			}
			done <- ok && n == expected
		}(uint64(g * 200))
	}
	for g := 0; g < 8; g++ {
		if !<-done {
			t.Error("concurrent seek returned wrong events")
		}
	}
}

func BenchmarkSeek(b *testing.B) {
	deltas := make([]uint32, 100000)
	for i := range deltas {
		deltas[i] = 5
	}
	sr, chunk := trackSource(buildTrack(deltas))
	idx, err := Build(sr, chunk, 0, DefaultInterval())
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range idx.Seek(uint64(i%100000) * 5) {
			break
		}
	}
}
