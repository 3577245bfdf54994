package synth

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/simonhull/smfseek"
	"github.com/simonhull/smfseek/internal/smftest"
)

// testRate makes one tick one sample at 480 ppq and the default tempo.
const testRate = 960

type message struct {
	sample                         int
	channel, command, data1, data2 int32
}

type fakeSynth struct {
	rendered int
	messages []message
	offs     int
}

func (f *fakeSynth) ProcessMidiMessage(channel, command, data1, data2 int32) {
	f.messages = append(f.messages, message{f.rendered, channel, command, data1, data2})
}

func (f *fakeSynth) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = 0.5, -0.5
	}
	f.rendered += len(left)
}

func (f *fakeSynth) NoteOffAll(immediate bool) {
	if immediate {
		f.offs++
	}
}

func openFixture(t *testing.T, tracks ...*smftest.Track) *smfseek.File {
	t.Helper()
	f, err := smfseek.Open(smftest.File(1, 480, tracks...))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return f
}

func melody() *smftest.Track {
	return smftest.NewTrack().
		NoteOn(0, 0, 60, 100).
		NoteOff(480, 0, 60).
		Raw(0, 0xC3, 5).
		NoteOn(240, 1, 64, 90).
		End(0)
}

func renderAll(t *testing.T, seq *Sequencer, total, block int) {
	t.Helper()
	left, right := make([]float32, block), make([]float32, block)
	for done := 0; done < total; done += block {
		if err := seq.Render(left, right); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
}

func TestSequencer_DispatchesAtSamplePositions(t *testing.T) {
	fs := &fakeSynth{}
	seq, err := NewSequencer(openFixture(t, melody()), fs, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()

	renderAll(t, seq, 1000, 100)

	want := []message{
		{0, 0, 0x90, 60, 100},
		{480, 0, 0x80, 60, 0},
		{480, 3, 0xC0, 5, 0},
		{720, 1, 0x90, 64, 90},
	}
	if len(fs.messages) != len(want) {
		t.Fatalf("expected %d messages, got %d: %+v", len(want), len(fs.messages), fs.messages)
	}
	for i, m := range want {
		if fs.messages[i] != m {
			t.Errorf("message %d: expected %+v, got %+v", i, m, fs.messages[i])
		}
	}

	if !seq.Done() {
		t.Error("sequencer should be done after the last event")
	}
	if fs.rendered != 1000 {
		t.Errorf("expected 1000 rendered samples, got %d", fs.rendered)
	}
	if got := seq.Position(); got != time.Second*1000/testRate {
		t.Errorf("unexpected position %v", got)
	}
}

func TestSequencer_BlockSizeDoesNotMoveEvents(t *testing.T) {
	for _, block := range []int{1, 7, 64, 1000} {
		fs := &fakeSynth{}
		seq, err := NewSequencer(openFixture(t, melody()), fs, testRate)
		if err != nil {
			t.Fatalf("NewSequencer: %v", err)
		}
		renderAll(t, seq, 1000, block)
		seq.Close()

		if len(fs.messages) != 4 || fs.messages[3].sample != 720 {
			t.Errorf("block %d: unexpected messages %+v", block, fs.messages)
		}
	}
}

func TestSequencer_Seek(t *testing.T) {
	fs := &fakeSynth{}
	seq, err := NewSequencer(openFixture(t, melody()), fs, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()

	renderAll(t, seq, 100, 100)
	fs.messages = nil

	seq.Seek(600 * time.Millisecond)
	if fs.offs != 1 {
		t.Errorf("seek should silence voices once, got %d", fs.offs)
	}
	if seq.Position() != 600*time.Millisecond {
		t.Errorf("expected position 600ms, got %v", seq.Position())
	}

	base := fs.rendered
	renderAll(t, seq, 200, 50)

	if len(fs.messages) != 1 {
		t.Fatalf("expected only the note after the seek point, got %+v", fs.messages)
	}
	m := fs.messages[0]
	if m.command != 0x90 || m.data1 != 64 {
		t.Errorf("unexpected message %+v", m)
	}
	// 750ms - 600ms at 960 Hz.
	if m.sample-base != 144 {
		t.Errorf("expected dispatch 144 samples after the seek, got %d", m.sample-base)
	}
	if seq.Position() != 600*time.Millisecond+200*time.Second/testRate {
		t.Errorf("unexpected position %v", seq.Position())
	}
}

func TestSequencer_SkipsNonChannelEvents(t *testing.T) {
	tr := smftest.NewTrack().
		Tempo(0, 500000).
		SysEx(0, 0xF0, 0x7E, 0x7F, 0x09, 0x01, 0xF7).
		Meta(0, 0x03, 'P', 'i', 'a', 'n', 'o').
		NoteOn(0, 9, 36, 127).
		End(10)

	fs := &fakeSynth{}
	seq, err := NewSequencer(openFixture(t, tr), fs, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()
	renderAll(t, seq, 20, 20)

	if len(fs.messages) != 1 || fs.messages[0].channel != 9 {
		t.Errorf("expected one channel 9 message, got %+v", fs.messages)
	}
}

func TestSequencer_DecodeError(t *testing.T) {
	tr := smftest.NewTrack().
		NoteOn(0, 0, 60, 100).
		Raw(100, 0x3C) // running status, velocity cut off

	fs := &fakeSynth{}
	seq, err := NewSequencer(openFixture(t, tr), fs, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()

	left, right := make([]float32, 200), make([]float32, 200)
	err = seq.Render(left, right)
	if !errors.Is(err, smfseek.ErrTruncatedTrack) {
		t.Fatalf("expected ErrTruncatedTrack, got %v", err)
	}
	if len(fs.messages) != 1 {
		t.Errorf("events before the damage should be dispatched, got %+v", fs.messages)
	}
	if fs.rendered != 200 {
		t.Errorf("the block should still be filled, got %d samples", fs.rendered)
	}
	if !seq.Done() {
		t.Error("sequencer should stop after a decode error")
	}
}

func TestSequencer_SeekWithDamagedTrack(t *testing.T) {
	good := smftest.NewTrack().NoteOn(0, 0, 60, 100).NoteOff(480, 0, 60).End(0)
	broken := smftest.NewTrack().NoteOn(960, 1, 64, 90).Raw(0, 0x90)

	fs := &fakeSynth{}
	seq, err := NewSequencer(openFixture(t, good, broken), fs, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()

	seq.Seek(250 * time.Millisecond)
	base := fs.rendered

	left, right := make([]float32, 1000), make([]float32, 1000)
	err = seq.Render(left, right)
	if !errors.Is(err, smfseek.ErrTruncatedTrack) {
		t.Fatalf("expected ErrTruncatedTrack, got %v", err)
	}

	want := []message{
		{base + 240, 0, 0x80, 60, 0},
		{base + 720, 1, 0x90, 64, 90},
	}
	if len(fs.messages) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), fs.messages)
	}
	for i, m := range want {
		if fs.messages[i] != m {
			t.Errorf("message %d: expected %+v, got %+v", i, m, fs.messages[i])
		}
	}
}

func TestSequencer_InvalidArguments(t *testing.T) {
	f := openFixture(t, melody())
	if _, err := NewSequencer(f, &fakeSynth{}, 0); err == nil {
		t.Error("expected error for a zero sample rate")
	}

	seq, err := NewSequencer(f, &fakeSynth{}, testRate)
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	defer seq.Close()
	if err := seq.Render(make([]float32, 2), make([]float32, 3)); err == nil {
		t.Error("expected error for mismatched buffers")
	}
}

func TestWriteWAV(t *testing.T) {
	buf := &bytes.Buffer{}
	left := []float32{0, 1, -1, 2}
	right := []float32{0.5, -0.5, -2, 0}
	if err := WriteWAV(buf, 44100, left, right); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	b := buf.Bytes()
	if len(b) != 44+4*4 {
		t.Fatalf("expected %d bytes, got %d", 44+16, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Errorf("unexpected header % X", b[:44])
	}
	// Second frame: left clipped at +1, right -0.5.
	frame := b[48:52]
	want := []byte{0xFF, 0x7F, 0x00, 0xC0}
	if !bytes.Equal(frame, want) {
		t.Errorf("expected frame % X, got % X", want, frame)
	}

	if err := WriteWAV(buf, 44100, left, right[:1]); err == nil {
		t.Error("expected error for mismatched channels")
	}
}
