package vlq

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/types"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint32
		wantLen int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one byte max", []byte{0x7F}, 0x7F, 1},
		{"two bytes min", []byte{0x81, 0x00}, 0x80, 2},
		{"two bytes", []byte{0xC0, 0x00}, 0x2000, 2},
		{"two bytes max", []byte{0xFF, 0x7F}, 0x3FFF, 2},
		{"three bytes min", []byte{0x81, 0x80, 0x00}, 0x4000, 3},
		{"three bytes max", []byte{0xFF, 0xFF, 0x7F}, 0x1FFFFF, 3},
		{"four bytes min", []byte{0x81, 0x80, 0x80, 0x00}, 0x200000, 4},
		{"four bytes max", []byte{0xFF, 0xFF, 0xFF, 0x7F}, MaxValue, 4},
		{"trailing bytes ignored", []byte{0x83, 0x60, 0x90}, 480, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := binary.NewCursor(binary.NewBytesReader(tt.data, "vlq"))
			got, n, err := Decode(c, "delta")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = 0x%X, want 0x%X", got, tt.want)
			}
			if n != tt.wantLen {
				t.Errorf("length = %d, want %d", n, tt.wantLen)
			}
			if c.Position() != int64(tt.wantLen) {
				t.Errorf("cursor at %d, want %d", c.Position(), tt.wantLen)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, types.ErrUnexpectedEOF},
		{"cut after continuation", []byte{0x81}, types.ErrUnexpectedEOF},
		{"cut after three", []byte{0x81, 0x80, 0x80}, types.ErrUnexpectedEOF},
		{"five bytes", []byte{0x81, 0x80, 0x80, 0x80, 0x00}, types.ErrMalformedVLQ},
		{"endless", bytes.Repeat([]byte{0xFF}, 16), types.ErrMalformedVLQ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := binary.NewCursor(binary.NewBytesReader(tt.data, "vlq"))
			_, _, err := Decode(c, "delta")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			_, _, err = DecodeBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeBytes error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x100000, []byte{0xC0, 0x80, 0x00}},
		{0x1FFFFF, []byte{0xFF, 0xFF, 0x7F}},
		{0x200000, []byte{0x81, 0x80, 0x80, 0x00}},
		{0x8000000, []byte{0xC0, 0x80, 0x80, 0x00}},
		{MaxValue, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		got := Append(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("Append(0x%X) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(append(v)) == v", prop.ForAll(
		func(v uint32) bool {
			enc := Append(nil, v)
			c := binary.NewCursor(binary.NewBytesReader(enc, "vlq"))
			got, n, err := Decode(c, "value")
			return err == nil && got == v && n == len(enc)
		},
		gen.UInt32Range(0, MaxValue),
	))

	properties.Property("length follows magnitude", prop.ForAll(
		func(v uint32) bool {
			n := len(Append(nil, v))
			switch {
			case v < 1<<7:
				return n == 1
			case v < 1<<14:
				return n == 2
			case v < 1<<21:
				return n == 3
			default:
				return n == 4
			}
		},
		gen.UInt32Range(0, MaxValue),
	))

	properties.TestingRun(t)
}

func BenchmarkDecode(b *testing.B) {
	data := Append(nil, MaxValue)
	sr := binary.NewBytesReader(data, "bench")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := binary.NewCursor(sr)
		_, _, _ = Decode(c, "delta")
	}
}
