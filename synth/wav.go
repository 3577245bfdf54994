package synth

import (
	"fmt"
	"io"
	"math"

	"github.com/simonhull/smfseek/internal/binary"
)

// WriteWAV encodes stereo float samples as a 16-bit PCM WAV stream.
// Samples outside [-1, 1] are clipped.
func WriteWAV(w io.Writer, sampleRate int, left, right []float32) error {
	if len(left) != len(right) {
		return fmt.Errorf("channel length mismatch: %d and %d", len(left), len(right))
	}

	const (
		channels      = 2
		bitsPerSample = 16
		blockAlign    = channels * bitsPerSample / 8
	)
	dataSize := uint32(len(left) * blockAlign)

	sw := binary.NewSafeWriter(w)
	_ = sw.WriteString("RIFF")
	_ = binary.WriteLE(sw, 36+dataSize)
	_ = sw.WriteString("WAVE")

	_ = sw.WriteString("fmt ")
	_ = binary.WriteLE(sw, uint32(16))
	_ = binary.WriteLE(sw, uint16(1)) // PCM
	_ = binary.WriteLE(sw, uint16(channels))
	_ = binary.WriteLE(sw, uint32(sampleRate))
	_ = binary.WriteLE(sw, uint32(sampleRate*blockAlign))
	_ = binary.WriteLE(sw, uint16(blockAlign))
	_ = binary.WriteLE(sw, uint16(bitsPerSample))

	_ = sw.WriteString("data")
	_ = binary.WriteLE(sw, dataSize)
	for i := range left {
		_ = binary.WriteLE(sw, toPCM16(left[i]))
		_ = binary.WriteLE(sw, toPCM16(right[i]))
	}

	if err := sw.Err(); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

func toPCM16(v float32) int16 {
	v = max(-1, min(1, v))
	return int16(math.Round(float64(v) * math.MaxInt16))
}
