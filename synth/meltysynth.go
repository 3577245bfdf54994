package synth

import (
	"fmt"
	"io"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// NewMeltySynth loads a SoundFont 2 bank and returns a synthesizer rendering
// at sampleRate.
func NewMeltySynth(soundFont io.Reader, sampleRate int) (*meltysynth.Synthesizer, error) {
	sf, err := meltysynth.NewSoundFont(soundFont)
	if err != nil {
		return nil, fmt.Errorf("load soundfont: %w", err)
	}

	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	s, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	return s, nil
}

var _ Synthesizer = (*meltysynth.Synthesizer)(nil)
