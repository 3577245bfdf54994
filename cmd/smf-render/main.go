// Command smf-render renders a Standard MIDI File to a WAV file through a
// SoundFont synthesizer.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/simonhull/smfseek"
	"github.com/simonhull/smfseek/internal/logger"
	"github.com/simonhull/smfseek/synth"
)

// Releases keep sounding after the last event.
const tail = 2 * time.Second

type config struct {
	input     string
	soundFont string
	output    string
	rate      int
	at        time.Duration
	length    time.Duration
	logLevel  string
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("smf-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: smf-render -soundfont <bank.sf2> [flags] <file.mid>")
		fs.PrintDefaults()
	}

	cfg := &config{}
	fs.StringVar(&cfg.soundFont, "soundfont", "", "SoundFont 2 bank (required)")
	fs.StringVar(&cfg.output, "o", "out.wav", "output WAV file")
	fs.IntVar(&cfg.rate, "rate", 44100, "sample rate in Hz")
	fs.DurationVar(&cfg.at, "at", 0, "start rendering at this playback time")
	fs.DurationVar(&cfg.length, "for", 0, "render this much audio (0 renders to the end)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.logLevel == "info" {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			cfg.logLevel = strings.ToLower(env)
		}
	}
	if _, err := logger.ParseLevel(cfg.logLevel); err != nil {
		return nil, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one input file")
	}
	cfg.input = fs.Arg(0)

	switch {
	case cfg.soundFont == "":
		return nil, errors.New("-soundfont is required")
	case cfg.rate < 8000 || cfg.rate > 192000:
		return nil, fmt.Errorf("-rate out of range: %d", cfg.rate)
	case cfg.at < 0 || cfg.length < 0:
		return nil, errors.New("-at and -for must be non-negative")
	}
	return cfg, nil
}

func run(args []string, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.logLevel, stderr)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.input)
	if err != nil {
		return err
	}
	f, err := smfseek.Open(data, smfseek.WithName(cfg.input), smfseek.WithLogger(log))
	if err != nil {
		return err
	}

	length := cfg.length
	if length == 0 {
		d, err := f.Duration()
		if err != nil {
			return err
		}
		length = max(d-cfg.at, 0) + tail
	}

	sfFile, err := os.Open(cfg.soundFont)
	if err != nil {
		return err
	}
	defer sfFile.Close()

	synthesizer, err := synth.NewMeltySynth(bufio.NewReader(sfFile), cfg.rate)
	if err != nil {
		return err
	}

	seq, err := synth.NewSequencer(f, synthesizer, cfg.rate, synth.WithLogger(log))
	if err != nil {
		return err
	}
	defer seq.Close()
	if cfg.at > 0 {
		seq.Seek(cfg.at)
	}

	frames := int(length.Seconds() * float64(cfg.rate))
	left, right := make([]float32, frames), make([]float32, frames)
	const block = 4096
	for i := 0; i < frames; i += block {
		end := min(i+block, frames)
		if err := seq.Render(left[i:end], right[i:end]); err != nil {
			log.Warn("playback stopped early", "error", err, "position", seq.Position())
		}
	}

	out, err := os.Create(cfg.output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	if err := synth.WriteWAV(w, cfg.rate, left, right); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	log.Info("rendered", "output", cfg.output, "length", length, "frames", frames)
	return nil
}
