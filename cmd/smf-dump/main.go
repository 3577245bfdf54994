// Command smf-dump prints the structure and events of a Standard MIDI File.
package main

import (
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/simonhull/smfseek"
	"github.com/simonhull/smfseek/internal/logger"
	"github.com/simonhull/smfseek/internal/metatext"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if cfg.showVersion {
		fmt.Fprintln(stdout, smfseek.GetVersionInfo())
		return nil
	}

	log, err := logger.New(cfg.logLevel, stderr)
	if err != nil {
		return err
	}
	text, err := metatext.NewDecoder(cfg.charset)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		return err
	}

	opts := []smfseek.Option{
		smfseek.WithName(cfg.path),
		smfseek.WithLogger(log),
		smfseek.WithLenientFormat(),
	}
	if cfg.checkpointEvery > 0 {
		opts = append(opts, smfseek.WithCheckpointEvery(cfg.checkpointEvery))
	}
	f, err := smfseek.Open(data, opts...)
	if err != nil {
		return err
	}

	printHeader(stdout, f)
	if cfg.chunksOnly {
		return nil
	}

	events, err := selectEvents(f, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	for ev, err := range events {
		if err != nil {
			return err
		}
		printEvent(stdout, ev, text)
	}
	return nil
}

func selectEvents(f *smfseek.File, cfg *config) (iter.Seq2[smfseek.TimedEvent, error], error) {
	if cfg.track >= 0 {
		if cfg.track >= len(f.Tracks) {
			return nil, fmt.Errorf("track %d out of range (file has %d tracks)", cfg.track, len(f.Tracks))
		}
		from := cfg.fromTick
		if cfg.at > 0 {
			tm, err := f.TempoMap()
			if err != nil {
				return nil, err
			}
			from = tm.TickAt(cfg.at)
		}
		return f.Tracks[cfg.track].EventsFrom(from), nil
	}

	if cfg.at > 0 {
		return f.EventsAt(cfg.at), nil
	}
	return f.EventsFrom(cfg.fromTick), nil
}

func printHeader(w io.Writer, f *smfseek.File) {
	fmt.Fprintf(w, "%s (%d bytes)\n", f.Name, f.Size)
	fmt.Fprintf(w, "  format:   %d (%s)\n", uint16(f.Header.Format), f.Header.Format)
	fmt.Fprintf(w, "  tracks:   %d declared, %d found\n", f.Header.TrackCount, len(f.Tracks))
	fmt.Fprintf(w, "  division: %s\n", f.Header.Division)

	if d, err := f.Duration(); err == nil {
		fmt.Fprintf(w, "  duration: %v\n", d)
	}

	fmt.Fprintln(w, "\nchunks:")
	for _, c := range f.Chunks {
		fmt.Fprintf(w, "  %s (%s, size: %d, offset: %d)\n", c.TagString(), c.Kind(), c.Length, c.Start)
	}

	if len(f.Warnings) > 0 {
		fmt.Fprintln(w, "\nwarnings:")
		for _, warn := range f.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
}

func printEvent(w io.Writer, ev smfseek.TimedEvent, text *metatext.Decoder) {
	prefix := fmt.Sprintf("%8d  t%-2d", ev.Tick, ev.Track)

	if s, ok, err := text.Event(ev.Event); ok {
		if err != nil {
			fmt.Fprintf(w, "%s  %s: <undecodable: %v>\n", prefix, metatext.Name(ev.MetaType), err)
			return
		}
		fmt.Fprintf(w, "%s  %s: %q\n", prefix, metatext.Name(ev.MetaType), s)
		return
	}

	if us, ok := ev.TempoMicros(); ok {
		fmt.Fprintf(w, "%s  tempo %d us/quarter (%.2f bpm)\n", prefix, us, 60e6/float64(us))
		return
	}

	running := ""
	if ev.Running {
		running = " (running)"
	}
	fmt.Fprintf(w, "%s  %s%s\n", prefix, ev.Event, running)
}
