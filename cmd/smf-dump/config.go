package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/simonhull/smfseek/internal/logger"
)

// config holds the parsed command line.
type config struct {
	path            string
	fromTick        uint64
	at              time.Duration
	track           int
	charset         string
	checkpointEvery int
	logLevel        string
	chunksOnly      bool
	showVersion     bool
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("smf-dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: smf-dump [flags] <file.mid>")
		fs.PrintDefaults()
	}

	cfg := &config{}
	fs.Uint64Var(&cfg.fromTick, "from-tick", 0, "start the event listing at this tick")
	fs.DurationVar(&cfg.at, "at", 0, "start the event listing at this playback time (e.g. 1m30s)")
	fs.IntVar(&cfg.track, "track", -1, "list a single track instead of the merged timeline")
	fs.StringVar(&cfg.charset, "charset", "auto", "text meta event charset (auto, utf-8, shift_jis, latin1, windows-1252)")
	fs.IntVar(&cfg.checkpointEvery, "checkpoint-every", 0, "events between seek checkpoints (0 for the default)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.chunksOnly, "chunks", false, "print the chunk layout only")
	fs.BoolVar(&cfg.showVersion, "version", false, "print version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// The flag wins over the environment.
	if cfg.logLevel == "info" {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			cfg.logLevel = strings.ToLower(env)
		}
	}
	if _, err := logger.ParseLevel(cfg.logLevel); err != nil {
		return nil, err
	}

	if cfg.showVersion {
		return cfg, nil
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one input file")
	}
	cfg.path = fs.Arg(0)

	if cfg.fromTick > 0 && cfg.at > 0 {
		return nil, errors.New("-from-tick and -at are mutually exclusive")
	}
	if cfg.at < 0 {
		return nil, fmt.Errorf("-at must be non-negative, got %v", cfg.at)
	}
	if cfg.checkpointEvery < 0 {
		return nil, fmt.Errorf("-checkpoint-every must be non-negative, got %d", cfg.checkpointEvery)
	}

	return cfg, nil
}
