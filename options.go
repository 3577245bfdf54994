package smfseek

import (
	"log/slog"

	"github.com/simonhull/smfseek/internal/logger"
	"github.com/simonhull/smfseek/internal/seek"
)

// Option configures behavior when opening files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	f, err := smfseek.Open(data,
//	    smfseek.WithCheckpointEvery(64),
//	    smfseek.WithEagerIndex(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	name           string        // Source name for errors and logs
	interval       seek.Interval // Checkpoint density of seek indexes
	eagerIndex     bool          // Build every seek index during Open
	strictParsing  bool          // Fail on any warning
	ignoreWarnings bool          // Suppress all warnings
	lenientFormat  bool          // Accept unknown header formats, play track 0
	logger         *slog.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		name:     "<memory>",
		interval: seek.DefaultInterval(),
		logger:   logger.Discard(),
	}
}

// WithName sets the source name used in errors, warnings and log records.
//
// Default is "<memory>".
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithName("song.mid"))
func WithName(name string) Option {
	return func(o *openOptions) {
		o.name = name
	}
}

// WithCheckpointEvery sets how many events pass between seek index
// checkpoints.
//
// Smaller values make seeks replay fewer events at the cost of a larger
// index. Default is 128. Zero disables the event trigger; if the tick trigger
// is also disabled the default applies.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithCheckpointEvery(32))
func WithCheckpointEvery(n int) Option {
	return func(o *openOptions) {
		o.interval.Events = max(n, 0)
	}
}

// WithCheckpointTicks adds a checkpoint whenever span ticks have passed since
// the previous one, in addition to the event trigger.
//
// This bounds replay for sparse tracks whose events are far apart. Default
// is 0 (disabled).
//
// Example:
//
//	// A checkpoint at least every bar of 4/4 at 480 ticks per quarter note
//	f, err := smfseek.Open(data, smfseek.WithCheckpointTicks(1920))
func WithCheckpointTicks(span uint64) Option {
	return func(o *openOptions) {
		o.interval.Ticks = span
	}
}

// WithEagerIndex builds every track's seek index during Open instead of on
// first seek.
//
// Tracks are indexed concurrently. Decode failures found this way are
// reported as warnings, as are tracks without an End-of-Track event.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithEagerIndex())
//	// f.Warnings lists damaged tracks
func WithEagerIndex() Option {
	return func(o *openOptions) {
		o.eagerIndex = true
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, Open accepts files with structural oddities such as a format 0
// file declaring several tracks, returning warnings alongside the File.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default, warnings about non-fatal issues are collected in
// File.Warnings. This option discards them. They are still logged.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithIgnoreWarnings())
//	// f.Warnings will always be empty
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}

// WithLenientFormat accepts a header format other than 0, 1 or 2.
//
// Such a file opens with a warning and only track 0 takes part in the
// merged timeline. Without this option Open fails with ErrUnsupportedFormat.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithLenientFormat())
func WithLenientFormat() Option {
	return func(o *openOptions) {
		o.lenientFormat = true
	}
}

// WithLogger sets the logger for diagnostics.
//
// Open logs skipped opaque chunks and index statistics at debug level and
// every warning at warn level. Default is a logger that discards everything.
//
// Example:
//
//	f, err := smfseek.Open(data, smfseek.WithLogger(slog.Default()))
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
