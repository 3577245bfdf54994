package smfseek

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/chunk"
	"github.com/simonhull/smfseek/internal/header"
	"github.com/simonhull/smfseek/internal/tempo"
	"github.com/simonhull/smfseek/internal/timeline"
	"github.com/simonhull/smfseek/internal/types"
)

// File is a decoded Standard MIDI File.
//
// Open reads only the chunk layout and the header. Track events are decoded
// lazily each time a sequence is pulled, and each track's seek index is
// built on first use (or during Open with WithEagerIndex).
//
// The source must not change while the File is in use. A File and its
// Tracks are safe for concurrent use.
//
//	f, err := smfseek.Open(data)
//	if err != nil {
//		return err
//	}
//	for ev, err := range f.EventsFrom(1920) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(ev.Tick, ev.Track, ev.Event)
//	}
type File struct {
	// Name identifies the source in errors and logs
	Name string

	// Header is the interpreted MThd chunk
	Header Header

	// Chunks lists every top-level chunk in source order, opaque ones included
	Chunks []Chunk

	// Tracks holds one entry per MTrk chunk, in source order
	Tracks []*Track

	// Warnings encountered while opening (non-fatal issues)
	Warnings []Warning

	// Size is the source length in bytes
	Size int64

	sr       *binary.SafeReader
	options  *openOptions
	playable []*Track

	tempoOnce sync.Once
	tempo     *TempoMap
	tempoErr  error
}

// Open decodes the layout of an in-memory file.
//
// data is shared, not copied: event payloads returned later are sub-slices of
// it and must not be modified.
//
// Open fails with ErrUnknownFormat, ErrTruncatedChunk, ErrMalformedHeader or
// ErrUnsupportedFormat. Problems that do not prevent decoding are reported in
// File.Warnings instead.
//
// Example:
//
//	data, err := os.ReadFile("song.mid")
//	if err != nil {
//		return err
//	}
//	f, err := smfseek.Open(data, smfseek.WithCheckpointEvery(64))
func Open(data []byte, opts ...Option) (*File, error) {
	options := applyOptions(opts)
	return openSource(binary.NewBytesReader(data, options.name), options)
}

// OpenReader decodes the layout of a file behind a random-access source of
// the given size. Event payloads are copied out of r as they are decoded.
func OpenReader(r io.ReaderAt, size int64, opts ...Option) (*File, error) {
	options := applyOptions(opts)
	return openSource(binary.NewSafeReader(r, size, options.name), options)
}

// OpenFile reads the file at path and opens it. The path becomes the
// File's Name unless WithName overrides it.
func OpenFile(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(data, append([]Option{WithName(path)}, opts...)...)
}

// OpenMany opens multiple files concurrently.
//
// Files are read and decoded in parallel using up to runtime.NumCPU()
// goroutines. Results are returned in the same order as the input paths.
// The same options apply to every file.
//
// If any file fails to open, no files are returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := smfseek.OpenMany(ctx, paths, smfseek.WithEagerIndex())
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %d tracks\n", f.Name, len(f.Tracks))
//	}
func OpenMany(ctx context.Context, paths []string, opts ...Option) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			f, err := OpenFile(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func applyOptions(opts []Option) *openOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func openSource(sr *binary.SafeReader, options *openOptions) (*File, error) {
	log := options.logger.With("source", sr.Name())

	chunks, err := chunk.Collect(sr)
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}

	hc := chunks[0]
	payload, err := sr.Span(hc.Start, int(hc.Length), hc.End, "header payload")
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	f := &File{
		Name:    sr.Name(),
		Chunks:  chunks,
		Size:    sr.Size(),
		sr:      sr,
		options: options,
	}

	var unsupported *UnsupportedFormatError
	f.Header, err = header.Parse(sr.Name(), payload)
	switch {
	case errors.As(err, &unsupported) && options.lenientFormat:
		f.Warnings = append(f.Warnings, Warning{
			Stage:   "header",
			Message: fmt.Sprintf("unsupported format %d, playing track 0 only", unsupported.Format),
			Offset:  hc.Start,
		})
	case err != nil:
		return nil, fmt.Errorf("parse header: %w", err)
	}

	for _, c := range chunks[1:] {
		if c.Kind() != types.ChunkTrack {
			log.Debug("skipping opaque chunk", "tag", c.TagString(), "offset", c.Start, "length", c.Length)
			continue
		}
		f.Tracks = append(f.Tracks, newTrack(sr, c, len(f.Tracks), options))
	}

	f.Warnings = append(f.Warnings, header.Warnings(f.Header, len(payload), len(f.Tracks))...)

	f.playable = f.Tracks
	if unsupported != nil && len(f.Tracks) > 1 {
		f.playable = f.Tracks[:1]
	}

	if options.eagerIndex {
		// BuildIndexes fails only on track errors, which are reported per track.
		_ = f.BuildIndexes(context.Background())
		for _, t := range f.Tracks {
			idx, err := t.SeekIndex()
			switch {
			case err != nil:
				f.Warnings = append(f.Warnings, Warning{
					Stage:   "track",
					Message: fmt.Sprintf("track %d decodes only partially: %v", t.Number, err),
					Offset:  t.Chunk.Start,
				})
			case !idx.Terminated():
				f.Warnings = append(f.Warnings, Warning{
					Stage:   "track",
					Message: fmt.Sprintf("track %d has no End-of-Track event", t.Number),
					Offset:  t.Chunk.End,
				})
			}
		}
	}

	for _, w := range f.Warnings {
		log.Warn(w.Message, "stage", w.Stage, "offset", w.Offset)
	}

	if options.strictParsing && len(f.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", f.Warnings[0].Message)
	}
	if options.ignoreWarnings {
		f.Warnings = nil
	}

	log.Debug("opened",
		"format", f.Header.Format,
		"tracks", len(f.Tracks),
		"division", f.Header.Division,
		"chunks", len(chunks))

	return f, nil
}

// Playable returns the tracks that take part in the merged timeline. It is
// every track except when an unsupported format was accepted with
// WithLenientFormat, in which case it is track 0 alone.
func (f *File) Playable() []*Track {
	return f.playable
}

// EventsFrom returns the merged, tick-ordered events of every playable track
// with a tick of at least tick. Simultaneous events are ordered by track
// number, then by their order within the track.
//
// A decode error is yielded in its timeline position and ends the sequence;
// events already yielded remain valid.
func (f *File) EventsFrom(tick uint64) iter.Seq2[TimedEvent, error] {
	seqs := make([]iter.Seq2[TimedEvent, error], len(f.playable))
	for i, t := range f.playable {
		seqs[i] = t.EventsFrom(tick)
	}
	return timeline.Merge(seqs...)
}

// Events returns the merged timeline from the start.
func (f *File) Events() iter.Seq2[TimedEvent, error] {
	return f.EventsFrom(0)
}

// EventsAt returns the merged timeline from the first tick at or after the
// wall-clock offset d.
//
// When a track is damaged the offset is converted with the partial tempo map,
// and the track's error is yielded in its timeline position.
func (f *File) EventsAt(d time.Duration) iter.Seq2[TimedEvent, error] {
	return func(yield func(TimedEvent, error) bool) {
		tm, err := f.TempoMap()
		if tm == nil {
			yield(TimedEvent{}, fmt.Errorf("tempo map: %w", err))
			return
		}
		if err != nil {
			f.options.logger.Warn("seeking with a partial tempo map",
				"source", f.Name,
				"position", d,
				"error", err)
		}
		f.EventsFrom(tm.TickAt(d))(yield)
	}
}

// TempoMap returns the file's tempo map, building it on first call by
// decoding every playable track once.
//
// If a track fails to decode, the map covering the events before the failure
// is returned together with the error.
func (f *File) TempoMap() (*TempoMap, error) {
	f.tempoOnce.Do(func() {
		f.tempo, f.tempoErr = tempo.Build(f.Header.Division, f.Events())
		f.options.logger.Debug("built tempo map",
			"source", f.Name,
			"changes", len(f.tempo.Changes()),
			"error", f.tempoErr)
	})
	return f.tempo, f.tempoErr
}

// Length returns the tick of the last event over every playable track.
func (f *File) Length() (uint64, error) {
	var (
		length uint64
		errs   []error
	)
	for _, t := range f.playable {
		idx, err := t.SeekIndex()
		if err != nil {
			errs = append(errs, err)
		}
		if idx != nil {
			length = max(length, idx.EndTick())
		}
	}
	return length, errors.Join(errs...)
}

// Duration returns the wall-clock length of the file.
func (f *File) Duration() (time.Duration, error) {
	length, err := f.Length()
	if err != nil {
		return 0, err
	}
	tm, err := f.TempoMap()
	if err != nil {
		return 0, err
	}
	return tm.DurationAt(length), nil
}

// BuildIndexes builds the seek index of every track concurrently, using up
// to runtime.NumCPU() goroutines. Tracks whose index is already built are
// skipped.
//
// The first failure cancels tracks that have not started and is returned.
// Tracks that failed keep their partial index.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	if err := f.BuildIndexes(ctx); err != nil {
//		log.Printf("some tracks are damaged: %v", err)
//	}
func (f *File) BuildIndexes(ctx context.Context) error {
	if len(f.Tracks) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, t := range f.Tracks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			_, err := t.SeekIndex()
			return err
		})
	}

	return g.Wait()
}
