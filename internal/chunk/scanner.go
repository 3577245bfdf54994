// Package chunk scans the top-level chunk structure of a Standard MIDI File.
//
// A file is a sequence of chunks, each an ASCII tag and a big-endian 32-bit
// payload length. The first chunk must be MThd. Any other tag than MTrk is
// surfaced as an opaque chunk so callers can skip vendor extensions.
package chunk

import (
	"fmt"
	"iter"

	"github.com/simonhull/smfseek/internal/binary"
	"github.com/simonhull/smfseek/internal/types"
)

// headerSize is the tag plus the length field.
const headerSize = 8

// Scanner reads chunk headers strictly in source order, starting at offset 0.
//
// Use it like bufio.Scanner:
//
//	s := chunk.NewScanner(sr)
//	for s.Next() {
//	    c := s.Chunk()
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	sr    *binary.SafeReader
	c     *binary.Cursor
	cur   types.Chunk
	index int
	err   error
	done  bool
}

// NewScanner creates a Scanner over the whole source.
func NewScanner(sr *binary.SafeReader) *Scanner {
	return &Scanner{sr: sr, c: binary.NewCursor(sr)}
}

// Next advances to the next chunk. It returns false at the end of the source
// or after an error.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	if s.c.Remaining() == 0 {
		s.done = true
		if s.index == 0 {
			s.err = s.unknownFormat(0, "empty source", nil)
		}
		return false
	}

	start := s.c.Position()
	cr := binary.NewChainReader(s.c)
	tag := cr.Bytes(4, "chunk tag")
	length := binary.ReadChained[uint32](cr, "chunk length")
	if err := cr.Error(); err != nil {
		s.done = true
		if s.index == 0 {
			s.err = s.unknownFormat(start, "source shorter than a chunk header", err)
		} else {
			s.err = &types.CorruptedFileError{
				Source: s.sr.Name(),
				Reason: fmt.Sprintf("partial chunk header (%d bytes)", s.c.End()-start),
				Offset: start,
				Kind:   types.ErrTruncatedChunk,
				Err:    err,
			}
		}
		return false
	}

	var c types.Chunk
	copy(c.Tag[:], tag)
	c.Length = length
	c.Start = start + headerSize
	c.End = c.Start + int64(length)

	if s.index == 0 && c.Kind() != types.ChunkHeader {
		s.done = true
		s.err = s.unknownFormat(start, fmt.Sprintf("first chunk is %q, expected \"MThd\"", c.TagString()), nil)
		return false
	}

	if err := s.c.SeekTo(c.End); err != nil {
		s.done = true
		s.err = &types.CorruptedFileError{
			Source: s.sr.Name(),
			Reason: fmt.Sprintf("chunk %q declares %d bytes, only %d remain", c.TagString(), length, s.c.End()-c.Start),
			Offset: start,
			Kind:   types.ErrTruncatedChunk,
			Err:    err,
		}
		return false
	}

	s.cur = c
	s.index++
	return true
}

// Chunk returns the chunk found by the last successful call to Next.
func (s *Scanner) Chunk() types.Chunk {
	return s.cur
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) unknownFormat(off int64, reason string, cause error) error {
	return &types.CorruptedFileError{
		Source: s.sr.Name(),
		Reason: reason,
		Offset: off,
		Kind:   types.ErrUnknownFormat,
		Err:    cause,
	}
}

// All returns an iterator over the chunks of sr. A scan error is yielded
// once, after every chunk that preceded it.
func All(sr *binary.SafeReader) iter.Seq2[types.Chunk, error] {
	return func(yield func(types.Chunk, error) bool) {
		s := NewScanner(sr)
		for s.Next() {
			if !yield(s.Chunk(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(types.Chunk{}, err)
		}
	}
}

// Collect scans every chunk. On error it returns the chunks read so far.
func Collect(sr *binary.SafeReader) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for c, err := range All(sr) {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
