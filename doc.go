// Package smfseek decodes Standard MIDI Files into randomly seekable event
// streams.
//
// smfseek is the decoding layer underneath a synthesizer. It reads the chunk
// layout and header of a file, decodes track events lazily with full
// running-status support, and builds a per-track seek index so playback can
// start at any tick or time offset without decoding from the beginning.
//
// # Quick Start
//
// Decoding a file from memory and playing from the second bar:
//
//	data, err := os.ReadFile("song.mid")
//	if err != nil {
//		log.Fatal(err)
//	}
//	f, err := smfseek.Open(data, smfseek.WithName("song.mid"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("format %d, %d tracks, %s\n", f.Header.Format, len(f.Tracks), f.Header.Division)
//
//	for ev, err := range f.EventsFrom(1920) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(ev.Tick, ev.Track, ev.Event)
//	}
//
// # Architecture
//
// Each stage is a lazy sequence pulled by the next:
//
//	[chunk scanner]   - MThd, MTrk and opaque chunks with their byte spans
//	  ├─ [header]     - format, track count, division
//	  └─ [decoder]    - one per track: delta-times, running status, sysex state
//	       └─ [index] - checkpoints of decoder state every N events or ticks
//	            └─ [merge] - tick-ordered timeline across tracks
//
// Nothing is decoded until a sequence is pulled, and stopping the range loop
// stops decoding. The source is shared read-only by every track, so tracks may
// be decoded from several goroutines at once.
//
// # Seeking
//
// Track.EventsFrom and File.EventsFrom resume decoding at the latest
// checkpoint strictly before the target tick and drop events until the
// target is reached. The result is exactly the events a full decode would
// yield from that tick on. Checkpoint density is set with
// WithCheckpointEvery and WithCheckpointTicks.
//
// File.EventsAt seeks by wall-clock offset through the tempo map, which is
// built from the Set Tempo events of every track.
//
// # Events
//
// Events carry raw bytes. Channel voice messages expose Voice and Channel;
// meta events carry their type and payload; system exclusive packets are
// never concatenated, and an F7 packet reports whether it continues an open
// F0 packet (KindSysExContinuation) or stands alone (KindEscape).
//
// # Error Handling
//
// smfseek distinguishes between fatal errors and warnings:
//
//   - Fatal errors prevent decoding (not a MIDI file, truncated chunk)
//   - Warnings indicate non-fatal issues (track count mismatch, missing End-of-Track)
//
// Errors wrap one of the Err* kinds and can be tested with errors.Is:
//
//	if errors.Is(err, smfseek.ErrTruncatedTrack) {
//		// play what decoded
//	}
//
// A track that fails part-way still yields every event before the damage.
package smfseek
