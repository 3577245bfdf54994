// Package header interprets the MThd chunk payload.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/simonhull/smfseek/internal/types"
)

// Size is the length of a well-formed MThd payload.
const Size = 6

// Parse decodes an MThd payload.
//
// A payload shorter than Size fails with types.ErrMalformedHeader. A format
// other than 0, 1 or 2 returns the fully populated header together with an
// *types.UnsupportedFormatError, so the caller may still attempt track 0.
// Bytes beyond Size are ignored; Warnings reports them.
func Parse(source string, payload []byte) (types.Header, error) {
	if len(payload) < Size {
		return types.Header{}, &types.CorruptedFileError{
			Source: source,
			Reason: fmt.Sprintf("header payload is %d bytes, need %d", len(payload), Size),
			Kind:   types.ErrMalformedHeader,
		}
	}

	h := types.Header{
		Format:     types.Format(binary.BigEndian.Uint16(payload[0:2])),
		TrackCount: binary.BigEndian.Uint16(payload[2:4]),
		Division:   types.DivisionFromRaw(binary.BigEndian.Uint16(payload[4:6])),
	}

	if !h.Format.Valid() {
		return h, &types.UnsupportedFormatError{Source: source, Format: uint16(h.Format)}
	}
	return h, nil
}

// Warnings validates h against the layout it came from: the raw payload
// length and the number of MTrk chunks that followed it.
func Warnings(h types.Header, payloadLen int, trackChunks int) []types.Warning {
	warnings := h.Validate()

	if payloadLen > Size {
		warnings = append(warnings, types.Warning{
			Stage:   "header",
			Message: fmt.Sprintf("header payload is %d bytes, ignoring %d extra", payloadLen, payloadLen-Size),
		})
	}
	if int(h.TrackCount) != trackChunks {
		warnings = append(warnings, types.Warning{
			Stage:   "chunks",
			Message: fmt.Sprintf("header declares %d tracks, found %d MTrk chunks", h.TrackCount, trackChunks),
		})
	}
	return warnings
}
