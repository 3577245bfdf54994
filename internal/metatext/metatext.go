// Package metatext decodes the text-class meta events (types 0x01 to 0x0F).
//
// The file format does not name a character set. Older Japanese files use
// Shift_JIS and many European files use Latin-1, so the caller picks one.
package metatext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/simonhull/smfseek/internal/types"
)

// Text meta event types.
const (
	Text           = 0x01
	Copyright      = 0x02
	TrackName      = 0x03
	InstrumentName = 0x04
	Lyric          = 0x05
	Marker         = 0x06
	CuePoint       = 0x07
	ProgramName    = 0x08
	DeviceName     = 0x09
)

var names = map[byte]string{
	Text:           "text",
	Copyright:      "copyright",
	TrackName:      "track name",
	InstrumentName: "instrument name",
	Lyric:          "lyric",
	Marker:         "marker",
	CuePoint:       "cue point",
	ProgramName:    "program name",
	DeviceName:     "device name",
}

// Name returns a label for a text meta type.
func Name(metaType byte) string {
	if n, ok := names[metaType]; ok {
		return n
	}
	return fmt.Sprintf("text 0x%02X", metaType)
}

// IsText reports whether ev is a text-class meta event.
func IsText(ev types.Event) bool {
	return ev.Kind == types.KindMeta && ev.MetaType >= 0x01 && ev.MetaType <= 0x0F
}

// Decoder converts text payloads to UTF-8.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder returns a decoder for a charset name: "auto", "utf-8",
// "shift_jis" (or "sjis") or "latin1" (or "iso-8859-1").
//
// "auto" passes valid UTF-8 through and falls back to Latin-1.
func NewDecoder(charset string) (*Decoder, error) {
	switch strings.ToLower(charset) {
	case "auto", "":
		return &Decoder{}, nil
	case "utf-8", "utf8":
		return &Decoder{enc: unicode.UTF8}, nil
	case "shift_jis", "shift-jis", "sjis":
		return &Decoder{enc: japanese.ShiftJIS}, nil
	case "latin1", "iso-8859-1":
		return &Decoder{enc: charmap.ISO8859_1}, nil
	case "windows-1252", "cp1252":
		return &Decoder{enc: charmap.Windows1252}, nil
	default:
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}
}

// Decode converts raw text bytes to a UTF-8 string.
func (d *Decoder) Decode(raw []byte) (string, error) {
	enc := d.enc
	if enc == nil {
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		enc = charmap.ISO8859_1
	}
	s, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(s), nil
}

// Event decodes the payload of a text meta event. ok is false for any
// other event.
func (d *Decoder) Event(ev types.Event) (text string, ok bool, err error) {
	if !IsText(ev) {
		return "", false, nil
	}
	text, err = d.Decode(ev.Data)
	return text, true, err
}
