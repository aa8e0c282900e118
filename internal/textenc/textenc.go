// Package textenc resolves the text encoding of uploaded files.  Decoding
// is attempted in a fixed priority order: UTF-8, Shift JIS, then UTF-16
// with a byte-order mark.  The first encoding that decodes cleanly wins.
package textenc

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnsupportedEncoding is returned when the content is valid in none of
// the attempted encodings.
var ErrUnsupportedEncoding = errors.New("unsupported character encoding")

// Supported lists the encoding names tried by Decode, in order.  Surfaced
// to the user in the error response.
var Supported = []string{"UTF-8", "Shift_JIS", "UTF-16 (with BOM)"}

// Decode converts b to a UTF-8 string, trying each supported encoding in
// turn.  It returns the decoded text and the name of the encoding that
// matched.  If every attempt fails it returns ErrUnsupportedEncoding.
func Decode(b []byte) (text string, encoding string, err error) {
	if utf8.Valid(b) {
		return string(b), "UTF-8", nil
	}
	if s, ok := decodeShiftJIS(b); ok {
		return s, "Shift_JIS", nil
	}
	if s, ok := decodeUTF16(b); ok {
		return s, "UTF-16", nil
	}
	return "", "", ErrUnsupportedEncoding
}

// decodeShiftJIS decodes b as Shift JIS.  The x/text decoder substitutes
// U+FFFD for undefined byte sequences instead of failing, so the presence
// of a replacement rune in the output is treated as a decode failure
// (Shift JIS itself cannot encode U+FFFD, so no valid input is rejected).
func decodeShiftJIS(b []byte) (string, bool) {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	s := string(out)
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", false
	}
	return s, true
}

// decodeUTF16 decodes b as UTF-16 with a mandatory BOM.  The BOM selects
// the byte order; content without one is rejected.
func decodeUTF16(b []byte) (string, bool) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", false
	}
	s := string(out)
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", false
	}
	return s, true
}
