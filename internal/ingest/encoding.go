package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeBytes turns raw sample bytes into text. Partner drops arrive in
// whatever encoding their export tool produced, so this tries a fixed
// ladder: UTF-16 when a byte-order mark says so, then UTF-8 (with or
// without BOM), then Windows-1252, then Latin-1 as a lossy catch-all.
// It never fails; the result carries no BOM and no embedded NULs.
func DecodeBytes(b []byte) string {
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return scrubText(string(out))
		}
	}

	if bytes.HasPrefix(b, utf8BOM) {
		rest := b[len(utf8BOM):]
		if utf8.Valid(rest) {
			return scrubText(string(rest))
		}
	}
	if utf8.Valid(b) {
		return scrubText(string(b))
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(b); err == nil {
		return scrubText(string(out))
	}

	// Latin-1 maps every byte to a code point, so this cannot fail.
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return scrubText(string(out))
}

// scrubText removes NUL characters (left behind when 16-bit text was ever
// read as 8-bit) and any leading byte-order mark that survived decoding.
func scrubText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimPrefix(s, "\uFFFE")
	return s
}
