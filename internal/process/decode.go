package process

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode converts raw command output to a string. Valid UTF-8 is returned
// as is; anything else is read as ISO-8859-1, which maps every byte to a
// code point and therefore never fails.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
