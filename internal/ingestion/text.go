package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrNotText is returned by the strict decoder for binary-looking input
	ErrNotText = errors.New("content is not valid UTF-8 text")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// decodePlainText decodes data as UTF-8, replacing invalid sequences with U+FFFD
func decodePlainText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// decodeStrictText decodes data as UTF-8 and fails on invalid sequences or NUL bytes
func decodeStrictText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: contains NUL bytes", ErrNotText)
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

// decodeLegacyText decodes data as ISO-8859-1 and replaces every character
// outside printable ASCII, tab, newline and carriage return with a space.
func decodeLegacyText(data []byte) (string, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode ISO-8859-1: %w", err)
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r >= 0x20 && r <= 0x7E:
			return r
		default:
			return ' '
		}
	}, string(decoded)), nil
}
