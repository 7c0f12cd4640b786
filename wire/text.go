package wire

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

const replacement = "�"

// LookupEncoding resolves an IANA charset name ("UTF-8", "UTF-16BE", ...).
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("lookup text encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("lookup text encoding %q: not supported", name)
	}
	return enc, nil
}

type textCodec struct {
	enc    encoding.Encoding
	isUTF8 bool
}

func newTextCodec(enc encoding.Encoding) textCodec {
	if enc == nil {
		enc = unicode.UTF8
	}
	return textCodec{enc: enc, isUTF8: enc == unicode.UTF8}
}

// encode returns the wire bytes for str. Invalid UTF-8 is replaced first so
// repeated calls for the same string agree on the length.
func (t textCodec) encode(str string) ([]byte, error) {
	if !utf8.ValidString(str) {
		str = strings.ToValidUTF8(str, replacement)
	}
	if t.isUTF8 {
		return []byte(str), nil
	}
	b, err := t.enc.NewEncoder().Bytes([]byte(str))
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return b, nil
}

func (t textCodec) size(str string) int {
	if t.isUTF8 {
		if utf8.ValidString(str) {
			return len(str)
		}
		return len(strings.ToValidUTF8(str, replacement))
	}
	b, err := t.encode(str)
	if err != nil {
		return 0
	}
	return len(b)
}

func (t textCodec) decode(b []byte) (string, error) {
	if t.isUTF8 {
		return string(b), nil
	}
	out, err := t.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
