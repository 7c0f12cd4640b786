// Package wire implements the binary turn-exchange format shared with the
// battle engine: a fixed 12-byte header followed by one tagged record.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// OrderMark is written first so a peer using the other byte order fails fast.
	OrderMark uint32 = 0xC0DEDEA1

	HeaderSize = 12

	// Terminator closes a record list and stands in for a nil record.
	Terminator byte = 0xFF

	SizeBool    = 1
	SizeByte    = 1
	SizeChar    = 2
	SizeInt32   = 4
	SizeFloat32 = 4
	SizeInt64   = 8
	SizeFloat64 = 8
	SizeTag     = 1
)

var (
	ErrOrderMark     = errors.New("wire: byte order mark mismatch")
	ErrVersion       = errors.New("wire: protocol version mismatch")
	ErrLength        = errors.New("wire: payload length mismatch")
	ErrUnknownTag    = errors.New("wire: unregistered type tag")
	ErrRecordType    = errors.New("wire: record does not match tag")
	ErrBadSize       = errors.New("wire: encoded size differs from computed size")
	ErrTruncated     = errors.New("wire: truncated data")
	ErrTrailingBytes = errors.New("wire: trailing bytes after record")
	ErrMalformed     = errors.New("wire: malformed data")
	ErrDuplicateTag  = errors.New("wire: tag already registered")
)

// Header is the fixed prefix of every message.
type Header struct {
	Mark    uint32
	Version int32
	Length  int32
}

// ParseHeader decodes the first HeaderSize bytes of data without validating them.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w: have %d bytes", ErrTruncated, len(data))
	}
	return Header{
		Mark:    binary.BigEndian.Uint32(data[0:4]),
		Version: int32(binary.BigEndian.Uint32(data[4:8])),
		Length:  int32(binary.BigEndian.Uint32(data[8:12])),
	}, nil
}

// Validate checks the header against the expected version.
func (h Header) Validate(version int32) error {
	if h.Mark != OrderMark {
		return fmt.Errorf("%w: got %#x", ErrOrderMark, h.Mark)
	}
	if h.Version != version {
		return fmt.Errorf("%w: got %d, want %d", ErrVersion, h.Version, version)
	}
	if h.Length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrLength, h.Length)
	}
	return nil
}

func (h Header) append(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, h.Mark)
	buf = binary.BigEndian.AppendUint32(buf, uint32(h.Version))
	return binary.BigEndian.AppendUint32(buf, uint32(h.Length))
}

// ParseVersion packs a dotted engine version ("1.9.5.0") into the header
// version field: major<<24 | minor<<16 | revision<<8 | build.
func ParseVersion(s string) (int32, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 4 || parts[0] == "" {
		return 0, fmt.Errorf("parse version %q: want 1 to 4 dotted numbers", s)
	}
	var v int32
	for i := 0; i < 4; i++ {
		n := 0
		if i < len(parts) {
			var err error
			n, err = strconv.Atoi(parts[i])
			if err != nil {
				return 0, fmt.Errorf("parse version %q: %w", s, err)
			}
			if n < 0 || n > 255 {
				return 0, fmt.Errorf("parse version %q: component %d out of range", s, n)
			}
		}
		v = v<<8 | int32(n)
	}
	return v, nil
}
