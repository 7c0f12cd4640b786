package wire

import (
	"fmt"

	"golang.org/x/text/encoding"
)

// Serializer encodes and decodes whole messages for one protocol version.
// It holds no per-message state and is safe for concurrent use.
type Serializer struct {
	version  int32
	registry *Registry
	text     textCodec
}

type Option func(*Serializer)

func WithRegistry(r *Registry) Option {
	return func(s *Serializer) { s.registry = r }
}

// WithTextEncoding selects how strings are encoded; UTF-8 when unset.
func WithTextEncoding(enc encoding.Encoding) Option {
	return func(s *Serializer) { s.text = newTextCodec(enc) }
}

func New(version int32, opts ...Option) *Serializer {
	s := &Serializer{
		version:  version,
		registry: Default,
		text:     newTextCodec(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Serializer) Version() int32 { return s.version }

func (s *Serializer) Registry() *Registry { return s.registry }

// SizeOf returns the encoded size of rec under tag, including the tag byte.
// A nil record is just the terminator.
func (s *Serializer) SizeOf(tag byte, rec any) int {
	if isNil(rec) {
		return SizeTag
	}
	c, ok := s.registry.Lookup(tag)
	if !ok {
		return SizeTag
	}
	return SizeTag + c.SizeOf(s, rec)
}

// Marshal encodes rec as a complete message: header plus tagged payload.
func (s *Serializer) Marshal(tag byte, rec any) ([]byte, error) {
	if !isNil(rec) {
		c, ok := s.registry.Lookup(tag)
		if !ok {
			return nil, fmt.Errorf("marshal tag %d: %w", tag, ErrUnknownTag)
		}
		if !c.Accepts(rec) {
			return nil, fmt.Errorf("marshal tag %d: %w: %T", tag, ErrRecordType, rec)
		}
	}

	length := s.SizeOf(tag, rec)
	buf := make([]byte, 0, HeaderSize+length)
	buf = Header{Mark: OrderMark, Version: s.version, Length: int32(length)}.append(buf)

	w := &Writer{s: s, buf: buf}
	w.Record(tag, rec)
	if w.err != nil {
		return nil, fmt.Errorf("marshal tag %d: %w", tag, w.err)
	}
	if len(w.buf) != HeaderSize+length {
		return nil, fmt.Errorf("marshal tag %d: %w: computed %d, wrote %d", tag, ErrBadSize, length, len(w.buf)-HeaderSize)
	}
	return w.buf, nil
}

// ReadHeader parses and validates the header of a message.
func (s *Serializer) ReadHeader(data []byte) (Header, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Header{}, err
	}
	if err := h.Validate(s.version); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Unmarshal decodes one message. The header is checked in full before any
// codec runs; a nil record is returned for a terminator payload.
func (s *Serializer) Unmarshal(data []byte) (byte, any, error) {
	h, err := s.ReadHeader(data)
	if err != nil {
		return 0, nil, fmt.Errorf("unmarshal: %w", err)
	}
	payload := data[HeaderSize:]
	if int(h.Length) != len(payload) {
		return 0, nil, fmt.Errorf("unmarshal: %w: header says %d, have %d", ErrLength, h.Length, len(payload))
	}

	r := &Reader{s: s, buf: payload}
	tag, rec := r.Record()
	if r.err != nil {
		return 0, nil, fmt.Errorf("unmarshal: %w", r.err)
	}
	if r.off != len(payload) {
		return 0, nil, fmt.Errorf("unmarshal tag %d: %w: %d left", tag, ErrTrailingBytes, len(payload)-r.off)
	}
	return tag, rec, nil
}

// SizeString returns the encoded size of a string field.
func (s *Serializer) SizeString(str string) int {
	if str == "" {
		return SizeInt32
	}
	return SizeInt32 + s.text.size(str)
}

// SizeBytes returns the encoded size of a byte array field.
func SizeBytes(b []byte) int {
	return SizeInt32 + len(b)
}

// SizeArray returns the encoded size of an array of n fixed-width elements.
func SizeArray(n, width int) int {
	return SizeInt32 + n*width
}

// SizeList returns the encoded size of a terminator-closed record list.
// Nil elements are skipped, matching WriteList.
func SizeList[T any](s *Serializer, tag byte, items []T) int {
	n := SizeTag
	for _, it := range items {
		if isNil(it) {
			continue
		}
		n += s.SizeOf(tag, it)
	}
	return n
}

// WriteList writes items under tag followed by the terminator.
func WriteList[T any](w *Writer, tag byte, items []T) {
	for _, it := range items {
		if isNil(it) {
			continue
		}
		w.Record(tag, it)
	}
	w.Terminate()
}

// ReadList reads records until the terminator. Every element must decode
// to T; an empty list yields nil.
func ReadList[T any](r *Reader) []T {
	var out []T
	for r.err == nil {
		tag, rec := r.Record()
		if r.err != nil || rec == nil {
			break
		}
		v, ok := rec.(T)
		if !ok {
			r.fail(fmt.Errorf("%w: list element tag %d is %T", ErrRecordType, tag, rec))
			break
		}
		out = append(out, v)
	}
	return out
}
