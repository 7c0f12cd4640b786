package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader consumes big-endian values from a payload. The first failure
// sticks: later reads return zero values and Err reports the cause.
type Reader struct {
	s   *Serializer
	buf []byte
	off int
	err error
}

func (r *Reader) Serializer() *Serializer { return r.s }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.Remaining() {
		r.fail(fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, r.Remaining()))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Bool() bool {
	b := r.next(SizeBool)
	return b != nil && b[0] != 0
}

func (r *Reader) Byte() byte {
	b := r.next(SizeByte)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Char() uint16 {
	b := r.next(SizeChar)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Int32() int32 {
	b := r.next(SizeInt32)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *Reader) Int64() int64 {
	b := r.next(SizeInt64)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *Reader) Float32() float32 {
	b := r.next(SizeFloat32)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func (r *Reader) Float64() float64 {
	b := r.next(SizeFloat64)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// count reads an array length prefix. It returns -1 for null and checks
// that n elements of width bytes are actually present.
func (r *Reader) count(width int) int {
	n := int(r.Int32())
	if r.err != nil {
		return -1
	}
	if n == -1 {
		return -1
	}
	if n < -1 {
		r.fail(fmt.Errorf("%w: negative length %d at offset %d", ErrMalformed, n, r.off-SizeInt32))
		return -1
	}
	if n*width > r.Remaining() {
		r.fail(fmt.Errorf("%w: %d elements of %d bytes at offset %d, have %d", ErrTruncated, n, width, r.off, r.Remaining()))
		return -1
	}
	return n
}

// String reads a length-prefixed string; null decodes to "".
func (r *Reader) String() string {
	s, _ := r.NullableString()
	return s
}

// NullableString reads a length-prefixed string and reports whether it was
// present. ok is false for the null length and on error.
func (r *Reader) NullableString() (s string, ok bool) {
	n := r.count(1)
	if n < 0 {
		return "", false
	}
	if n == 0 {
		return "", true
	}
	s, err := r.s.text.decode(r.next(n))
	if err != nil {
		r.fail(fmt.Errorf("%w: %w", ErrMalformed, err))
		return "", false
	}
	return s, true
}

func (r *Reader) Bytes() []byte {
	n := r.count(1)
	if n < 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.next(n))
	return out
}

func (r *Reader) Int32s() []int32 {
	n := r.count(SizeInt32)
	if n < 0 {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = r.Int32()
	}
	return out
}

func (r *Reader) Float32s() []float32 {
	n := r.count(SizeFloat32)
	if n < 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()
	}
	return out
}

func (r *Reader) Float64s() []float64 {
	n := r.count(SizeFloat64)
	if n < 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

func (r *Reader) Chars() []uint16 {
	n := r.count(SizeChar)
	if n < 0 {
		return nil
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.Char()
	}
	return out
}

// Record reads a tag and decodes the record behind it. The terminator
// yields (Terminator, nil).
func (r *Reader) Record() (byte, any) {
	tag := r.Byte()
	if r.err != nil {
		return 0, nil
	}
	if tag == Terminator {
		return Terminator, nil
	}
	c, ok := r.s.registry.Lookup(tag)
	if !ok {
		r.fail(fmt.Errorf("%w: %d at offset %d", ErrUnknownTag, tag, r.off-SizeTag))
		return tag, nil
	}
	rec := c.Read(r)
	if r.err != nil {
		return tag, nil
	}
	return tag, rec
}

// RecordOf reads a nested record that must decode to T. A terminator yields
// the zero T.
func RecordOf[T any](r *Reader) T {
	var zero T
	tag, rec := r.Record()
	if r.err != nil || rec == nil {
		return zero
	}
	v, ok := rec.(T)
	if !ok {
		r.fail(fmt.Errorf("%w: nested tag %d is %T", ErrRecordType, tag, rec))
		return zero
	}
	return v
}
