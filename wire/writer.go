package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer appends big-endian values to a buffer sized up front by
// Serializer.SizeOf. The first failure sticks and later writes are ignored.
type Writer struct {
	s   *Serializer
	buf []byte
	err error
}

func (w *Writer) Serializer() *Serializer { return w.s }

func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) Byte(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) Char(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *Writer) Int32(v int32) { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }

func (w *Writer) Int64(v int64) { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }

func (w *Writer) Float32(v float32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *Writer) Float64(v float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// String writes a length-prefixed string. The empty string has length 0;
// use Null for an absent one.
func (w *Writer) String(v string) {
	if v == "" {
		w.Int32(0)
		return
	}
	b, err := w.s.text.encode(v)
	if err != nil {
		w.fail(err)
		w.Null()
		return
	}
	w.Int32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// Null writes the -1 length that marks an absent string or array.
func (w *Writer) Null() { w.Int32(-1) }

// Bytes writes a length-prefixed byte array; nil is written as -1.
func (w *Writer) Bytes(v []byte) {
	if v == nil {
		w.Null()
		return
	}
	w.Int32(int32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *Writer) Int32s(v []int32) {
	if v == nil {
		w.Null()
		return
	}
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Int32(x)
	}
}

func (w *Writer) Float32s(v []float32) {
	if v == nil {
		w.Null()
		return
	}
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Float32(x)
	}
}

func (w *Writer) Float64s(v []float64) {
	if v == nil {
		w.Null()
		return
	}
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Float64(x)
	}
}

func (w *Writer) Chars(v []uint16) {
	if v == nil {
		w.Null()
		return
	}
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Char(x)
	}
}

// Record writes tag and the record through its registered codec. A nil
// record writes only the terminator.
func (w *Writer) Record(tag byte, rec any) {
	if isNil(rec) {
		w.Terminate()
		return
	}
	c, ok := w.s.registry.Lookup(tag)
	if !ok {
		w.fail(fmt.Errorf("%w: %d", ErrUnknownTag, tag))
		return
	}
	if !c.Accepts(rec) {
		w.fail(fmt.Errorf("%w: tag %d given %T", ErrRecordType, tag, rec))
		return
	}
	w.buf = append(w.buf, tag)
	c.Write(w, rec)
}

func (w *Writer) Terminate() { w.buf = append(w.buf, Terminator) }
