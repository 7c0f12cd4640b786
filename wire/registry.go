package wire

import (
	"fmt"
	"reflect"
	"sync"
)

// Codec persists one record shape. SizeOf excludes the leading tag byte.
type Codec interface {
	Accepts(rec any) bool
	SizeOf(s *Serializer, rec any) int
	Write(w *Writer, rec any)
	Read(r *Reader) any
}

// Registry maps type tags to codecs. Registration happens once at startup,
// before any message flows.
type Registry struct {
	mu     sync.RWMutex
	codecs [256]Codec
}

// Default is the process-wide registry used by serializers that are not given one.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{}
}

// Register binds tag to c. Registering the same codec twice is a no-op; a
// different codec for a taken tag is an error.
func (r *Registry) Register(tag byte, c Codec) error {
	if tag == Terminator {
		return fmt.Errorf("register tag %d: reserved for the list terminator", tag)
	}
	if c == nil {
		return fmt.Errorf("register tag %d: nil codec", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev := r.codecs[tag]; prev != nil {
		if prev == c {
			return nil
		}
		return fmt.Errorf("register tag %d: %w", tag, ErrDuplicateTag)
	}
	r.codecs[tag] = c
	return nil
}

func (r *Registry) MustRegister(tag byte, c Codec) {
	if err := r.Register(tag, c); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(tag byte) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.codecs[tag]
	return c, c != nil
}

// Tags lists registered tags in ascending order.
func (r *Registry) Tags() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tags []byte
	for i, c := range r.codecs {
		if c != nil {
			tags = append(tags, byte(i))
		}
	}
	return tags
}

type funcCodec[T any] struct {
	size  func(s *Serializer, v *T) int
	write func(w *Writer, v *T)
	read  func(r *Reader) *T
}

// CodecOf builds a codec for records carried as *T.
func CodecOf[T any](size func(s *Serializer, v *T) int, write func(w *Writer, v *T), read func(r *Reader) *T) Codec {
	return &funcCodec[T]{size: size, write: write, read: read}
}

func (c *funcCodec[T]) Accepts(rec any) bool {
	_, ok := rec.(*T)
	return ok
}

func (c *funcCodec[T]) SizeOf(s *Serializer, rec any) int {
	v, ok := rec.(*T)
	if !ok {
		return 0
	}
	return c.size(s, v)
}

func (c *funcCodec[T]) Write(w *Writer, rec any) {
	v, ok := rec.(*T)
	if !ok {
		w.fail(fmt.Errorf("%w: %T", ErrRecordType, rec))
		return
	}
	c.write(w, v)
}

func (c *funcCodec[T]) Read(r *Reader) any {
	v := c.read(r)
	if v == nil {
		return nil
	}
	return v
}

// isNil reports whether rec is nil or a typed nil pointer.
func isNil(rec any) bool {
	if rec == nil {
		return true
	}
	v := reflect.ValueOf(rec)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
