package encoding

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
)

// Codec converts values to and from their serialized form. Key codecs must
// be deterministic and injective: keys encode to equal bytes exactly when
// they are equal. Decode must not retain data; callers may reuse the buffer
// once Decode returns.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// GCoder is a gob Codec. Every value is encoded as a self-contained gob
// stream so the bytes of a value never depend on what was encoded before.
type GCoder[T any] struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

var _ Codec[string] = &GCoder[string]{}

func New[T any]() *GCoder[T] {
	return &GCoder[T]{}
}

func (e *GCoder[T]) Encode(s T) ([]byte, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	defer e.buf.Reset()
	enc := gob.NewEncoder(&e.buf)
	if err := enc.Encode(&s); err != nil {
		return nil, fmt.Errorf("gob encode %T: %w", s, err)
	}
	return bytes.Clone(e.buf.Bytes()), nil
}

func (e *GCoder[T]) Decode(data []byte) (T, error) {
	var target T
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&target); err != nil {
		return target, fmt.Errorf("gob decode %T: %w", target, err)
	}
	return target, nil
}

// Bytes is an identity Codec for []byte values.
type Bytes struct{}

func (Bytes) Encode(v []byte) ([]byte, error)    { return bytes.Clone(v), nil }
func (Bytes) Decode(data []byte) ([]byte, error) { return bytes.Clone(data), nil }

// String encodes strings as their raw bytes, which keeps lexical key order
// in ordered engines.
type String struct{}

func (String) Encode(v string) ([]byte, error)    { return []byte(v), nil }
func (String) Decode(data []byte) (string, error) { return string(data), nil }
