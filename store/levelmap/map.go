// Package levelmap is a backing store that serializes its entries. Keys and
// values are encoded with a Codec and kept in a goleveldb database opened
// over in-memory storage, so Get hands out decoded copies instead of
// references.
package levelmap

import (
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	gencoding "github.com/blong14/ledger/internal/io/encoding"
	glog "github.com/blong14/ledger/internal/logging"
	"github.com/blong14/ledger/store"
)

// ErrKeyType is returned by New when K has no one-to-one gob encoding and no
// key codec was given.
var ErrKeyType = errors.New("levelmap: key type needs an explicit key codec")

type Option[K comparable, V any] func(m *Map[K, V])

// WithKeyCodec replaces the gob key codec. c must be injective as well as
// deterministic: keys encode to equal bytes exactly when they are equal.
func WithKeyCodec[K comparable, V any](c gencoding.Codec[K]) Option[K, V] {
	return func(m *Map[K, V]) {
		m.keys = c
	}
}

func WithValueCodec[K comparable, V any](c gencoding.Codec[V]) Option[K, V] {
	return func(m *Map[K, V]) {
		m.values = c
	}
}

// WithOptions tunes the underlying leveldb instance.
func WithOptions[K comparable, V any](o *opt.Options) Option[K, V] {
	return func(m *Map[K, V]) {
		m.opts = o
	}
}

// Map implements store.Store over goleveldb. Iteration failures end the
// sequence early and are reported by Err.
type Map[K comparable, V any] struct {
	db     *leveldb.DB
	opts   *opt.Options
	keys   gencoding.Codec[K]
	values gencoding.Codec[V]
	err    error
}

var _ store.Store[string, []byte] = &Map[string, []byte]{}

// New opens an empty Map. Keys and values default to gob encoding. Gob
// follows pointers, drops unexported fields and keeps the sign of a float
// zero, so key types holding pointers, interfaces, channels, floats or
// unexported fields are refused with ErrKeyType unless WithKeyCodec is given.
func New[K comparable, V any](options ...Option[K, V]) (*Map[K, V], error) {
	m := &Map[K, V]{
		values: gencoding.New[V](),
	}
	for _, o := range options {
		o(m)
	}
	if m.keys == nil {
		t := reflect.TypeFor[K]()
		if !gobKey(t) {
			return nil, fmt.Errorf("%w: %s", ErrKeyType, t)
		}
		m.keys = gencoding.New[K]()
	}
	db, err := leveldb.Open(storage.NewMemStorage(), m.opts)
	if err != nil {
		return nil, fmt.Errorf("levelmap: open: %w", err)
	}
	m.db = db
	glog.Track("%T opened", m)
	return m, nil
}

// FromSeq opens a Map holding every pair of seq, last write wins.
func FromSeq[K comparable, V any](seq iter.Seq2[K, V], options ...Option[K, V]) (*Map[K, V], error) {
	m, err := New(options...)
	if err != nil {
		return nil, err
	}
	batch := new(leveldb.Batch)
	for k, v := range seq {
		key, value, err := m.encode(k, v)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		batch.Put(key, value)
	}
	if err := m.db.Write(batch, nil); err != nil {
		_ = m.Close()
		return nil, wrap("bulk write", err)
	}
	return m, nil
}

// gobKey reports whether gob encodes values of t one-to-one with ==.
func gobKey(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Interface, reflect.Chan,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return gobKey(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || !gobKey(f.Type) {
				return false
			}
		}
	}
	return true
}

func wrap(op string, err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return fmt.Errorf("levelmap: %s: %w", op, store.ErrClosed)
	}
	return fmt.Errorf("levelmap: %s: %w", op, err)
}

func (m *Map[K, V]) encode(k K, v V) ([]byte, []byte, error) {
	key, err := m.keys.Encode(k)
	if err != nil {
		return nil, nil, fmt.Errorf("levelmap: key: %w", err)
	}
	value, err := m.values.Encode(v)
	if err != nil {
		return nil, nil, fmt.Errorf("levelmap: value: %w", err)
	}
	return key, value, nil
}

func (m *Map[K, V]) Insert(k K, v V) error {
	key, value, err := m.encode(k, v)
	if err != nil {
		return err
	}
	if err := m.db.Put(key, value, nil); err != nil {
		return wrap("insert", err)
	}
	return nil
}

func (m *Map[K, V]) Remove(k K) error {
	key, err := m.keys.Encode(k)
	if err != nil {
		return fmt.Errorf("levelmap: key: %w", err)
	}
	// leveldb treats deleting a missing key as success
	if err := m.db.Delete(key, nil); err != nil {
		return wrap("remove", err)
	}
	return nil
}

func (m *Map[K, V]) ContainsKey(k K) (bool, error) {
	key, err := m.keys.Encode(k)
	if err != nil {
		return false, fmt.Errorf("levelmap: key: %w", err)
	}
	ok, err := m.db.Has(key, nil)
	if err != nil {
		return false, wrap("contains", err)
	}
	return ok, nil
}

// Get decodes the stored value and returns it as an owned view.
func (m *Map[K, V]) Get(k K) (store.View[V], bool, error) {
	key, err := m.keys.Encode(k)
	if err != nil {
		return store.View[V]{}, false, fmt.Errorf("levelmap: key: %w", err)
	}
	data, err := m.db.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return store.View[V]{}, false, nil
	case err != nil:
		return store.View[V]{}, false, wrap("get", err)
	}
	v, err := m.values.Decode(data)
	if err != nil {
		return store.View[V]{}, false, fmt.Errorf("levelmap: value: %w", err)
	}
	return store.Owned(v), true, nil
}

// Iter walks a leveldb iterator, which sees the database as it was when
// ranging starts. Entries come back in encoded key order.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var err error
		defer func() { m.err = err }()
		it := m.db.NewIterator(nil, nil)
		defer it.Release()
		for it.Next() {
			k, kerr := m.keys.Decode(it.Key())
			if kerr != nil {
				err = fmt.Errorf("levelmap: key: %w", kerr)
				return
			}
			v, verr := m.values.Decode(it.Value())
			if verr != nil {
				err = fmt.Errorf("levelmap: value: %w", verr)
				return
			}
			if !yield(k, v) {
				return
			}
		}
		if ierr := it.Error(); ierr != nil {
			err = wrap("iter", ierr)
		}
	}
}

func (m *Map[K, V]) Keys() iter.Seq[K] {
	return store.KeysOf(m.Iter())
}

func (m *Map[K, V]) Values() iter.Seq[V] {
	return store.ValuesOf(m.Iter())
}

// Err returns the error that ended the most recently finished range, if any.
// It is set when a range finishes, so while a range is in progress Err still
// reports the previous one. Nested or interleaved ranges share this result:
// check Err after the outermost loop.
func (m *Map[K, V]) Err() error {
	return m.err
}

func (m *Map[K, V]) Close() error {
	glog.Track("%T closing...", m)
	if err := m.db.Close(); err != nil {
		return wrap("close", err)
	}
	return nil
}
