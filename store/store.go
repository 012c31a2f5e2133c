// Package store defines the key-value contract ledger logic is written
// against. Backing stores implement Map and MapReader; callers hold a Store.
package store

import (
	"errors"
	"iter"
	"reflect"
)

// ErrClosed is returned by backing stores that own resources once they
// have been closed.
var ErrClosed = errors.New("store: closed")

// Map is the write side of a backing store.
type Map[K comparable, V any] interface {
	// Insert associates v with k, overwriting any previous value.
	Insert(k K, v V) error
	// Remove deletes the entry for k. Removing an absent key is not an error.
	Remove(k K) error
}

// MapReader is the read side of a backing store.
type MapReader[K comparable, V any] interface {
	ContainsKey(k K) (bool, error)
	// Get returns the value for k. An absent key yields ok == false and a
	// nil error.
	Get(k K) (view View[V], ok bool, err error)
	// Iter returns a fresh sequence over every entry present when it is
	// called. The order is defined by the backing store.
	Iter() iter.Seq2[K, V]
	Keys() iter.Seq[K]
	Values() iter.Seq[V]
}

type Store[K comparable, V any] interface {
	Map[K, V]
	MapReader[K, V]
}

// Entry is a key-value pair materialized from a store.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Cloner is implemented by values that need more than a shallow copy
// when a store is cloned.
type Cloner[V any] interface {
	Clone() V
}

// CloneValue copies v through Cloner when v implements it. Slices get a new
// backing array holding the same elements; every other value is copied by
// assignment, so maps and pointers inside v are still shared.
func CloneValue[V any](v V) V {
	if c, ok := any(v).(Cloner[V]); ok {
		return c.Clone()
	}
	rv := reflect.ValueOf(any(v))
	if rv.Kind() == reflect.Slice && !rv.IsNil() {
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface().(V)
	}
	return v
}
