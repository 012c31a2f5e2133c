// Package memory is the backing store held entirely in process memory.
// It wraps a Go map and never fails; errors exist only to satisfy the
// store contract.
package memory

import (
	"iter"

	"github.com/blong14/ledger/store"
)

// Map implements store.Store. It is not safe for concurrent use.
type Map[K comparable, V any] struct {
	impl map[K]*V
}

var _ store.Store[string, []byte] = &Map[string, []byte]{}

// New returns an empty Map
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{impl: make(map[K]*V)}
}

// FromSeq returns a Map holding every pair of seq. Later pairs overwrite
// earlier ones with the same key.
func FromSeq[K comparable, V any](seq iter.Seq2[K, V]) *Map[K, V] {
	m := New[K, V]()
	for k, v := range seq {
		m.set(k, v)
	}
	return m
}

func FromEntries[K comparable, V any](entries ...store.Entry[K, V]) *Map[K, V] {
	return FromSeq(store.EntriesOf(entries))
}

// each insert gets its own cell so views handed out earlier keep the old value
func (m *Map[K, V]) set(k K, v V) {
	m.impl[k] = &v
}

func (m *Map[K, V]) Insert(k K, v V) error {
	m.set(k, v)
	return nil
}

func (m *Map[K, V]) Remove(k K) error {
	delete(m.impl, k)
	return nil
}

func (m *Map[K, V]) ContainsKey(k K) (bool, error) {
	_, ok := m.impl[k]
	return ok, nil
}

// Get returns a borrowed view of the stored value.
func (m *Map[K, V]) Get(k K) (store.View[V], bool, error) {
	ref, ok := m.impl[k]
	if !ok {
		return store.View[V]{}, false, nil
	}
	return store.Borrowed(ref), true, nil
}

func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, ref := range m.impl {
			if !yield(k, *ref) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Keys() iter.Seq[K] {
	return store.KeysOf(m.Iter())
}

func (m *Map[K, V]) Values() iter.Seq[V] {
	return store.ValuesOf(m.Iter())
}

// Len returns the number of entries in the map
func (m *Map[K, V]) Len() int { return len(m.impl) }

// Clone copies every entry into a new Map through store.CloneValue.
func (m *Map[K, V]) Clone() *Map[K, V] {
	out := &Map[K, V]{impl: make(map[K]*V, len(m.impl))}
	for k, ref := range m.impl {
		out.set(k, store.CloneValue(*ref))
	}
	return out
}
