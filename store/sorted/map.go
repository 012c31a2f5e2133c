package sorted

import (
	"iter"

	"github.com/blong14/ledger/store"
)

type mapEntry[K, V any] struct {
	Key   K
	Value V
}

func newMapEntry[K, V any](k K, v V) *mapEntry[K, V] {
	return &mapEntry[K, V]{
		Key:   k,
		Value: v,
	}
}

type Option[K comparable, V any] func(t *Map[K, V])

// Map is an in-memory store.Store that keeps its entries sorted by key.
// Lookups are binary searches; Iter yields entries in ascending order.
type Map[K comparable, V any] struct {
	impl       []*mapEntry[K, V]
	comparator func(a, b K) int
}

var _ store.Store[string, []byte] = &Map[string, []byte]{}

// New returns a newly created Map ordered by comp
func New[K comparable, V any](comp func(a, b K) int, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		impl:       make([]*mapEntry[K, V], 0, 1024),
		comparator: comp,
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// WithCapacity returns an Option that
// sets the initial capacity of a given Map
func WithCapacity[K comparable, V any](c uint) Option[K, V] {
	return func(m *Map[K, V]) {
		m.impl = make([]*mapEntry[K, V], 0, c)
	}
}

// FromSeq returns a Map holding every pair of seq, last write wins.
func FromSeq[K comparable, V any](comp func(a, b K) int, seq iter.Seq2[K, V], options ...Option[K, V]) *Map[K, V] {
	m := New(comp, options...)
	for k, v := range seq {
		m.set(k, v)
	}
	return m
}

func (m *Map[K, V]) findIndex(key K, low, high int) int {
	if high < low {
		return high + 1
	}
	mid := (low + high) / 2
	entry := m.impl[mid]
	switch comp := m.comparator(key, entry.Key); {
	case comp < 0:
		return m.findIndex(key, low, mid-1)
	case comp == 0:
		return mid
	default:
		return m.findIndex(key, mid+1, high)
	}
}

func (m *Map[K, V]) search(key K) int {
	return m.findIndex(key, 0, m.Len()-1)
}

func (m *Map[K, V]) equalto(key K, i int) bool {
	return i >= 0 && i < m.Len() && m.comparator(key, m.impl[i].Key) == 0
}

func (m *Map[K, V]) insertSort(index int, el *mapEntry[K, V]) {
	m.impl = append(m.impl, nil)
	copy(m.impl[index+1:], m.impl[index:])
	m.impl[index] = el
}

func (m *Map[K, V]) set(key K, value V) {
	last := m.Len() - 1
	if last < 0 || m.comparator(key, m.impl[last].Key) > 0 {
		m.impl = append(m.impl, newMapEntry(key, value))
		return
	}
	index := m.search(key)
	if m.equalto(key, index) {
		// replace the entry so earlier borrowed views keep their value
		m.impl[index] = newMapEntry(key, value)
		return
	}
	m.insertSort(index, newMapEntry(key, value))
}

// Insert sets a key value pair in the map
func (m *Map[K, V]) Insert(key K, value V) error {
	m.set(key, value)
	return nil
}

// Remove removes a key value pair from the map
func (m *Map[K, V]) Remove(key K) error {
	index := m.search(key)
	if !m.equalto(key, index) {
		return nil
	}
	copy(m.impl[index:], m.impl[index+1:])
	m.impl[len(m.impl)-1] = nil
	m.impl = m.impl[:len(m.impl)-1]
	return nil
}

func (m *Map[K, V]) ContainsKey(key K) (bool, error) {
	return m.equalto(key, m.search(key)), nil
}

// Get returns a borrowed view of the value associated with key
func (m *Map[K, V]) Get(key K) (store.View[V], bool, error) {
	index := m.search(key)
	if !m.equalto(key, index) {
		return store.View[V]{}, false, nil
	}
	return store.Borrowed(&m.impl[index].Value), true, nil
}

// Iter walks the entries in ascending key order.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.impl {
			if !yield(e.Key, e.Value) {
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

func (m *Map[K, V]) Clone() *Map[K, V] {
	out := &Map[K, V]{
		impl:       make([]*mapEntry[K, V], len(m.impl), cap(m.impl)),
		comparator: m.comparator,
	}
	for i, e := range m.impl {
		out.impl[i] = newMapEntry(e.Key, store.CloneValue(e.Value))
	}
	return out
}
