package store

import "iter"

// KeysOf projects the keys out of seq.
func KeysOf[K comparable, V any](seq iter.Seq2[K, V]) iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range seq {
			if !yield(k) {
				return
			}
		}
	}
}

// ValuesOf projects the values out of seq.
func ValuesOf[K comparable, V any](seq iter.Seq2[K, V]) iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}

// EntriesOf adapts a slice of pairs for bulk construction.
func EntriesOf[K comparable, V any](entries []Entry[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Collect materializes seq.
func Collect[K comparable, V any](seq iter.Seq2[K, V]) []Entry[K, V] {
	out := make([]Entry[K, V], 0)
	for k, v := range seq {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}
