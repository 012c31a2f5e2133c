package sorted_test

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/blong14/ledger/store"
	gsorted "github.com/blong14/ledger/store/sorted"
	"github.com/blong14/ledger/store/storetest"
)

func TestMap(t *testing.T) {
	t.Parallel()
	storetest.Run(t, storetest.Suite{
		New: func(_ *testing.T) store.Store[string, int] {
			return gsorted.New[string, int](strings.Compare)
		},
		FromSeq: func(_ *testing.T, seq iter.Seq2[string, int]) store.Store[string, int] {
			return gsorted.FromSeq(strings.Compare, seq)
		},
	})
}

func testOrdered(t *testing.T) {
	t.Parallel()
	// given
	m := gsorted.New[string, int](
		strings.Compare,
		gsorted.WithCapacity[string, int](16),
	)
	keys := []string{
		"key8",
		"key2",
		"key",
		"key5",
		"key3",
		"key10",
		"key7",
		"key12",
		"key6",
		"key9",
		"key4",
		"-",
	}

	// when
	for i, key := range keys {
		_ = m.Insert(key, i)
	}

	// then
	actual := slices.Collect(m.Keys())
	expected := slices.Clone(keys)
	slices.Sort(expected)
	if !slices.Equal(actual, expected) {
		t.Errorf("\nwant %v\n got  %v", expected, actual)
	}
	for i, key := range keys {
		storetest.MustGet(t, m, key, i)
	}
}

func testRemoveKeepsOrder(t *testing.T) {
	t.Parallel()
	m := gsorted.New[int, string](func(a, b int) int { return a - b })
	for i := 9; i >= 0; i-- {
		_ = m.Insert(i, strconv.Itoa(i))
	}
	for _, k := range []int{0, 5, 9, 42} {
		_ = m.Remove(k)
	}
	actual := slices.Collect(m.Keys())
	if !slices.Equal(actual, []int{1, 2, 3, 4, 6, 7, 8}) {
		t.Errorf("unexpected keys %v", actual)
	}
	if m.Len() != 7 {
		t.Errorf("\nwant %d\n got  %d", 7, m.Len())
	}
}

func testClone(t *testing.T) {
	t.Parallel()
	original := gsorted.New[string, int](strings.Compare)
	_ = original.Insert("a", 1)
	_ = original.Insert("b", 2)

	clone := original.Clone()
	_ = clone.Insert("a", 10)
	_ = clone.Remove("b")
	_ = clone.Insert("0", 0)

	if contents := storetest.Contents(t, original); len(contents) != 2 || contents["a"] != 1 {
		t.Errorf("original changed: %v", contents)
	}
	if keys := slices.Collect(clone.Keys()); !slices.Equal(keys, []string{"0", "a"}) {
		t.Errorf("unexpected clone keys %v", keys)
	}
}

func testGetBorrows(t *testing.T) {
	t.Parallel()
	m := gsorted.New[string, int](strings.Compare)
	_ = m.Insert("a", 1)
	view, ok, _ := m.Get("a")
	if !ok || !view.IsBorrowed() {
		t.Fatal("expected a borrowed view")
	}
	_ = m.Insert("a", 2)
	if view.Value() != 1 {
		t.Errorf("\nwant %d\n got  %d", 1, view.Value())
	}
}

func TestSortedMap(t *testing.T) {
	t.Parallel()

	t.Run("ordered", testOrdered)
	t.Run("remove keeps order", testRemoveKeepsOrder)
	t.Run("clone", testClone)
	t.Run("get borrows", testGetBorrows)
}

type bench struct {
	setup func(*testing.B, *gsorted.Map[string, string])
	perG  func(b *testing.B, pb *testing.PB, i int, m *gsorted.Map[string, string])
}

func benchMap(b *testing.B, bench bench) {
	b.Run("sorted map benchmark", func(b *testing.B) {
		m := gsorted.New[string, string](strings.Compare)
		if bench.setup != nil {
			bench.setup(b, m)
		}
		b.ReportAllocs()
		b.ResetTimer()
		var i int64
		b.RunParallel(func(pb *testing.PB) {
			id := int(atomic.AddInt64(&i, 1) - 1)
			bench.perG(b, pb, id*b.N, m)
		})
	})
}

// the map is not safe for concurrent use; callers bring their own lock
func BenchmarkConcurrent_LoadMostlyHits(b *testing.B) {
	const hits, misses = 1023, 1

	var mtx sync.RWMutex
	benchMap(b, bench{
		setup: func(_ *testing.B, m *gsorted.Map[string, string]) {
			for i := 0; i < hits; i++ {
				_ = m.Insert(strconv.Itoa(i), strconv.Itoa(i))
			}
		},
		perG: func(b *testing.B, pb *testing.PB, i int, m *gsorted.Map[string, string]) {
			for ; pb.Next(); i++ {
				mtx.RLock()
				_, _, _ = m.Get(strconv.Itoa(i % (hits + misses)))
				mtx.RUnlock()
			}
		},
	})
}

func BenchmarkConcurrent_InsertOrGetBalanced(b *testing.B) {
	const hits, misses = 1023, 1023

	var mtx sync.RWMutex
	benchMap(b, bench{
		setup: func(_ *testing.B, m *gsorted.Map[string, string]) {
			for i := 0; i < hits; i++ {
				_ = m.Insert(strconv.Itoa(i), strconv.Itoa(i))
			}
		},
		perG: func(b *testing.B, pb *testing.PB, i int, m *gsorted.Map[string, string]) {
			for ; pb.Next(); i++ {
				j := i % (hits + misses)
				if j < hits {
					mtx.RLock()
					_, ok, _ := m.Get(strconv.Itoa(j))
					mtx.RUnlock()
					if !ok {
						b.Fatalf("unexpected miss for key %v", j)
					}
				} else {
					mtx.Lock()
					_ = m.Insert(strconv.Itoa(j), strconv.Itoa(j))
					mtx.Unlock()
				}
			}
		},
	})
}

func BenchmarkConcurrent_Iter(b *testing.B) {
	const mapSize = 1 << 10

	var mtx sync.RWMutex
	benchMap(b, bench{
		setup: func(_ *testing.B, m *gsorted.Map[string, string]) {
			for i := 0; i < mapSize; i++ {
				_ = m.Insert(strconv.Itoa(i), strconv.Itoa(i))
			}
		},
		perG: func(b *testing.B, pb *testing.PB, i int, m *gsorted.Map[string, string]) {
			for ; pb.Next(); i++ {
				mtx.RLock()
				for range m.Iter() {
				}
				mtx.RUnlock()
			}
		},
	})
}
