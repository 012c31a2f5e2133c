// Package storetest checks that a backing store honors the store contract.
// Every implementation runs the same suite from its own tests.
package storetest

import (
	"fmt"
	"iter"
	"testing"

	"github.com/blong14/ledger/store"
)

// Suite builds the stores under test.
type Suite struct {
	// New returns an empty store.
	New func(t *testing.T) store.Store[string, int]
	// FromSeq bulk-builds a store, last write wins.
	FromSeq func(t *testing.T, seq iter.Seq2[string, int]) store.Store[string, int]
}

type errer interface {
	Err() error
}

// Run executes every contract test against s.
func Run(t *testing.T, s Suite) {
	t.Helper()
	t.Run("insert and get", func(t *testing.T) { testInsertAndGet(t, s) })
	t.Run("overwrite", func(t *testing.T) { testOverwrite(t, s) })
	t.Run("remove absent", func(t *testing.T) { testRemoveAbsent(t, s) })
	t.Run("remove", func(t *testing.T) { testRemove(t, s) })
	t.Run("iter after remove", func(t *testing.T) { testIterAfterRemove(t, s) })
	t.Run("keys and values", func(t *testing.T) { testKeysAndValues(t, s) })
	t.Run("iter restarts", func(t *testing.T) { testIterRestarts(t, s) })
	t.Run("iter stops early", func(t *testing.T) { testIterStopsEarly(t, s) })
	t.Run("bulk last write wins", func(t *testing.T) { testBulkLastWriteWins(t, s) })
	t.Run("empty", func(t *testing.T) { testEmpty(t, s) })
}

// Contents collects every entry of m into a map and fails on duplicates.
func Contents(t *testing.T, m store.MapReader[string, int]) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for k, v := range m.Iter() {
		if _, ok := out[k]; ok {
			t.Errorf("duplicate key %s", k)
		}
		out[k] = v
	}
	checkErr(t, m)
	return out
}

// MustGet fails unless k is present with want.
func MustGet(t *testing.T, m store.MapReader[string, int], k string, want int) {
	t.Helper()
	view, ok, err := m.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("%s not found", k)
	}
	if actual := view.Value(); actual != want {
		t.Errorf("\nwant %d\n got  %d", want, actual)
	}
	found, err := m.ContainsKey(k)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Errorf("%s should be contained", k)
	}
}

// MustBeAbsent fails unless k is missing from m.
func MustBeAbsent(t *testing.T, m store.MapReader[string, int], k string) {
	t.Helper()
	_, ok, err := m.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("%s should be absent", k)
	}
	found, err := m.ContainsKey(k)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Errorf("%s should not be contained", k)
	}
}

func checkErr(t *testing.T, m any) {
	t.Helper()
	if e, ok := m.(errer); ok {
		if err := e.Err(); err != nil {
			t.Fatal(err)
		}
	}
}

func mustInsert(t *testing.T, m store.Map[string, int], k string, v int) {
	t.Helper()
	if err := m.Insert(k, v); err != nil {
		t.Fatal(err)
	}
}

func mustRemove(t *testing.T, m store.Map[string, int], k string) {
	t.Helper()
	if err := m.Remove(k); err != nil {
		t.Fatal(err)
	}
}

func testInsertAndGet(t *testing.T, s Suite) {
	// given
	m := s.New(t)
	keys := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		keys = append(keys, fmt.Sprintf("key%d", i))
	}
	for _, k := range keys {
		MustBeAbsent(t, m, k)
	}

	// when
	for i, k := range keys {
		mustInsert(t, m, k, i)
	}

	// then
	for i, k := range keys {
		MustGet(t, m, k, i)
	}
	MustBeAbsent(t, m, "missing")
}

func testOverwrite(t *testing.T, s Suite) {
	m := s.New(t)
	mustInsert(t, m, "a", 1)
	mustInsert(t, m, "a", 2)
	MustGet(t, m, "a", 2)
	if contents := Contents(t, m); len(contents) != 1 {
		t.Errorf("overwrite should not accumulate, got %v", contents)
	}
}

func testRemoveAbsent(t *testing.T, s Suite) {
	// given
	m := s.New(t)
	mustInsert(t, m, "a", 1)

	// when
	mustRemove(t, m, "missing")
	mustRemove(t, m, "missing")

	// then
	contents := Contents(t, m)
	if len(contents) != 1 || contents["a"] != 1 {
		t.Errorf("store changed: %v", contents)
	}
}

func testRemove(t *testing.T, s Suite) {
	m := s.New(t)
	mustInsert(t, m, "a", 1)
	mustInsert(t, m, "b", 2)
	mustRemove(t, m, "a")
	MustBeAbsent(t, m, "a")
	MustGet(t, m, "b", 2)

	// re-inserting a removed key works
	mustInsert(t, m, "a", 3)
	MustGet(t, m, "a", 3)
}

func testIterAfterRemove(t *testing.T, s Suite) {
	// given
	m := s.New(t)
	mustInsert(t, m, "a", 1)
	mustInsert(t, m, "b", 2)

	// when
	mustRemove(t, m, "a")

	// then
	contents := Contents(t, m)
	if len(contents) != 1 || contents["b"] != 2 {
		t.Errorf("\nwant map[b:2]\n got  %v", contents)
	}
}

func testKeysAndValues(t *testing.T, s Suite) {
	m := s.New(t)
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		mustInsert(t, m, k, v)
	}

	keys := make(map[string]bool)
	for k := range m.Keys() {
		if keys[k] {
			t.Errorf("duplicate key %s", k)
		}
		keys[k] = true
	}
	checkErr(t, m)
	sum := 0
	count := 0
	for v := range m.Values() {
		sum += v
		count++
	}
	checkErr(t, m)

	if len(keys) != len(want) {
		t.Errorf("\nwant %d keys\n got  %d", len(want), len(keys))
	}
	for k := range want {
		if !keys[k] {
			t.Errorf("%s missing from keys", k)
		}
	}
	if count != 3 || sum != 6 {
		t.Errorf("unexpected values: count %d sum %d", count, sum)
	}
}

func testIterRestarts(t *testing.T, s Suite) {
	m := s.New(t)
	mustInsert(t, m, "a", 1)
	first := Contents(t, m)

	mustInsert(t, m, "b", 2)
	second := Contents(t, m)

	if len(first) != 1 {
		t.Errorf("\nwant 1 entry\n got  %v", first)
	}
	if len(second) != 2 {
		t.Errorf("\nwant 2 entries\n got  %v", second)
	}
}

func testIterStopsEarly(t *testing.T, s Suite) {
	m := s.New(t)
	for i := 0; i < 10; i++ {
		mustInsert(t, m, fmt.Sprintf("key%d", i), i)
	}
	count := 0
	for range m.Iter() {
		count++
		if count == 3 {
			break
		}
	}
	checkErr(t, m)
	if count != 3 {
		t.Errorf("\nwant %d\n got  %d", 3, count)
	}
}

func testBulkLastWriteWins(t *testing.T, s Suite) {
	// given
	entries := []store.Entry[string, int]{
		{Key: "a", Value: 1},
		{Key: "a", Value: 2},
		{Key: "b", Value: 3},
	}

	// when
	m := s.FromSeq(t, store.EntriesOf(entries))

	// then
	MustGet(t, m, "a", 2)
	MustGet(t, m, "b", 3)
	if contents := Contents(t, m); len(contents) != 2 {
		t.Errorf("\nwant 2 entries\n got  %v", contents)
	}
}

func testEmpty(t *testing.T, s Suite) {
	m := s.New(t)
	if contents := Contents(t, m); len(contents) != 0 {
		t.Errorf("expected empty store, got %v", contents)
	}
	mustRemove(t, m, "a")
	MustBeAbsent(t, m, "a")

	empty := s.FromSeq(t, store.EntriesOf[string, int](nil))
	if contents := Contents(t, empty); len(contents) != 0 {
		t.Errorf("expected empty store, got %v", contents)
	}
}
