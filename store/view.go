package store

type viewKind uint8

const (
	borrowed viewKind = iota + 1
	owned
)

// View is a value returned by Get. A borrowed view points into the store
// and is only valid until the next mutation; an owned view is a private
// copy produced by stores that decode their values. Callers treat both as
// read-only.
type View[V any] struct {
	kind  viewKind
	ref   *V
	value V
}

// Borrowed returns a view referencing ref.
func Borrowed[V any](ref *V) View[V] {
	return View[V]{kind: borrowed, ref: ref}
}

// Owned returns a view holding its own copy of v.
func Owned[V any](v V) View[V] {
	return View[V]{kind: owned, value: v}
}

func (v View[V]) IsBorrowed() bool { return v.kind == borrowed }
func (v View[V]) IsOwned() bool    { return v.kind == owned }

// Value returns the viewed value. The zero View yields the zero value.
func (v View[V]) Value() V {
	if v.kind == borrowed && v.ref != nil {
		return *v.ref
	}
	return v.value
}
