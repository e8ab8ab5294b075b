package weakref

import (
	"reflect"
	"runtime"
	"weak"
)

// Key is a comparable identity for a pointer value. Two keys made from the
// same pointer compare equal, before and after the object is collected.
// A struct and a field at offset zero share an address but not a key.
type Key struct {
	p weak.Pointer[byte]
	t reflect.Type
}

// KeyOf returns the identity key of v, which must be a non-nil pointer.
func KeyOf(v any) (Key, error) {
	if !IsPointer(v) {
		return Key{}, ErrNotPointer
	}

	rv := reflect.ValueOf(v)

	return Key{p: weak.Make((*byte)(rv.UnsafePointer())), t: rv.Type()}, nil
}

// Alive reports whether the keyed object still exists.
func (k Key) Alive() bool {
	return k.p.Value() != nil
}

// OnCollect arranges for fn to run after v becomes unreachable. v must be a
// non-nil pointer; fn must not reference v.
func OnCollect[S any](v any, fn func(S), arg S) {
	if !IsPointer(v) {
		return
	}

	rv := reflect.ValueOf(v)
	if rv.Type().Elem().Size() == 0 {
		return
	}

	runtime.AddCleanup((*byte)(rv.UnsafePointer()), fn, arg)
}
