// Package weakref provides weak handles and identity keys for objects observed
// by the binding engine.
//
// A Ref never keeps its referent alive. Holding a Ref for every link of a
// resolved property chain is what lets intermediate objects be collected while
// a binding is still active.
package weakref

import (
	"errors"
	"reflect"
	"sync"
	"unsafe"
	"weak"
)

// ErrNotPointer is returned when a weak handle is requested for a value that
// is not a pointer.
var ErrNotPointer = errors.New("weakref: value is not a pointer")

// Ref is a weak handle to an object. The zero Ref stands for nil.
type Ref struct {
	load func() (any, bool)
}

// Value returns the referent. The boolean is false once the referent has been
// collected. The zero Ref reports (nil, true).
func (r Ref) Value() (any, bool) {
	if r.load == nil {
		return nil, true
	}

	return r.load()
}

// IsZero reports whether r was made from nil.
func (r Ref) IsZero() bool {
	return r.load == nil
}

// Make creates a typed weak handle for p.
func Make[T any](p *T) Ref {
	if p == nil {
		return Ref{}
	}

	wp := weak.Make(p)

	return Ref{load: func() (any, bool) {
		v := wp.Value()
		if v == nil {
			return nil, false
		}

		return v, true
	}}
}

// Strong wraps a value that is held directly. It is used for values that own
// no collectable memory of their own.
func Strong(v any) Ref {
	if v == nil {
		return Ref{}
	}

	return Ref{load: func() (any, bool) { return v, true }}
}

var makers sync.Map // reflect.Type -> func(any) Ref

// Register installs a typed maker for *T so that Of uses weak.Make with the
// static type instead of the untyped fallback. Registering twice is harmless.
func Register[T any]() {
	makers.Store(reflect.TypeFor[*T](), func(v any) Ref {
		return Make(v.(*T))
	})
}

// Of creates a weak handle for any pointer value.
func Of(v any) (Ref, error) {
	if v == nil {
		return Ref{}, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return Ref{}, ErrNotPointer
	}

	if rv.IsNil() {
		return Ref{}, nil
	}

	if m, ok := makers.Load(rv.Type()); ok {
		return m.(func(any) Ref)(v), nil
	}

	typ := rv.Type()
	if typ.Elem().Size() == 0 {
		return Strong(v), nil
	}

	wp := weak.Make((*byte)(rv.UnsafePointer()))

	return Ref{load: func() (any, bool) {
		p := wp.Value()
		if p == nil {
			return nil, false
		}

		return reflect.NewAt(typ.Elem(), unsafe.Pointer(p)).Interface(), true
	}}, nil
}

// IsPointer reports whether v holds a non-nil pointer.
func IsPointer(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}
