package property

import (
	"fmt"
	"reflect"
	"sync"
)

type reflectKey struct {
	t    reflect.Type
	name string
}

type reflectEntry struct {
	d   *Descriptor
	err error
}

// reflection descriptors are built once per (type, name)
var reflectCache sync.Map // reflectKey -> reflectEntry

func cached(t reflect.Type, name string, build func() (*Descriptor, error)) (*Descriptor, error) {
	key := reflectKey{t, name}
	if e, ok := reflectCache.Load(key); ok {
		return e.(reflectEntry).d, e.(reflectEntry).err
	}

	d, err := build()
	reflectCache.Store(key, reflectEntry{d, err})

	return d, err
}

func reflectProperty(t reflect.Type, name string) (*Descriptor, error) {
	if t == nil {
		return nil, ErrNoProperty
	}

	return cached(t, name, func() (*Descriptor, error) {
		switch {
		case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
			return structField(t, t.Elem(), name, true)
		case t.Kind() == reflect.Struct:
			return structField(t, t, name, false)
		case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
			return mapEntry(t, name), nil
		}

		return nil, ErrNoProperty
	})
}

func structField(owner, st reflect.Type, name string, settable bool) (*Descriptor, error) {
	field, ok := st.FieldByName(name)
	if !ok || !field.IsExported() {
		return nil, ErrNoProperty
	}

	d := &Descriptor{
		Name:         name,
		OwnerType:    owner,
		PropertyType: field.Type,
		ReadOnly:     !settable,
	}

	fieldOf := func(o any) (reflect.Value, error) {
		rv := reflect.ValueOf(o)
		if rv.Type() != owner {
			return reflect.Value{}, d.typeError("owner", owner, o)
		}

		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, ErrNilValue
			}

			rv = rv.Elem()
		}

		return rv.FieldByIndexErr(field.Index)
	}

	d.get = func(o any, _ []any) (any, error) {
		fv, err := fieldOf(o)
		if err != nil {
			return nil, err
		}

		return fv.Interface(), nil
	}

	if settable {
		d.set = func(o any, value any, _ []any) error {
			fv, err := fieldOf(o)
			if err != nil {
				return err
			}

			return assign(d, fv, value)
		}
	}

	return d, nil
}

func mapEntry(t reflect.Type, name string) *Descriptor {
	d := &Descriptor{
		Name:         name,
		OwnerType:    t,
		PropertyType: t.Elem(),
	}

	key := reflect.ValueOf(name).Convert(t.Key())

	d.get = func(o any, _ []any) (any, error) {
		rv := reflect.ValueOf(o)
		if rv.Type() != t {
			return nil, d.typeError("owner", t, o)
		}

		v := rv.MapIndex(key)
		if !v.IsValid() {
			return nil, nil
		}

		return v.Interface(), nil
	}

	d.set = func(o any, value any, _ []any) error {
		rv := reflect.ValueOf(o)
		if rv.Type() != t {
			return d.typeError("owner", t, o)
		}

		return assignMap(d, rv, key, value)
	}

	return d
}

func reflectIndexer(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, ErrNoIndexer
	}

	return cached(t, IndexerName, func() (*Descriptor, error) {
		c := t
		viaPointer := false

		if c.Kind() == reflect.Pointer {
			c = c.Elem()
			viaPointer = true
		}

		switch c.Kind() {
		case reflect.Slice, reflect.Array:
			return sequenceIndexer(t, c, viaPointer || c.Kind() == reflect.Slice), nil
		case reflect.Map:
			return mapIndexer(t, c, viaPointer), nil
		}

		return nil, ErrNoIndexer
	})
}

func deref(owner reflect.Type, viaPointer bool, o any) (reflect.Value, error) {
	rv := reflect.ValueOf(o)
	if rv.Type() != owner {
		return reflect.Value{}, fmt.Errorf("owner has type %v, want %v", rv.Type(), owner)
	}

	if viaPointer {
		if rv.IsNil() {
			return reflect.Value{}, ErrNilValue
		}

		rv = rv.Elem()
	}

	return rv, nil
}

func sequenceIndexer(owner, seq reflect.Type, settable bool) *Descriptor {
	viaPointer := owner.Kind() == reflect.Pointer

	d := &Descriptor{
		Name:         IndexerName,
		OwnerType:    owner,
		PropertyType: seq.Elem(),
		ReadOnly:     !settable,
		Indexer:      true,
		KeyTypes:     []reflect.Type{reflect.TypeFor[int]()},
	}

	elem := func(o any, indices []any) (reflect.Value, error) {
		rv, err := deref(owner, viaPointer, o)
		if err != nil {
			return reflect.Value{}, err
		}

		if len(indices) != 1 {
			return reflect.Value{}, ErrIndexArity
		}

		i, ok := indices[0].(int)
		if !ok {
			return reflect.Value{}, d.typeError("index", d.KeyTypes[0], indices[0])
		}

		if i < 0 || i >= rv.Len() {
			return reflect.Value{}, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, rv.Len())
		}

		return rv.Index(i), nil
	}

	d.get = func(o any, indices []any) (any, error) {
		ev, err := elem(o, indices)
		if err != nil {
			return nil, err
		}

		return ev.Interface(), nil
	}

	if settable {
		d.set = func(o any, value any, indices []any) error {
			ev, err := elem(o, indices)
			if err != nil {
				return err
			}

			return assign(d, ev, value)
		}
	}

	return d
}

func mapIndexer(owner, m reflect.Type, viaPointer bool) *Descriptor {
	d := &Descriptor{
		Name:         IndexerName,
		OwnerType:    owner,
		PropertyType: m.Elem(),
		Indexer:      true,
		KeyTypes:     []reflect.Type{m.Key()},
	}

	key := func(indices []any) (reflect.Value, error) {
		if len(indices) != 1 {
			return reflect.Value{}, ErrIndexArity
		}

		k := reflect.ValueOf(indices[0])
		if !k.IsValid() || !k.Type().AssignableTo(m.Key()) {
			return reflect.Value{}, d.typeError("index", m.Key(), indices[0])
		}

		return k, nil
	}

	d.get = func(o any, indices []any) (any, error) {
		rv, err := deref(owner, viaPointer, o)
		if err != nil {
			return nil, err
		}

		k, err := key(indices)
		if err != nil {
			return nil, err
		}

		v := rv.MapIndex(k)
		if !v.IsValid() {
			return nil, nil
		}

		return v.Interface(), nil
	}

	d.set = func(o any, value any, indices []any) error {
		rv, err := deref(owner, viaPointer, o)
		if err != nil {
			return err
		}

		k, err := key(indices)
		if err != nil {
			return err
		}

		return assignMap(d, rv, k, value)
	}

	return d
}

func assign(d *Descriptor, dst reflect.Value, value any) error {
	if !dst.CanSet() {
		return ErrNotSettable
	}

	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(dst.Type()) {
		return d.typeError("value", dst.Type(), value)
	}

	dst.Set(v)

	return nil
}

func assignMap(d *Descriptor, m, key reflect.Value, value any) error {
	if m.IsNil() {
		return ErrNotSettable
	}

	if value == nil {
		m.SetMapIndex(key, reflect.Zero(m.Type().Elem()))
		return nil
	}

	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(m.Type().Elem()) {
		return d.typeError("value", m.Type().Elem(), value)
	}

	m.SetMapIndex(key, v)

	return nil
}
