package property

import (
	"reflect"
	"sync"

	"databind/primitive"
)

// IndexerName is the descriptor name of every indexer. Change notifications
// for indexed values use IndexerName or IndexerName+"[]".
const IndexerName = "Item"

// Metadata is per-owner-type property metadata.
type Metadata struct {
	BindsTwoWayByDefault bool
}

type (
	getter func(owner any, indices []any) (any, error)
	setter func(owner any, value any, indices []any) error
)

// Descriptor describes one bindable property or indexer.
type Descriptor struct {
	Name         string
	OwnerType    reflect.Type
	PropertyType reflect.Type
	ReadOnly     bool
	Indexer      bool
	KeyTypes     []reflect.Type

	get getter
	set setter

	meta      Metadata
	overrides sync.Map // reflect.Type -> Metadata
}

// Property declares a property of owners of type O holding values of type V.
// O is usually a pointer to a struct or an interface implemented by several
// owner types. A nil set makes the property read-only.
func Property[O, V any](name string, get func(O) V, set func(O, V)) *Descriptor {
	d := &Descriptor{
		Name:         name,
		OwnerType:    reflect.TypeFor[O](),
		PropertyType: reflect.TypeFor[V](),
		ReadOnly:     set == nil,
	}

	d.get = func(owner any, _ []any) (any, error) {
		o, ok := owner.(O)
		if !ok {
			return nil, d.typeError("owner", d.OwnerType, owner)
		}

		return get(o), nil
	}

	if set != nil {
		d.set = func(owner any, value any, _ []any) error {
			o, ok := owner.(O)
			if !ok {
				return d.typeError("owner", d.OwnerType, owner)
			}

			v, err := valueAs[V](d, value)
			if err != nil {
				return err
			}

			set(o, v)

			return nil
		}
	}

	return d
}

// Indexer declares a single-key indexer on owners of type O. A nil set makes
// the indexer read-only.
func Indexer[O, K, V any](get func(O, K) (V, error), set func(O, K, V) error) *Descriptor {
	d := &Descriptor{
		Name:         IndexerName,
		OwnerType:    reflect.TypeFor[O](),
		PropertyType: reflect.TypeFor[V](),
		ReadOnly:     set == nil,
		Indexer:      true,
		KeyTypes:     []reflect.Type{reflect.TypeFor[K]()},
	}

	key := func(indices []any) (K, error) {
		var zero K
		if len(indices) != 1 {
			return zero, ErrIndexArity
		}

		k, ok := indices[0].(K)
		if !ok {
			return zero, d.typeError("index", d.KeyTypes[0], indices[0])
		}

		return k, nil
	}

	d.get = func(owner any, indices []any) (any, error) {
		o, ok := owner.(O)
		if !ok {
			return nil, d.typeError("owner", d.OwnerType, owner)
		}

		k, err := key(indices)
		if err != nil {
			return nil, err
		}

		return get(o, k)
	}

	if set != nil {
		d.set = func(owner any, value any, indices []any) error {
			o, ok := owner.(O)
			if !ok {
				return d.typeError("owner", d.OwnerType, owner)
			}

			k, err := key(indices)
			if err != nil {
				return err
			}

			v, err := valueAs[V](d, value)
			if err != nil {
				return err
			}

			return set(o, k, v)
		}
	}

	return d
}

// TwoWayByDefault marks the property as binding two-way when a binding's
// mode is left at its default.
func (d *Descriptor) TwoWayByDefault() *Descriptor {
	d.meta.BindsTwoWayByDefault = true
	return d
}

// OverrideMetadata replaces the metadata seen by owners of exactly ownerType.
func (d *Descriptor) OverrideMetadata(ownerType reflect.Type, md Metadata) *Descriptor {
	d.overrides.Store(ownerType, md)
	return d
}

// Metadata returns the metadata for the given owner type.
func (d *Descriptor) Metadata(ownerType reflect.Type) Metadata {
	if ownerType != nil {
		if md, ok := d.overrides.Load(ownerType); ok {
			return md.(Metadata)
		}
	}

	return d.meta
}

// GetValue reads the property from owner.
func (d *Descriptor) GetValue(owner any, indices []any) (any, error) {
	return d.get(owner, indices)
}

// SetValue writes value to the property on owner. Read-only properties fail
// with a *ReadOnlyError without reaching the setter.
func (d *Descriptor) SetValue(owner any, value any, indices []any) error {
	if d.ReadOnly || d.set == nil {
		return &ReadOnlyError{Property: d.Name, Owner: reflect.TypeOf(owner)}
	}

	return d.set(owner, value, indices)
}

// Matches reports whether a change notification for name concerns d. An
// empty name means every property changed.
func (d *Descriptor) Matches(name string) bool {
	if name == "" || name == d.Name {
		return true
	}

	return d.Indexer && name == d.Name+"[]"
}

// ConvertIndices converts textual index arguments to the indexer key types.
func (d *Descriptor) ConvertIndices(args []string) ([]any, error) {
	if !d.Indexer {
		return nil, nil
	}

	if len(args) != len(d.KeyTypes) {
		return nil, ErrIndexArity
	}

	res := make([]any, len(args))

	for i, arg := range args {
		v, err := primitive.Coerce(arg, d.KeyTypes[i], primitive.CategoryAll)
		if err != nil {
			return nil, err
		}

		res[i] = v
	}

	return res, nil
}

func (d *Descriptor) typeError(role string, want reflect.Type, got any) error {
	return &TypeError{Property: d.Name, Role: role, Want: want, Got: reflect.TypeOf(got)}
}

func valueAs[V any](d *Descriptor, value any) (V, error) {
	var zero V
	if value == nil {
		return zero, nil
	}

	v, ok := value.(V)
	if !ok {
		return zero, d.typeError("value", d.PropertyType, value)
	}

	return v, nil
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func, chan or
// interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}

	return false
}
