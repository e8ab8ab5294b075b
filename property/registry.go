package property

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"databind/internal/match"
	"databind/weakref"
)

// TypeInfo is the static descriptor table of one bindable type.
type TypeInfo struct {
	Type reflect.Type

	mu      sync.RWMutex
	props   map[string]*Descriptor
	indexer *Descriptor
}

var types sync.Map // reflect.Type -> *TypeInfo

// Register installs the descriptor table for *T, replacing any previous
// table. Chains holding *T use typed weak pointers afterwards.
func Register[T any](descs ...*Descriptor) *TypeInfo {
	weakref.Register[T]()

	info := &TypeInfo{
		Type:  reflect.TypeFor[*T](),
		props: make(map[string]*Descriptor),
	}
	info.Add(descs...)

	types.Store(info.Type, info)

	return info
}

// TypeOf returns the registered table for t.
func TypeOf(t reflect.Type) (*TypeInfo, bool) {
	info, ok := types.Load(t)
	if !ok {
		return nil, false
	}

	return info.(*TypeInfo), true
}

// Add declares more descriptors on the type. An indexer descriptor replaces
// the previous indexer.
func (ti *TypeInfo) Add(descs ...*Descriptor) *TypeInfo {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	for _, d := range descs {
		if d.Indexer {
			ti.indexer = d
			continue
		}

		ti.props[d.Name] = d
	}

	return ti
}

// Include copies the descriptors of embedded types that the type does not
// declare itself.
func (ti *TypeInfo) Include(others ...*TypeInfo) *TypeInfo {
	for _, other := range others {
		other.mu.RLock()
		props := maps.Clone(other.props)
		indexer := other.indexer
		other.mu.RUnlock()

		ti.mu.Lock()
		for name, d := range props {
			if _, ok := ti.props[name]; !ok {
				ti.props[name] = d
			}
		}

		if ti.indexer == nil {
			ti.indexer = indexer
		}
		ti.mu.Unlock()
	}

	return ti
}

// Descriptor returns the named property of the type.
func (ti *TypeInfo) Descriptor(name string) (*Descriptor, bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	d, ok := ti.props[name]

	return d, ok
}

// Indexer returns the indexer of the type, if any.
func (ti *TypeInfo) Indexer() (*Descriptor, bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	return ti.indexer, ti.indexer != nil
}

// Names returns the sorted property names of the type.
func (ti *TypeInfo) Names() []string {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	return slices.Sorted(maps.Keys(ti.props))
}

// Lookup finds the named property on the runtime type of owner. Registered
// tables take precedence over reflection.
func Lookup(owner any, name string) (*Descriptor, error) {
	t := reflect.TypeOf(owner)

	info, registered := TypeOf(t)
	if registered {
		if d, ok := info.Descriptor(name); ok {
			return d, nil
		}
	}

	d, err := reflectProperty(t, name)
	if errors.Is(err, ErrNoProperty) && registered {
		if hint, ok := match.Closest(name, info.Names()); ok {
			return nil, fmt.Errorf("%w, did you mean %q?", err, hint)
		}
	}

	return d, err
}

// LookupIndexer finds the indexer on the runtime type of owner.
func LookupIndexer(owner any) (*Descriptor, error) {
	t := reflect.TypeOf(owner)
	if info, ok := TypeOf(t); ok {
		if d, ok := info.Indexer(); ok {
			return d, nil
		}
	}

	return reflectIndexer(t)
}
