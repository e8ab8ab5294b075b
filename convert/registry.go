package convert

import (
	"slices"
	"sync"

	"databind/primitive"
)

// Registry holds named converters so that bindings can refer to them by name.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
	multi      map[string]MultiConverter
}

// NewRegistry creates a registry preloaded with the stock converters:
// "coerce", "format" and "join".
func NewRegistry() *Registry {
	r := &Registry{
		converters: make(map[string]Converter),
		multi:      make(map[string]MultiConverter),
	}

	r.Add("coerce", Coercing{Categories: primitive.CategoryDefault})
	r.Add("format", Format{})
	r.AddMulti("join", Join{Sep: " "})

	return r
}

// Add adds or replaces a converter.
func (r *Registry) Add(name string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.converters[name] = c
}

// AddMulti adds or replaces a multi-value converter.
func (r *Registry) AddMulti(name string, c MultiConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.multi[name] = c
}

// Get returns a converter by name, or nil if not found.
func (r *Registry) Get(name string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.converters[name]
}

// GetMulti returns a multi-value converter by name, or nil if not found.
func (r *Registry) GetMulti(name string) MultiConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.multi[name]
}

// Has returns true if a converter of either kind exists under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.converters[name]
	_, okMulti := r.multi[name]

	return ok || okMulti
}

// Names returns all converter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.converters)+len(r.multi))
	for name := range r.converters {
		names = append(names, name)
	}

	for name := range r.multi {
		names = append(names, name)
	}

	slices.Sort(names)

	return slices.Compact(names)
}
