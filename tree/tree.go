// Package tree is a minimal ambient tree: elements with parents, a local
// data context inherited by descendants, a live state and lifecycle
// callbacks. Bindings use it to find their implicit source and to know when
// a target is attached.
package tree

import (
	"errors"

	"databind/property"
)

// DataContextProperty is the property name raised when the data context
// seen by an element may have changed.
const DataContextProperty = "DataContext"

// ErrFrozen is returned when watching a frozen element.
var ErrFrozen = errors.New("element is frozen")

// Node is anything placed in an ambient tree.
type Node interface {
	// ParentNode returns the parent, or nil at the root.
	ParentNode() Node
}

// ContextProvider exposes a local data context. A nil context means the
// provider inherits from its ancestors.
type ContextProvider interface {
	DataContext() any
}

// Liveness reports whether a target is attached to a live tree.
type Liveness interface {
	IsLive() bool
}

// Observer is told when a target becomes live or stops being live.
type Observer interface {
	Attached(target any)
	Detached(target any)
}

// Lifecycle is implemented by targets that announce attach and detach.
type Lifecycle interface {
	AddLifecycleObserver(o Observer)
	RemoveLifecycleObserver(o Observer)
}

// AmbientContext walks from node up to the root and returns the first
// non-nil data context.
func AmbientContext(node Node) any {
	for p := range Ancestors(node) {
		if cp, ok := p.(ContextProvider); ok {
			if dc := cp.DataContext(); dc != nil {
				return dc
			}
		}
	}

	return nil
}

// Ancestors yields node itself and then each parent up to the root.
func Ancestors(node Node) func(yield func(Node) bool) {
	return func(yield func(Node) bool) {
		for n := node; !isNilNode(n); n = n.ParentNode() {
			if !yield(n) {
				return
			}
		}
	}
}

func isNilNode(n Node) bool {
	return n == nil || property.IsNil(n)
}
