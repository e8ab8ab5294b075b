package property

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNilRoot     = errors.New("nil root")
	ErrNilValue    = errors.New("nil intermediate value")
	ErrNoProperty  = errors.New("no such property")
	ErrNoIndexer   = errors.New("type has no indexer")
	ErrCollected   = errors.New("object has been collected")
	ErrEmptyPath   = errors.New("empty path")
	ErrIndexRange  = errors.New("index out of range")
	ErrIndexArity  = errors.New("wrong number of index arguments")
	ErrNotSettable = errors.New("value is not settable")
)

// PathError reports a failure to resolve one step of a property path. Path
// errors are fatal to a binding.
type PathError struct {
	Path    string
	Step    int
	Segment string
	Owner   reflect.Type
	Err     error
}

func (e *PathError) Error() string {
	if e.Owner == nil {
		return fmt.Sprintf("property path %q: step %d %q: %v", e.Path, e.Step, e.Segment, e.Err)
	}

	return fmt.Sprintf("property path %q: step %d %q on %v: %v", e.Path, e.Step, e.Segment, e.Owner, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ReadOnlyError is returned when a write targets a read-only property.
type ReadOnlyError struct {
	Property string
	Owner    reflect.Type
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("property %s on %v is read-only", e.Property, e.Owner)
}

// TypeError is returned when a descriptor receives an owner or a value of
// the wrong type.
type TypeError struct {
	Property string
	Role     string // "owner", "value" or "index"
	Want     reflect.Type
	Got      reflect.Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("property %s: %s has type %v, want %v", e.Property, e.Role, e.Got, e.Want)
}
