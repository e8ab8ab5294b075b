package binding

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"databind/property"
)

var (
	// ErrNoConverter is returned when a MultiBinding has no converter.
	ErrNoConverter = errors.New("multi binding has no converter")
	// ErrCollected is reported when a chain object or the target has been
	// collected while the binding was active.
	ErrCollected = property.ErrCollected
)

// UpdateError wraps a failure to move a value between source and target.
type UpdateError struct {
	// Direction is "source" or "target": the side being written.
	Direction string
	Property  string
	Value     any
	Err       error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %s property %q with %s: %v",
		e.Direction, e.Property, spew.Sprintf("%#v", e.Value), e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}
