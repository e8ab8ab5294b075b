package binding

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Mode -output=mode_string.go
//go:generate go tool stringer -type=Status -output=status_string.go

// Mode is the direction in which a binding moves values.
type Mode int

const (
	// Default defers to the parent MultiBinding, then to the target
	// property metadata.
	Default Mode = iota
	// TwoWay pushes source changes to the target and target changes back.
	TwoWay
	// OneWay pushes source changes to the target.
	OneWay
	// OneWayToSource pushes target changes to the source.
	OneWayToSource
	// OneTime pushes the source to the target once and then deactivates.
	OneTime
)

func (m Mode) toTarget() bool {
	return m == TwoWay || m == OneWay || m == OneTime
}

func (m Mode) toSource() bool {
	return m == TwoWay || m == OneWayToSource
}

// ParseMode accepts a mode name such as "TwoWay" or "one-way-to-source".
func ParseMode(s string) (Mode, error) {
	name := strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)

	for m := Default; m <= OneTime; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}

	return Default, fmt.Errorf("unknown binding mode %q", s)
}

// Status is the state of a binding.
//
//	Inactive -> Active -> SourcePathError | TargetPathError
//	Active -> SourceUpdateError | TargetUpdateError -> Active (if ignored)
type Status int

const (
	Inactive Status = iota
	Active
	SourcePathError
	TargetPathError
	SourceUpdateError
	TargetUpdateError
)

// IsPathError reports whether s is a fatal path resolution state.
func (s Status) IsPathError() bool {
	return s == SourcePathError || s == TargetPathError
}

// IsUpdateError reports whether s is a recoverable update state.
func (s Status) IsUpdateError() bool {
	return s == SourceUpdateError || s == TargetUpdateError
}
