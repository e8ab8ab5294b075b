// Package convert defines the value converter contracts used by bindings and
// a few stock converters.
//
// A Converter transforms one value on its way from source to target
// (Convert) and back (ConvertBack). A MultiConverter combines the values of
// several bindings into one target value and splits it back.
package convert

import (
	"errors"
	"reflect"

	"github.com/sourcegraph/conc/panics"
	"golang.org/x/text/language"
)

// ErrNotSupported is returned by converters that only work in one direction.
var ErrNotSupported = errors.New("conversion not supported")

// Converter converts single values.
type Converter interface {
	Convert(value any, targetType reflect.Type, parameter any, culture language.Tag) (any, error)
	ConvertBack(value any, targetType reflect.Type, parameter any, culture language.Tag) (any, error)
}

// MultiConverter combines N values into one and splits one into N.
type MultiConverter interface {
	Convert(values []any, targetType reflect.Type, parameter any, culture language.Tag) (any, error)
	ConvertBack(value any, targetTypes []reflect.Type, parameter any, culture language.Tag) ([]any, error)
}

// Func adapts plain functions to Converter. A nil Back makes ConvertBack
// fail with ErrNotSupported.
type Func struct {
	To   func(value any, parameter any) (any, error)
	Back func(value any, parameter any) (any, error)
}

func (f Func) Convert(value any, _ reflect.Type, parameter any, _ language.Tag) (any, error) {
	if f.To == nil {
		return value, nil
	}

	return f.To(value, parameter)
}

func (f Func) ConvertBack(value any, _ reflect.Type, parameter any, _ language.Tag) (any, error) {
	if f.Back == nil {
		return nil, ErrNotSupported
	}

	return f.Back(value, parameter)
}

// MultiFunc adapts plain functions to MultiConverter.
type MultiFunc struct {
	To   func(values []any, parameter any) (any, error)
	Back func(value any, parameter any) ([]any, error)
}

func (f MultiFunc) Convert(values []any, _ reflect.Type, parameter any, _ language.Tag) (any, error) {
	if f.To == nil {
		return nil, ErrNotSupported
	}

	return f.To(values, parameter)
}

func (f MultiFunc) ConvertBack(value any, _ []reflect.Type, parameter any, _ language.Tag) ([]any, error) {
	if f.Back == nil {
		return nil, ErrNotSupported
	}

	return f.Back(value, parameter)
}

// Call runs a converter invocation. A panic inside fn is recovered and
// returned as an error.
func Call[T any](fn func() (T, error)) (res T, err error) {
	var pc panics.Catcher

	pc.Try(func() {
		res, err = fn()
	})

	if r := pc.Recovered(); r != nil {
		var zero T
		return zero, r.AsError()
	}

	return res, err
}
