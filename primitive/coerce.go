package primitive

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ErrNotAllowed is wrapped by CoerceError when no allowed category covers the
// requested conversion.
var ErrNotAllowed = errors.New("conversion not allowed")

// CoerceError describes a failed coercion.
type CoerceError struct {
	From  reflect.Type
	To    reflect.Type
	Value any
	Err   error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("cannot coerce %v (%v) to %v: %v", e.Value, e.From, e.To, e.Err)
}

func (e *CoerceError) Unwrap() error {
	return e.Err
}

// Coerce converts value to the type to, using only conversions covered by
// the allowed categories. Values already assignable to to are returned as is,
// and nil becomes the zero value of to.
func Coerce(value any, to reflect.Type, allowed CategoryEnum) (any, error) {
	if to == nil {
		return value, nil
	}

	if value == nil {
		return reflect.Zero(to).Interface(), nil
	}

	from := reflect.TypeOf(value)
	if from.AssignableTo(to) {
		return value, nil
	}

	fk, tk := FromReflectType(from), FromReflectType(to)

	// named types over the same underlying kind, e.g. an int enum and int
	if fk != KindDuration && tk != KindDuration &&
		from.Kind() == to.Kind() && from.ConvertibleTo(to) && isBasicKind(to.Kind()) {
		return reflect.ValueOf(value).Convert(to).Interface(), nil
	}

	if fk == 0 || tk == 0 || !Allows(fk, tk, allowed) {
		return nil, &CoerceError{From: from, To: to, Value: value, Err: ErrNotAllowed}
	}

	out, err := coerceKind(value, fk, tk, to)
	if err != nil {
		return nil, &CoerceError{From: from, To: to, Value: value, Err: err}
	}

	rv := reflect.ValueOf(out)
	if rv.Type() != to {
		if !rv.CanConvert(to) {
			return nil, &CoerceError{From: from, To: to, Value: value, Err: ErrNotAllowed}
		}

		rv = rv.Convert(to)
	}

	return rv.Interface(), nil
}

func coerceKind(value any, fk, tk KindEnum, to reflect.Type) (any, error) {
	switch {
	case tk == KindString:
		return toString(value)
	case tk == KindBool:
		if fk == KindString {
			return parseTextualBool(value.(string))
		}

		return cast.ToBoolE(value)
	case tk == KindTime:
		return cast.ToTimeE(value)
	case tk == KindDuration:
		if fk.IsFloat() {
			secs, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, err
			}

			return time.Duration(secs * float64(time.Second)), nil
		}

		return cast.ToDurationE(value)
	case tk.IsFloat():
		if d, ok := value.(time.Duration); ok {
			return d.Seconds(), nil
		}

		return cast.ToFloat64E(value)
	case tk.IsSigned():
		if t, ok := value.(time.Time); ok {
			return t.Unix(), nil
		}

		return cast.ToInt64E(value)
	case tk.IsUnsigned():
		if t, ok := value.(time.Time); ok {
			return uint64(t.Unix()), nil
		}

		return cast.ToUint64E(value)
	case tk == KindPrimitiveEnum:
		if to.Kind() == reflect.String {
			return toString(value)
		}

		return cast.ToInt64E(value)
	}

	return nil, ErrNotAllowed
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	return cast.ToStringE(value)
}

func parseTextualBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	}

	return false, fmt.Errorf("not a boolean: %q", s)
}

func isBasicKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}

	return false
}
