package primitive

import (
	"reflect"
	"time"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

// KindEnum classifies a Go type into the primitive kinds that coercion knows
// how to convert between. The zero value means "not a primitive".
type KindEnum int

// Signed integers, unsigned integers and floats are contiguous ranges.
const (
	_ KindEnum = iota

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindPrimitiveEnum // named integer or string type

	KindTotal = int(iota)
)

func (k KindEnum) IsSigned() bool   { return k >= KindInt && k <= KindInt64 }
func (k KindEnum) IsUnsigned() bool { return k >= KindUint && k <= KindUint64 }
func (k KindEnum) IsInteger() bool  { return k.IsSigned() || k.IsUnsigned() }
func (k KindEnum) IsFloat() bool    { return k == KindFloat32 || k == KindFloat64 }
func (k KindEnum) IsNumber() bool   { return k.IsInteger() || k.IsFloat() }

var exactKinds = map[reflect.Type]KindEnum{
	reflect.TypeFor[int]():           KindInt,
	reflect.TypeFor[int8]():          KindInt8,
	reflect.TypeFor[int16]():         KindInt16,
	reflect.TypeFor[int32]():         KindInt32,
	reflect.TypeFor[int64]():         KindInt64,
	reflect.TypeFor[uint]():          KindUint,
	reflect.TypeFor[uint8]():         KindUint8,
	reflect.TypeFor[uint16]():        KindUint16,
	reflect.TypeFor[uint32]():        KindUint32,
	reflect.TypeFor[uint64]():        KindUint64,
	reflect.TypeFor[float32]():       KindFloat32,
	reflect.TypeFor[float64]():       KindFloat64,
	reflect.TypeFor[bool]():          KindBool,
	reflect.TypeFor[string]():        KindString,
	reflect.TypeFor[time.Time]():     KindTime,
	reflect.TypeFor[time.Duration](): KindDuration,
}

// FromReflectType returns the kind of rtype, or 0 when rtype is not a
// primitive. Named int and string types other than time.Duration are
// KindPrimitiveEnum.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	if k, ok := exactKinds[rtype]; ok {
		return k
	}

	if kind := rtype.Kind(); kind == reflect.Int || kind == reflect.String {
		return KindPrimitiveEnum
	}

	return 0
}

// Of returns the kind of the dynamic type of v.
func Of(v any) KindEnum {
	return FromReflectType(reflect.TypeOf(v))
}
