package primitive

import (
	"fmt"
	"strings"
)

// CategoryEnum is a bit set of value conversion families that the default
// coercion is allowed to perform when a bound value does not fit the
// destination property type.
type CategoryEnum int

// ConversionPair is a (from, to) kind pair.
type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss
	CategoryTextNumber                            // int, uint, float <-> string
	CategoryNumericBool                           // int <-> bool as 0, 1
	CategoryTextualBool                           // string <-> bool as yes, no, on, off, true, false
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time
	CategoryTimestamp                             // int(Unix seconds) <-> time.Time
	CategoryDuration                              // string(2h45m) <-> time.Duration
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration
	CategorySeconds                               // float(seconds) <-> time.Duration
	CategoryEnumString                            // string <-> enum

	CategoryAll  = (1 << iota) - 1
	CategoryNone = 0

	// CategoryDefault is what bindings coerce with unless configured otherwise.
	CategoryDefault = CategorySafeNumber | CategoryTextNumber | CategoryTextualBool |
		CategoryDuration | CategoryEnumString
)

var categoryNames = map[string]CategoryEnum{
	"safe-number":   CategorySafeNumber,
	"unsafe-number": CategoryUnsafeNumber,
	"text-number":   CategoryTextNumber,
	"numeric-bool":  CategoryNumericBool,
	"textual-bool":  CategoryTextualBool,
	"datetime":      CategoryDatetime,
	"timestamp":     CategoryTimestamp,
	"duration":      CategoryDuration,
	"nanoseconds":   CategoryNanoseconds,
	"seconds":       CategorySeconds,
	"enum-string":   CategoryEnumString,
	"all":           CategoryAll,
	"default":       CategoryDefault,
	"none":          CategoryNone,
}

// ParseCategories turns a list of category names (as used in configuration)
// into a CategoryEnum set.
func ParseCategories(names []string) (CategoryEnum, error) {
	var res CategoryEnum

	for _, name := range names {
		c, ok := categoryNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown conversion category %q", name)
		}

		res |= c
	}

	return res, nil
}

// Allows reports whether converting a from kind into a to kind is permitted
// by the allowed categories.
func Allows(from, to KindEnum, allowed CategoryEnum) bool {
	pair := ConversionPair{from, to}

	for category := CategoryEnum(1); category&CategoryAll > 0; category <<= 1 {
		if allowed&category == 0 {
			continue
		}

		if _, ok := conversionPairs[category][pair]; ok {
			return true
		}
	}

	return false
}

type pairSet map[ConversionPair]struct{}

var conversionPairs = map[CategoryEnum]pairSet{
	CategorySafeNumber:   pairsWhere(KindEnum.IsNumber, KindEnum.IsNumber, isLossless),
	CategoryUnsafeNumber: pairsWhere(KindEnum.IsNumber, KindEnum.IsNumber, not(isLossless)),
	CategoryTextNumber:   both(KindEnum.IsNumber, KindString),
	CategoryNumericBool:  both(KindEnum.IsInteger, KindBool),
	CategoryTextualBool:  both(is(KindString), KindBool),
	CategoryDatetime:     both(is(KindString), KindTime),
	CategoryTimestamp:    both(KindEnum.IsInteger, KindTime),
	CategoryDuration:     both(is(KindString), KindDuration),
	// uint64 nanoseconds overflow a Duration
	CategoryNanoseconds: both(func(k KindEnum) bool { return k.IsInteger() && k != KindUint64 }, KindDuration),
	CategorySeconds:     both(KindEnum.IsFloat, KindDuration),
	CategoryEnumString: {
		{KindString, KindPrimitiveEnum}:        {},
		{KindPrimitiveEnum, KindString}:        {},
		{KindPrimitiveEnum, KindPrimitiveEnum}: {},
	},
}

// pairsWhere collects the (from, to) pairs accepted by all three predicates.
func pairsWhere(from, to func(KindEnum) bool, keep func(from, to KindEnum) bool) pairSet {
	set := pairSet{}

	for f := KindEnum(1); int(f) < KindTotal; f++ {
		for t := KindEnum(1); int(t) < KindTotal; t++ {
			if from(f) && to(t) && keep(f, t) {
				set[ConversionPair{f, t}] = struct{}{}
			}
		}
	}

	return set
}

// both pairs every kind accepted by match with other, in both directions.
func both(match func(KindEnum) bool, other KindEnum) pairSet {
	set := pairSet{}

	for k := KindEnum(1); int(k) < KindTotal; k++ {
		if match(k) {
			set[ConversionPair{k, other}] = struct{}{}
			set[ConversionPair{other, k}] = struct{}{}
		}
	}

	return set
}

func is(kind KindEnum) func(KindEnum) bool {
	return func(k KindEnum) bool { return k == kind }
}

func not(f func(from, to KindEnum) bool) func(from, to KindEnum) bool {
	return func(from, to KindEnum) bool { return !f(from, to) }
}

// isLossless reports whether every value of the from kind is representable
// in the to kind. int and uint are taken as 64 bits wide when read and 32
// bits wide when written.
func isLossless(from, to KindEnum) bool {
	switch {
	case from == to:
		return true
	case from.IsFloat():
		return to.IsFloat() && bitsOf(to, false) >= bitsOf(from, true)
	case to.IsFloat():
		return bitsOf(from, true) <= mantissa(to)
	case from.IsSigned():
		return to.IsSigned() && bitsOf(to, false) >= bitsOf(from, true)
	case to.IsUnsigned():
		return bitsOf(to, false) >= bitsOf(from, true)
	default:
		return bitsOf(to, false) > bitsOf(from, true)
	}
}

func bitsOf(k KindEnum, source bool) int {
	switch k {
	case KindInt, KindUint:
		if source {
			return 64
		}

		return 32
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	default:
		return 64
	}
}

func mantissa(k KindEnum) int {
	if k == KindFloat32 {
		return 24
	}

	return 53
}
