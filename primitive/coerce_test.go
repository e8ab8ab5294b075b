package primitive

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

type color string

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		to      reflect.Type
		allowed CategoryEnum
		want    any
	}{
		{"assignable", "x", reflect.TypeFor[string](), CategoryNone, "x"},
		{"to interface", 3, reflect.TypeFor[any](), CategoryNone, 3},
		{"nil to zero", nil, reflect.TypeFor[int](), CategoryNone, 0},
		{"safe widening", int8(4), reflect.TypeFor[int64](), CategorySafeNumber, int64(4)},
		{"text to number", "42", reflect.TypeFor[int](), CategoryTextNumber, 42},
		{"number to text", 2.5, reflect.TypeFor[string](), CategoryTextNumber, "2.5"},
		{"textual bool", "yes", reflect.TypeFor[bool](), CategoryTextualBool, true},
		{"bool to text", false, reflect.TypeFor[string](), CategoryTextualBool, "false"},
		{"duration text", "1m30s", reflect.TypeFor[time.Duration](), CategoryDuration, 90 * time.Second},
		{"duration seconds", 1.5, reflect.TypeFor[time.Duration](), CategorySeconds, 1500 * time.Millisecond},
		{"named int", level(3), reflect.TypeFor[int](), CategoryNone, 3},
		{"string enum", "red", reflect.TypeFor[color](), CategoryEnumString, color("red")},
		{"unsafe narrowing", 3.9, reflect.TypeFor[int](), CategoryUnsafeNumber, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.to, tt.allowed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_NotAllowed(t *testing.T) {
	_, err := Coerce("42", reflect.TypeFor[int](), CategorySafeNumber)
	require.ErrorIs(t, err, ErrNotAllowed)

	var ce *CoerceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, reflect.TypeFor[int](), ce.To)

	_, err = Coerce(time.Second, reflect.TypeFor[int64](), CategorySafeNumber)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = Coerce(struct{}{}, reflect.TypeFor[string](), CategoryAll)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestCoerce_BadText(t *testing.T) {
	_, err := Coerce("maybe", reflect.TypeFor[bool](), CategoryTextualBool)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAllowed)
}

func TestParseCategories(t *testing.T) {
	c, err := ParseCategories([]string{"text-number", " Duration "})
	require.NoError(t, err)
	assert.Equal(t, CategoryTextNumber|CategoryDuration, c)

	_, err = ParseCategories([]string{"bogus"})
	require.Error(t, err)
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(KindInt8, KindInt, CategorySafeNumber))
	assert.False(t, Allows(KindInt64, KindInt8, CategorySafeNumber))
	assert.True(t, Allows(KindInt64, KindInt8, CategoryUnsafeNumber))
	assert.False(t, Allows(KindString, KindInt, CategoryNone))

	safe := []struct {
		from, to KindEnum
		want     bool
	}{
		{KindInt, KindInt64, true},
		{KindInt, KindInt32, false},
		{KindInt32, KindInt, true},
		{KindUint8, KindInt16, true},
		{KindUint8, KindInt8, false},
		{KindUint32, KindInt, false},
		{KindUint32, KindInt64, true},
		{KindInt16, KindFloat32, true},
		{KindInt32, KindFloat32, false},
		{KindInt32, KindFloat64, true},
		{KindFloat64, KindFloat32, false},
		{KindFloat32, KindInt64, false},
		{KindInt8, KindUint64, false},
	}

	for _, tt := range safe {
		assert.Equal(t, tt.want, Allows(tt.from, tt.to, CategorySafeNumber), "%v -> %v", tt.from, tt.to)
		assert.Equal(t, !tt.want, Allows(tt.from, tt.to, CategoryUnsafeNumber), "%v -> %v", tt.from, tt.to)
	}

	assert.True(t, Allows(KindInt64, KindDuration, CategoryNanoseconds))
	assert.False(t, Allows(KindUint64, KindDuration, CategoryNanoseconds))
}
