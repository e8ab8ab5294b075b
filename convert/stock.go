package convert

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"databind/primitive"
)

// Coercing converts values to the requested type along the allowed
// primitive categories, in both directions.
type Coercing struct {
	Categories primitive.CategoryEnum
}

func (c Coercing) Convert(value any, targetType reflect.Type, _ any, _ language.Tag) (any, error) {
	return primitive.Coerce(value, targetType, c.Categories)
}

func (c Coercing) ConvertBack(value any, targetType reflect.Type, _ any, _ language.Tag) (any, error) {
	return primitive.Coerce(value, targetType, c.Categories)
}

// Format renders values with a culture-aware printer. The parameter, when a
// string, is the format verb string; it defaults to "%v". ConvertBack
// coerces the text back with primitive.CategoryAll.
type Format struct{}

func (Format) Convert(value any, _ reflect.Type, parameter any, culture language.Tag) (any, error) {
	format := "%v"
	if s, ok := parameter.(string); ok && s != "" {
		format = s
	}

	return message.NewPrinter(culture).Sprintf(format, value), nil
}

func (Format) ConvertBack(value any, targetType reflect.Type, _ any, culture language.Tag) (any, error) {
	s, ok := value.(string)
	if !ok {
		return primitive.Coerce(value, targetType, primitive.CategoryAll)
	}

	// drop the grouping separators the printer inserted
	if k := primitive.FromReflectType(targetType); k.IsNumber() {
		if sep := groupSeparator(culture); sep != "" {
			s = strings.ReplaceAll(s, sep, "")
		}
	}

	return primitive.Coerce(s, targetType, primitive.CategoryAll)
}

func groupSeparator(culture language.Tag) string {
	s := message.NewPrinter(culture).Sprintf("%d", 1000)
	if len(s) <= 4 {
		return ""
	}

	return strings.TrimSuffix(strings.TrimPrefix(s, "1"), "000")
}

// Join concatenates the string forms of all values with Sep. ConvertBack
// splits on Sep.
type Join struct {
	Sep string
}

func (j Join) Convert(values []any, _ reflect.Type, _ any, _ language.Tag) (any, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}

	return strings.Join(parts, j.Sep), nil
}

func (j Join) ConvertBack(value any, targetTypes []reflect.Type, _ any, _ language.Tag) ([]any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("join: want string, got %T", value)
	}

	parts := strings.Split(s, j.Sep)
	res := make([]any, len(parts))

	for i, p := range parts {
		res[i] = p
		if i < len(targetTypes) && targetTypes[i] != nil {
			v, err := primitive.Coerce(p, targetTypes[i], primitive.CategoryAll)
			if err != nil {
				return nil, err
			}

			res[i] = v
		}
	}

	return res, nil
}
