package validation

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// Number is the set of types the numeric validators produce.
type Number interface {
	int | float64
}

// NumberOption constrains the result of Int, Ints and Float.
type NumberOption[T Number] func(*numberRules[T])

type numberRules[T Number] struct {
	min     *T
	max     *T
	options []T
}

// Min rejects values below v.
func Min[T Number](v T) NumberOption[T] {
	return func(r *numberRules[T]) { r.min = &v }
}

// Max rejects values above v.
func Max[T Number](v T) NumberOption[T] {
	return func(r *numberRules[T]) { r.max = &v }
}

// OneOf rejects values that are not in values.
func OneOf[T Number](values ...T) NumberOption[T] {
	return func(r *numberRules[T]) { r.options = append(r.options, values...) }
}

func newNumberRules[T Number](opts []NumberOption[T]) (*numberRules[T], error) {
	r := &numberRules[T]{}
	for _, opt := range opts {
		opt(r)
	}
	if r.min != nil && r.max != nil && *r.min > *r.max {
		return nil, model.Errorf(model.ErrArgumentConflict,
			"min value %v must not be greater than max value %v", *r.min, *r.max)
	}
	return r, nil
}

func (r *numberRules[T]) check(v T) error {
	if r.min != nil && v < *r.min {
		return model.Errorf(model.ErrValue, "%v is less than minimum value of %v", v, *r.min)
	}
	if r.max != nil && v > *r.max {
		return model.Errorf(model.ErrValue, "%v is greater than maximum value of %v", v, *r.max)
	}
	if len(r.options) > 0 && !slices.Contains(r.options, v) {
		return model.Errorf(model.ErrValue, "%v is not one of %v", v, r.options)
	}
	return nil
}

// Int validates value as an int.
//
// Strings must hold a base-10 integer; other values (numbers, json.Number,
// values decoded from configuration files) are coerced with spf13/cast.
// Conflicting bounds are reported before value is looked at.
func Int(value any, opts ...NumberOption[int]) (int, error) {
	rules, err := newNumberRules(opts)
	if err != nil {
		return 0, err
	}

	n, err := toInt(value)
	if err != nil {
		return 0, model.Wrap(model.ErrType, err,
			"%v is of type %T, cannot be cast to int", value, value)
	}

	if err := rules.check(n); err != nil {
		return 0, err
	}
	return n, nil
}

// Float validates value as a float64. See Int for coercion rules.
func Float(value any, opts ...NumberOption[float64]) (float64, error) {
	rules, err := newNumberRules(opts)
	if err != nil {
		return 0, err
	}

	f, err := toFloat(value)
	if err != nil {
		return 0, model.Wrap(model.ErrType, err,
			"%v is of type %T, cannot be cast to float", value, value)
	}

	if err := rules.check(f); err != nil {
		return 0, err
	}
	return f, nil
}

// Ints validates a collection of ints.
//
// values may be a slice or array of anything Int accepts, a single such
// value, or a string of comma- or space-separated integers. When length is
// positive, the number of values must equal it.
func Ints(values any, length int, opts ...NumberOption[int]) ([]int, error) {
	if _, err := newNumberRules(opts); err != nil {
		return nil, err
	}

	items, err := toItems(values)
	if err != nil {
		return nil, err
	}

	validated := make([]int, 0, len(items))
	for _, item := range items {
		n, err := Int(item, opts...)
		if err != nil {
			return nil, err
		}
		validated = append(validated, n)
	}

	if length > 0 && len(validated) != length {
		return nil, model.Errorf(model.ErrValue,
			"%v is of length %d, not %d", validated, len(validated), length)
	}
	return validated, nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, model.ErrType
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v has a fractional part", v)
		}
		return cast.ToIntE(v)
	default:
		return cast.ToIntE(v)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, model.ErrType
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return cast.ToFloat64E(v)
	}
}

// toItems flattens values into a list of scalars.
func toItems(values any) ([]any, error) {
	if values == nil {
		return nil, model.Errorf(model.ErrType, "<nil> cannot be cast to a collection of int")
	}

	if s, ok := values.(string); ok {
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
		items := make([]any, len(fields))
		for i, f := range fields {
			items[i] = f
		}
		return items, nil
	}

	rv := reflect.ValueOf(values)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	default:
		return []any{values}, nil
	}
}
