package validation

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// Str validates value against options, ignoring case, and returns the
// option as it was spelled in options. When two options differ only in
// case, the first one wins.
func Str(value any, options []string) (string, error) {
	canonical := make(map[string]string, len(options))
	for _, option := range options {
		key := strings.ToLower(option)
		if _, seen := canonical[key]; !seen {
			canonical[key] = option
		}
	}

	if value == nil {
		return "", model.Errorf(model.ErrType, "'<nil>' is of type <nil>, not string")
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", model.Wrap(model.ErrType, err, "'%v' is of type %T, not string", value, value)
	}

	option, ok := canonical[strings.ToLower(s)]
	if !ok {
		return "", model.Errorf(model.ErrValue, "'%s' is not one of options %v", s, options)
	}
	return option, nil
}

// Type validates that value holds a T and returns it as one.
func Type[T any](value any) (T, error) {
	v, ok := value.(T)
	if !ok {
		var zero T
		return zero, model.Errorf(model.ErrType,
			"'%v' is of type %T, not %s", value, value, reflect.TypeFor[T]())
	}
	return v, nil
}
