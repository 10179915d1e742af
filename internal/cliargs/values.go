// Package cliargs adapts the validators of package validation to cobra and
// pflag, and organizes flags into named groups in usage output.
//
// A flag backed by one of the Value types below runs its validator while
// the command line is parsed, so a tool's Execute method only ever sees
// normalized values (absolute paths, in-range numbers, canonical option
// spellings). Validation failures surface as flag errors that match
// model.ErrArgumentType and the validator's own error kind.
package cliargs

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shinji-kodama/toolbelt/internal/model"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// Value is a pflag.Value that stores the result of a validator.
type Value[T any] struct {
	p        *T
	typeName string
	validate func(string) (T, error)
}

var _ pflag.Value = (*Value[int])(nil)

// NewValue returns a flag value that runs validate on every Set and stores
// the result in p. typeName is shown in usage output, e.g. "int" or "file".
func NewValue[T any](p *T, typeName string, validate func(string) (T, error)) *Value[T] {
	return &Value[T]{p: p, typeName: typeName, validate: validate}
}

// Set validates s and stores the normalized value.
func (v *Value[T]) Set(s string) error {
	val, err := v.validate(s)
	if err != nil {
		return model.Wrap(model.ErrArgumentType, err, "invalid %s %q", v.typeName, s)
	}
	*v.p = val
	return nil
}

func (v *Value[T]) String() string {
	// pflag calls String on a zero Value to detect default values.
	if v.p == nil {
		return ""
	}
	return fmt.Sprint(*v.p)
}

func (v *Value[T]) Type() string {
	return v.typeName
}

// SliceValue is a pflag.SliceValue whose items are checked one by one.
// The first Set replaces the default; later ones append, so both
// "--in a,b" and "--in a --in b" work.
type SliceValue[T any] struct {
	p        *[]T
	typeName string
	validate func(string) (T, error)
	changed  bool
}

var _ pflag.SliceValue = (*SliceValue[string])(nil)

// NewSliceValue returns a list-valued flag whose comma-separated items are
// each validated with validate.
func NewSliceValue[T any](p *[]T, typeName string, validate func(string) (T, error)) *SliceValue[T] {
	return &SliceValue[T]{p: p, typeName: typeName, validate: validate}
}

func (v *SliceValue[T]) Set(s string) error {
	vals, err := v.convert(splitList(s))
	if err != nil {
		return err
	}
	if !v.changed {
		*v.p = vals
	} else {
		*v.p = append(*v.p, vals...)
	}
	v.changed = true
	return nil
}

func (v *SliceValue[T]) Append(s string) error {
	val, err := v.convert([]string{s})
	if err != nil {
		return err
	}
	*v.p = append(*v.p, val...)
	return nil
}

func (v *SliceValue[T]) Replace(items []string) error {
	vals, err := v.convert(items)
	if err != nil {
		return err
	}
	*v.p = vals
	return nil
}

func (v *SliceValue[T]) GetSlice() []string {
	if v.p == nil {
		return nil
	}
	out := make([]string, len(*v.p))
	for i, val := range *v.p {
		out[i] = fmt.Sprint(val)
	}
	return out
}

func (v *SliceValue[T]) String() string {
	return "[" + strings.Join(v.GetSlice(), ",") + "]"
}

func (v *SliceValue[T]) Type() string {
	return v.typeName
}

func (v *SliceValue[T]) convert(items []string) ([]T, error) {
	vals := make([]T, 0, len(items))
	for _, item := range items {
		val, err := v.validate(item)
		if err != nil {
			return nil, model.Wrap(model.ErrArgumentType, err, "invalid %s %q", v.typeName, item)
		}
		vals = append(vals, val)
	}
	return vals, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// IntValue validates an integer flag against opts.
func IntValue(p *int, opts ...validation.NumberOption[int]) *Value[int] {
	return NewValue(p, "int", func(s string) (int, error) {
		return validation.Int(s, opts...)
	})
}

// IntsValue validates a list of integers; length 0 accepts any length.
func IntsValue(p *[]int, length int, opts ...validation.NumberOption[int]) *Value[[]int] {
	return NewValue(p, "ints", func(s string) ([]int, error) {
		return validation.Ints(s, length, opts...)
	})
}

// FloatValue validates a floating point flag against opts.
func FloatValue(p *float64, opts ...validation.NumberOption[float64]) *Value[float64] {
	return NewValue(p, "float", func(s string) (float64, error) {
		return validation.Float(s, opts...)
	})
}

// StrValue accepts one of options, matched without regard to case, and
// stores the option's own spelling.
func StrValue(p *string, options []string) *Value[string] {
	return NewValue(p, "string", func(s string) (string, error) {
		return validation.Str(s, options)
	})
}

func InputFilePathValue(p *string, strict bool) *Value[string] {
	return NewValue(p, "file", func(s string) (string, error) {
		return validation.InputFilePath(s, strict)
	})
}

func InputFilePathsValue(p *[]string, strict bool) *SliceValue[string] {
	return NewSliceValue(p, "files", func(s string) (string, error) {
		return validation.InputFilePath(s, strict)
	})
}

func InputDirectoryPathValue(p *string, strict bool) *Value[string] {
	return NewValue(p, "dir", func(s string) (string, error) {
		return validation.InputDirectoryPath(s, strict)
	})
}

func InputDirectoryPathsValue(p *[]string, strict bool) *SliceValue[string] {
	return NewSliceValue(p, "dirs", func(s string) (string, error) {
		return validation.InputDirectoryPath(s, strict)
	})
}

// InputPathValue accepts a file, a directory or both, see
// validation.InputPath.
func InputPathValue(p *string, fileOK, dirOK bool) *Value[string] {
	return NewValue(p, "path", func(s string) (string, error) {
		return validation.InputPath(s, fileOK, dirOK)
	})
}

// OutputFilePathValue validates an output file; with parents set, missing
// parent directories are created during parsing.
func OutputFilePathValue(p *string, strict, parents bool) *Value[string] {
	return NewValue(p, "file", func(s string) (string, error) {
		return validation.OutputFilePath(s, strict, parents)
	})
}

// OutputDirectoryPathValue validates an output directory and creates it
// during parsing when missing.
func OutputDirectoryPathValue(p *string) *Value[string] {
	return NewValue(p, "dir", validation.OutputDirectoryPath)
}

// ArgValidator checks a single positional argument.
type ArgValidator func(arg string) error

// Arg turns a validator into an ArgValidator, discarding its result.
func Arg[T any](validate func(string) (T, error)) ArgValidator {
	return func(arg string) error {
		_, err := validate(arg)
		return err
	}
}

// ValidateArgs checks positional arguments, the i-th with the i-th
// validator. Arguments beyond the last validator are checked with the last
// one, so a trailing validator covers a variadic tail. At least one
// argument per validator is required.
func ValidateArgs(validators ...ArgValidator) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < len(validators) {
			return model.Errorf(model.ErrArgumentType,
				"requires at least %d argument(s), received %d", len(validators), len(args))
		}
		if len(validators) == 0 {
			return cobra.NoArgs(cmd, args)
		}

		for i, arg := range args {
			validate := validators[min(i, len(validators)-1)]
			if err := validate(arg); err != nil {
				return model.Wrap(model.ErrArgumentType, err, "invalid argument %q", arg)
			}
		}
		return nil
	}
}
