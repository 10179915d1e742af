package cli

import (
	"context"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// Tool is a command-line tool. Its documentation text doubles as the
// command's help: the first sentence becomes the one-line summary and the
// whole text the long description.
type Tool interface {
	// Doc returns the documentation text of the tool. Leading indentation
	// common to all lines is removed, so it may be written as an indented
	// raw string literal.
	Doc() string

	// Execute does the tool's work. args holds the positional arguments
	// left after flag parsing; flag values have already been stored in the
	// variables the tool bound in RegisterFlags.
	Execute(ctx context.Context, args []string) error
}

// FlagRegistrar is implemented by tools that define their own flags or
// positional argument validation.
type FlagRegistrar interface {
	RegisterFlags(cmd *cobra.Command)
}

// Namer is implemented by tools whose command name cannot be derived from
// their type name.
type Namer interface {
	Name() string
}

// Configurable is implemented by tools that accept a configuration file
// through -c/--config. See WithConfigFile.
type Configurable interface {
	ConfigFile() bool
}

// Base can be embedded in a tool that is still being written; its Execute
// fails with model.ErrNotImplemented.
type Base struct{}

// Execute reports that the embedding tool does not implement Execute.
func (Base) Execute(context.Context, []string) error {
	return model.Errorf(model.ErrNotImplemented, "Execute is not implemented")
}

// toolSuffixes are stripped from type names to form command names.
var toolSuffixes = []string{"Cli", "CLI", "Tool", "Command"}

// Name returns the command name of tool: its type name without a Cli, Tool
// or Command suffix, in lower case. InspectTool is named "inspect".
func Name(tool Tool) string {
	if n, ok := tool.(Namer); ok {
		return n.Name()
	}

	t := reflect.TypeOf(tool)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	for _, suffix := range toolSuffixes {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != "" && trimmed != name {
			name = trimmed
			break
		}
	}
	return strings.ToLower(name)
}

// Description returns the cleaned documentation text of tool.
func Description(tool Tool) string {
	return cleanDoc(tool.Doc())
}

// Help returns the first sentence of the description with its final
// period removed and its first letter in lower case, as shown in a parent
// command's list of subcommands.
func Help(tool Tool) string {
	desc := Description(tool)

	// Only the first paragraph can hold the first sentence.
	if i := strings.Index(desc, "\n\n"); i >= 0 {
		desc = desc[:i]
	}
	desc = strings.Join(strings.Fields(desc), " ")

	if i := strings.Index(desc, ". "); i >= 0 {
		desc = desc[:i]
	}
	desc = strings.TrimSuffix(desc, ".")

	r, size := utf8.DecodeRuneInString(desc)
	if r == utf8.RuneError {
		return desc
	}
	return string(unicode.ToLower(r)) + desc[size:]
}

// cleanDoc removes the indentation shared by all lines but the first, and
// leading and trailing blank lines.
func cleanDoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "    "), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		if indent := len(line) - len(content); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		lines[i] = strings.TrimRight(line, " ")
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
