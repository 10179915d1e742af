package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// WhichTool implements "toolbelt which".
type WhichTool struct {
	platforms []string
}

func (t *WhichTool) Doc() string {
	return `
		Resolve executables on the search path.

		Prints the absolute path of each named executable, with symbolic
		links resolved. Fails when an executable is missing or when the
		current platform is not one of --platforms.

		Examples:
		  toolbelt which git make
		  toolbelt which --platforms linux,darwin rsync`
}

func (t *WhichTool) RegisterFlags(cmd *cobra.Command) {
	cmd.Args = cobra.MinimumNArgs(1)
	cmd.Flags().StringSliceVar(&t.platforms, "platforms", validation.DefaultPlatforms,
		"platforms the executables are supported on")
}

// whichJSON is one entry of the JSON output of the which command.
type whichJSON struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

func (t *WhichTool) Execute(ctx context.Context, args []string) error {
	results := make([]whichJSON, 0, len(args))
	var errs []error
	for _, name := range args {
		path, err := validation.Executable(name, t.platforms...)
		entry := whichJSON{Name: name, Path: path}
		if err != nil {
			entry.Error = err.Error()
			errs = append(errs, err)
		}
		results = append(results, entry)
	}

	out := cli.Stdout(ctx)
	if cli.JSONOutput(ctx) {
		if err := writeJSON(out, map[string]any{"executables": results}); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Path != "" {
				_, _ = fmt.Fprintf(out, "%-20s %s\n", r.Name, r.Path)
			}
		}
	}
	return errors.Join(errs...)
}
