// Package tools holds the subcommands of the toolbelt binary.
//
// Each tool lives in its own file and implements cli.Tool. Tools print
// their results as text by default and as JSON when --json is given to the
// binary.
package tools

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shinji-kodama/toolbelt/internal/cli"
)

// All returns one instance of every tool, in the order they are listed in
// help output.
func All() []cli.Tool {
	return []cli.Tool{
		&RunTool{},
		&ScratchTool{},
		&InspectTool{},
		&BackupTool{},
		&WhichTool{},
	}
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	// MarshalIndent produces human-readable JSON with 2-space indentation.
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
