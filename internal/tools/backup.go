package tools

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/fileutil"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// BackupTool implements "toolbelt backup".
type BackupTool struct {
	files *fileutil.Files
}

func (t *BackupTool) Doc() string {
	return `
		Move existing output files and directories out of the way.

		Each path that exists is renamed to <name>_NNN<ext> next to it, using
		the lowest free three-digit number, so earlier backups are never
		overwritten. Paths that do not exist are skipped.

		Examples:
		  toolbelt backup results.csv     # results.csv -> results_000.csv
		  toolbelt backup reports/ out.txt`
}

func (t *BackupTool) RegisterFlags(cmd *cobra.Command) {
	cmd.Args = cobra.MinimumNArgs(1)
}

// backupJSON is one entry of the JSON output of the backup command.
type backupJSON struct {
	Path   string `json:"path"`
	Backup string `json:"backup,omitempty"`
	Moved  bool   `json:"moved"`
}

func (t *BackupTool) Execute(ctx context.Context, args []string) error {
	files := t.files
	if files == nil {
		files = fileutil.Default()
	}

	results := make([]backupJSON, 0, len(args))
	for _, arg := range args {
		path, err := validation.Expand(arg)
		if err != nil {
			return err
		}

		backup, err := files.RenamePreexistingOutputPath(path)
		if err != nil {
			return err
		}
		results = append(results, backupJSON{Path: path, Backup: backup, Moved: backup != ""})
	}

	out := cli.Stdout(ctx)
	if cli.JSONOutput(ctx) {
		return writeJSON(out, map[string]any{"backups": results})
	}
	for _, r := range results {
		if r.Moved {
			_, _ = fmt.Fprintf(out, "%s -> %s\n", r.Path, r.Backup)
		} else {
			_, _ = fmt.Fprintf(out, "%s (not present, skipped)\n", r.Path)
		}
	}
	return nil
}
