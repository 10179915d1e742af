package tools

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/toolbelt/internal/cli"
	"github.com/shinji-kodama/toolbelt/internal/cliargs"
	"github.com/shinji-kodama/toolbelt/internal/fileutil"
	"github.com/shinji-kodama/toolbelt/internal/model"
	"github.com/shinji-kodama/toolbelt/internal/validation"
)

// Report formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// InspectTool implements "toolbelt inspect".
type InspectTool struct {
	// format is one of formatText, formatJSON or formatYAML.
	format string

	// outputDir receives the report file instead of stdout when set.
	outputDir string

	// filesOnly and dirsOnly restrict the accepted kinds of input.
	filesOnly bool
	dirsOnly  bool

	files *fileutil.Files
}

func (t *InspectTool) Doc() string {
	return `
		Validate input paths and report what they are.

		Each argument must be an existing file or directory. Paths are
		expanded (~, $VAR) and made absolute before they are checked. The
		report lists the kind and size of every path, and the number of
		entries of directories.

		With --output-dir the report is written to report.<format> in that
		directory, which is created if needed. An existing report is first
		renamed to report_NNN.<format>.

		All flags can also be set in a configuration file given with
		--config, or through INSPECT_<FLAG> environment variables.

		Examples:
		  toolbelt inspect data.csv ~/datasets
		  toolbelt inspect --format yaml --output-dir reports/ data.csv
		  toolbelt inspect --config inspect.yaml data.csv`
}

// ConfigFile makes inspect accept -c/--config.
func (t *InspectTool) ConfigFile() bool { return true }

func (t *InspectTool) RegisterFlags(cmd *cobra.Command) {
	cmd.Args = cliargs.ValidateArgs(cliargs.Arg(func(arg string) (string, error) {
		return validation.InputPath(arg, !t.dirsOnly, !t.filesOnly)
	}))

	t.format = formatText
	f := cmd.Flags()
	f.Var(cliargs.StrValue(&t.format, []string{formatText, formatJSON, formatYAML}), "format",
		"report format: text, json or yaml")
	f.Var(cliargs.OutputDirectoryPathValue(&t.outputDir), "output-dir", "write the report to this directory")
	f.BoolVar(&t.filesOnly, "files-only", false, "reject directories")
	f.BoolVar(&t.dirsOnly, "dirs-only", false, "reject regular files")

	groups := cliargs.ArgGroups(cmd, "input", "output")
	groups["input"].Add("files-only", "dirs-only")
	groups["output"].Add("format", "output-dir")
	cmd.MarkFlagsMutuallyExclusive("files-only", "dirs-only")
}

// pathReport describes one inspected path.
type pathReport struct {
	Path    string `json:"path" yaml:"path"`
	Kind    string `json:"kind" yaml:"kind"`
	Size    int64  `json:"size" yaml:"size"`
	Entries *int   `json:"entries,omitempty" yaml:"entries,omitempty"`
}

func (t *InspectTool) Execute(ctx context.Context, args []string) error {
	files := t.files
	if files == nil {
		files = fileutil.Default()
	}

	// Step 1: Normalize and describe every input. Arguments were already
	// checked during parsing; InputPath is repeated to obtain the
	// normalized path.
	reports := make([]pathReport, 0, len(args))
	for _, arg := range args {
		path, err := validation.InputPath(arg, !t.dirsOnly, !t.filesOnly)
		if err != nil {
			return err
		}
		report, err := describe(files.Fs(), path)
		if err != nil {
			return err
		}
		log.Debug("Inspected path", "path", report.Path, "kind", report.Kind)
		reports = append(reports, report)
	}

	// Step 2: Choose the destination of the report.
	format := strings.ToLower(t.format)
	if t.outputDir == "" {
		return writeReport(cli.Stdout(ctx), format, reports)
	}

	target := filepath.Join(t.outputDir, "report."+reportExt(format))
	if _, err := files.RenamePreexistingOutputPath(target); err != nil {
		return err
	}

	f, err := files.Fs().Create(target)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to create report %s", target), err)
	}
	defer func() { _ = f.Close() }()

	if err := writeReport(f, format, reports); err != nil {
		return err
	}
	log.Info("Wrote report", "path", target, "paths", len(reports))
	_, _ = fmt.Fprintln(cli.Stdout(ctx), target)
	return nil
}

func describe(fsys afero.Fs, path string) (pathReport, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return pathReport{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	report := pathReport{Path: path, Kind: "file", Size: info.Size()}
	if info.IsDir() {
		entries, err := afero.ReadDir(fsys, path)
		if err != nil {
			return pathReport{}, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		n := len(entries)
		report.Kind = "directory"
		report.Entries = &n
	}
	return report, nil
}

func reportExt(format string) string {
	if format == formatText {
		return "txt"
	}
	return format
}

func writeReport(w io.Writer, format string, reports []pathReport) error {
	switch format {
	case formatJSON:
		return writeJSON(w, map[string]any{"paths": reports})
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"paths": reports}); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		// Text format: one aligned row per path.
		//
		//	KIND       SIZE       ENTRIES  PATH
		//	file       1024       -        /data/in.csv
		for _, r := range reports {
			entries := "-"
			if r.Entries != nil {
				entries = fmt.Sprint(*r.Entries)
			}
			if _, err := fmt.Fprintf(w, "%-10s %-10d %-8s %s\n", r.Kind, r.Size, entries, r.Path); err != nil {
				return err
			}
		}
		return nil
	}
}

