package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// Expand expands a leading ~ to the user's home directory and $VAR /
// ${VAR} references to their environment values, then returns the result
// as an absolute, cleaned path. Unset variables expand to "".
func Expand(path string) (string, error) {
	// shell.Expand treats its input as if it were inside double quotes,
	// so it never performs tilde expansion; that is done here instead.
	expanded, err := shell.Expand(path, nil)
	if err != nil {
		return "", model.Wrap(model.ErrType, err, "cannot expand path %q", path)
	}

	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = filepath.Join(home, expanded[1:])
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	return abs, nil
}

// InputFilePath expands path and checks that it is a readable regular
// file. When strict is false a missing file is accepted.
func InputFilePath(path string, strict bool) (string, error) {
	p, err := Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return "", model.Errorf(model.ErrNotAFile, "Input file %s is not a file", p)
		}
		if err := checkReadable(p); err != nil {
			return "", err
		}
	case errors.Is(err, fs.ErrNotExist):
		if strict {
			return "", model.Errorf(model.ErrFileNotFound, "Input file %s does not exist", p)
		}
	default:
		return "", fmt.Errorf("failed to stat input file %s: %w", p, err)
	}

	return p, nil
}

// InputFilePaths validates each of paths with InputFilePath.
func InputFilePaths(paths []string, strict bool) ([]string, error) {
	return validateAll(paths, func(p string) (string, error) {
		return InputFilePath(p, strict)
	})
}

// InputDirectoryPath expands path and checks that it is a readable
// directory. When strict is false a missing directory is accepted.
func InputDirectoryPath(path string, strict bool) (string, error) {
	p, err := Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", model.Errorf(model.ErrNotADirectory, "Input directory %s is not a directory", p)
		}
		if err := checkReadable(p); err != nil {
			return "", err
		}
	case errors.Is(err, fs.ErrNotExist):
		if strict {
			return "", model.Errorf(model.ErrDirectoryNotFound, "Input directory %s does not exist", p)
		}
	default:
		return "", fmt.Errorf("failed to stat input directory %s: %w", p, err)
	}

	return p, nil
}

// InputDirectoryPaths validates each of paths with InputDirectoryPath.
func InputDirectoryPaths(paths []string, strict bool) ([]string, error) {
	return validateAll(paths, func(p string) (string, error) {
		return InputDirectoryPath(p, strict)
	})
}

// InputPath validates a path that must exist and may be a file, a
// directory, or either, depending on fileOK and dirOK.
func InputPath(path string, fileOK, dirOK bool) (string, error) {
	if !fileOK && !dirOK {
		return "", model.Errorf(model.ErrArgumentConflict, "at least one of files or directories must be permitted")
	}

	p, err := Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		if dirOK && !fileOK {
			return "", model.Errorf(model.ErrDirectoryNotFound, "Input directory %s does not exist", p)
		}
		return "", model.Errorf(model.ErrFileNotFound, "Input path %s does not exist", p)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat input path %s: %w", p, err)
	}

	switch {
	case info.IsDir():
		if !dirOK {
			return "", model.Errorf(model.ErrNotAFile, "Input path %s is a directory, not a file", p)
		}
	case info.Mode().IsRegular():
		if !fileOK {
			return "", model.Errorf(model.ErrIsAFile, "Input path %s is a file, not a directory", p)
		}
	default:
		return "", model.Errorf(model.ErrNotAFileOrDirectory, "Input path %s is not a file or directory", p)
	}

	if err := checkReadable(p); err != nil {
		return "", err
	}
	return p, nil
}

// OutputFilePath expands path for use as an output file.
//
// With strict, an existing entry at path is an error. Without strict, an
// existing regular file is accepted (it will be overwritten) but anything
// else is not. A missing parent directory is created when parents is
// true and reported as ErrDirectoryNotFound otherwise.
func OutputFilePath(path string, strict, parents bool) (string, error) {
	p, err := Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	switch {
	case err == nil:
		if strict {
			return "", model.Errorf(model.ErrFileExists, "Output file %s already exists", p)
		}
		if !info.Mode().IsRegular() {
			return "", model.Errorf(model.ErrNotAFile, "Output file %s already exists but is not a file", p)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to stat output file %s: %w", p, err)
	}

	parent := filepath.Dir(p)
	parentInfo, err := os.Stat(parent)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !parents {
			return "", model.Errorf(model.ErrDirectoryNotFound,
				"Output file %s parent %s does not exist", p, parent)
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", parent, err)
		}
		log.Info("Created directory", "path", parent)
	case err != nil:
		return "", fmt.Errorf("failed to stat output directory %s: %w", parent, err)
	case !parentInfo.IsDir():
		return "", model.Errorf(model.ErrNotADirectory,
			"Output file %s parent %s is not a directory", p, parent)
	default:
		if err := checkWritable(parent); err != nil {
			return "", err
		}
	}

	return p, nil
}

// OutputDirectoryPath expands path for use as an output directory,
// creating it (and any parents) when missing.
func OutputDirectoryPath(path string) (string, error) {
	p, err := Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", model.Errorf(model.ErrNotADirectory,
				"Output directory %s already exists but is not a directory", p)
		}
		if err := checkWritable(p); err != nil {
			return "", err
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(p, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", p, err)
		}
		log.Info("Created directory", "path", p)
	default:
		return "", fmt.Errorf("failed to stat output directory %s: %w", p, err)
	}

	return p, nil
}

func validateAll(paths []string, validate func(string) (string, error)) ([]string, error) {
	validated := make([]string, 0, len(paths))
	for _, p := range paths {
		v, err := validate(p)
		if err != nil {
			return nil, err
		}
		validated = append(validated, v)
	}
	return validated, nil
}

// checkReadable opens p for reading. Opening works for both files and
// directories, and the returned error wraps fs.ErrPermission when access
// is denied.
func checkReadable(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", p, err)
	}
	return f.Close()
}

// checkWritable probes dir by creating and removing a temporary file.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".toolbelt-probe-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
