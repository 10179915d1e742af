package fileutil

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// WithTempFile calls fn with the path of a temporary file that does not
// exist yet; fn is expected to create it, typically by passing the path to
// an external program. suffix is appended to the random name, e.g. ".csv".
//
// Whatever is at the path afterwards is removed, whether fn returns
// normally, fails or panics. A file the process is not allowed to remove is
// left behind and logged at debug level.
func (f *Files) WithTempFile(suffix string, fn func(path string) error) error {
	file, err := afero.TempFile(f.fs, f.TempDir, "toolbelt-*"+suffix)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	path := file.Name()

	// Reserve the name only; the caller creates the file.
	_ = file.Close()
	if err := f.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to release temporary file %s: %w", path, err)
	}

	defer f.cleanup(path, f.fs.Remove)
	return fn(path)
}

// WithTempDir calls fn with the path of a new, empty temporary directory.
// The directory and everything in it is removed afterwards, with the same
// guarantees as WithTempFile.
func (f *Files) WithTempDir(fn func(path string) error) error {
	dir, err := afero.TempDir(f.fs, f.TempDir, "toolbelt-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}

	defer f.cleanup(dir, f.fs.RemoveAll)
	return fn(dir)
}

func (f *Files) cleanup(path string, remove func(string) error) {
	err := remove(path)
	switch {
	case err == nil, errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, fs.ErrPermission):
		log.Debug("Could not remove temporary path", "path", path, "err", err)
	default:
		log.Warn("Could not remove temporary path", "path", path, "err", err)
	}
}

// WithTempFile is WithTempFile on the OS filesystem.
func WithTempFile(suffix string, fn func(path string) error) error {
	return Default().WithTempFile(suffix, fn)
}

// WithTempDir is WithTempDir on the OS filesystem.
func WithTempDir(fn func(path string) error) error {
	return Default().WithTempDir(fn)
}
