// Package fileutil provides scoped temporary files and directories and the
// backup rename used before a tool overwrites its output.
//
// All operations go through an afero.Fs so that they can be exercised
// against an in-memory filesystem. Default binds them to the real one.
package fileutil

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Files performs file operations on a single filesystem.
type Files struct {
	fs afero.Fs

	// TempDir is where temporary files and directories are created. Empty
	// means os.TempDir().
	TempDir string
}

// New returns Files operating on fs.
func New(fs afero.Fs) *Files {
	return &Files{fs: fs}
}

// Default returns Files operating on the OS filesystem.
func Default() *Files {
	return New(afero.NewOsFs())
}

// Fs returns the underlying filesystem.
func (f *Files) Fs() afero.Fs {
	return f.fs
}

// Ext returns the extension of path including the leading dot, or "" when
// there is none. Only the last extension counts: "a.tar.gz" yields ".gz".
// Leading dots belong to the name, so ".bashrc" has no extension.
func Ext(path string) string {
	return filepath.Ext(strings.TrimLeft(filepath.Base(path), "."))
}

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, Ext(base))
}
