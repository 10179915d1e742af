package fileutil

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// maxBackups is the number of three-digit indices available to backups.
const maxBackups = 1000

// RenamePreexistingOutputPath moves an existing file or directory at path
// out of the way so that a tool can write a fresh one. The entry is renamed
// to "<stem>_NNN<ext>" in the same directory, where NNN is the lowest
// zero-padded index not yet taken, so earlier backups are never
// overwritten: out.txt becomes out_000.txt, then out_001.txt, and so on.
//
// It returns the backup path, or "" when nothing existed at path.
func (f *Files) RenamePreexistingOutputPath(path string) (string, error) {
	exists, err := afero.Exists(f.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return "", nil
	}

	dir, stem, ext := filepath.Dir(path), Stem(path), Ext(path)
	for i := 0; i < maxBackups; i++ {
		backup := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", stem, i, ext))
		taken, err := afero.Exists(f.fs, backup)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", backup, err)
		}
		if taken {
			continue
		}

		if err := f.fs.Rename(path, backup); err != nil {
			return "", fmt.Errorf("failed to rename %s to %s: %w", path, backup, err)
		}
		log.Info("Renamed pre-existing output", "from", path, "to", backup)
		return backup, nil
	}
	return "", model.Errorf(model.ErrFileExists,
		"no free backup name for %s: indices 000 to %03d are taken", path, maxBackups-1)
}

// RenamePreexistingOutputPath is RenamePreexistingOutputPath on the OS
// filesystem.
func RenamePreexistingOutputPath(path string) (string, error) {
	return Default().RenamePreexistingOutputPath(path)
}
