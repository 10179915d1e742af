package validation

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// DefaultPlatforms lists the GOOS values Executable accepts when the caller
// does not name any.
var DefaultPlatforms = []string{"darwin", "linux", "windows"}

// Executable resolves name on the search path and returns its absolute,
// symlink-free path. supportedPlatforms are GOOS values compared without
// regard to case ("Linux" and "linux" are the same platform).
func Executable(name string, supportedPlatforms ...string) (string, error) {
	if len(supportedPlatforms) == 0 {
		supportedPlatforms = DefaultPlatforms
	}

	supported := false
	for _, p := range supportedPlatforms {
		if strings.EqualFold(p, runtime.GOOS) {
			supported = true
			break
		}
	}
	if !supported {
		return "", model.Errorf(model.ErrUnsupportedPlatform,
			"Executable '%s' is not supported on %s", name, runtime.GOOS)
	}

	found, err := exec.LookPath(name)
	if err != nil {
		return "", model.Wrap(model.ErrExecutableNotFound, err,
			"Executable '%s' not found in '%s'", name, os.Getenv("PATH"))
	}

	abs, err := filepath.Abs(found)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable %s: %w", found, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}
