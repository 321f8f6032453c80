package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// UpToDate reports whether a rule's declared outputs are current with respect
// to its declared inputs. All paths are resolved relative to workdir.
//
// A rule is up to date when every output exists and the oldest output is no
// older than the newest input. A missing input makes the rule stale rather
// than erroring here; the executor decides whether a missing input is fatal.
func UpToDate(workdir string, outputs, inputs []string) (bool, error) {
	if len(outputs) == 0 {
		// Nothing to compare against, so the rule always runs.
		return false, nil
	}

	var oldestOutput time.Time
	for i, out := range outputs {
		info, err := os.Stat(filepath.Join(workdir, out))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if i == 0 || info.ModTime().Before(oldestOutput) {
			oldestOutput = info.ModTime()
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(filepath.Join(workdir, in))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if info.ModTime().After(oldestOutput) {
			return false, nil
		}
	}

	return true, nil
}

// Exists reports whether the path, resolved relative to workdir, exists.
func Exists(workdir, path string) bool {
	_, err := os.Stat(filepath.Join(workdir, path))
	return err == nil
}
