package manifest

import (
	"os"
	"path/filepath"
)

// Discover searches for DefaultFile in start and its parent directories,
// stopping at the first directory that holds a .git entry or at the
// filesystem root. It returns the path where the manifest is expected in
// start when none is found, so the loader reports a clear not-found error.
func Discover(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return filepath.Join(start, DefaultFile)
	}
	first := filepath.Join(dir, DefaultFile)

	for {
		candidate := filepath.Join(dir, DefaultFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		// Stop at repository root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return first
}
