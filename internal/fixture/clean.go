package fixture

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Clean removes every fixed artifact and fix log under root, at any
// depth, and returns how many files it removed. Hidden directories are
// not entered. A root that is a symlink is followed, as are symlinked
// category directories directly under it, so Clean sees the same tree
// Discover does. Running it twice leaves the same tree as running it
// once.
func Clean(root string) (int, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return 0, fmt.Errorf("cleaning %q: %w", root, err)
	}

	removed, err := cleanDir(resolved, true)
	if err != nil {
		return removed, fmt.Errorf("cleaning %q: %w", root, err)
	}
	return removed, nil
}

// cleanDir walks dir removing artifacts. With followLinks set, a
// symlink in dir itself that points at a directory is cleaned too.
func cleanDir(dir string, followLinks bool) (int, error) {
	removed := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if followLinks && d.Type()&fs.ModeSymlink != 0 && filepath.Dir(path) == dir && !isHidden(d.Name()) {
			if target, ok := linkedDir(path); ok {
				n, err := cleanDir(target, false)
				removed += n
				return err
			}
		}

		if !isStaleArtifact(d.Name()) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing artifact: %w", err)
		}
		removed++
		return nil
	})
	return removed, err
}

// linkedDir resolves a symlink that points at a directory.
func linkedDir(path string) (string, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return "", false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	return target, true
}

func isStaleArtifact(name string) bool {
	return strings.HasSuffix(name, FixedMarker) || strings.HasSuffix(name, LogMarker)
}
