// Package fixture discovers smell fixtures on disk and removes the
// artifacts previous runs left next to them.
//
// The fixture root holds one directory per smell category, named after
// the smell's rule code; a category may be a symlink to a directory.
// Every regular file in a category directory is a fixture that is
// expected to exhibit that smell:
//
//	test/
//	  DL3008/
//	    apt-get-unpinned
//	    apt-get-multiline
//	  DL3006/
//	    untagged-from
package fixture

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Artifact markers. A file whose name contains either marker is output
// of the fixer, never a fixture.
const (
	FixedMarker = "-fixed"
	LogMarker   = "-log.html"
)

// Fixture is a single sample file for a smell category.
type Fixture struct {
	// Path is the absolute path of the fixture file.
	Path string `json:"path"`

	// Category is the smell the fixture is filed under.
	Category string `json:"category"`
}

// FixedPath is where the fixer writes its output for this fixture.
func (f Fixture) FixedPath() string {
	return f.Path + FixedMarker
}

// LogPath is where the fixer writes its HTML diff log.
func (f Fixture) LogPath() string {
	return f.Path + LogMarker
}

// Category is one smell directory and the fixtures it holds.
type Category struct {
	// Name is the smell identifier (the directory's base name).
	Name string `json:"name"`

	// Dir is the absolute path of the category directory.
	Dir string `json:"dir"`

	// Fixtures are in directory listing order.
	Fixtures []Fixture `json:"fixtures"`
}

// Match reports whether category name passes filter. An empty filter
// matches everything; otherwise filter must be a substring of name.
func Match(name, filter string) bool {
	return filter == "" || strings.Contains(name, filter)
}

// IsArtifact reports whether a file name belongs to fixer output.
func IsArtifact(name string) bool {
	return strings.Contains(name, FixedMarker) || strings.Contains(name, LogMarker)
}

// Discover returns the categories under root whose name matches
// filter, in directory listing order. Category directories are read
// lazily as the sequence is consumed; ranging over the result again
// re-scans the disk. An error is yielded once and ends the sequence.
func Discover(root, filter string) iter.Seq2[Category, error] {
	return func(yield func(Category, error) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			yield(Category{}, fmt.Errorf("resolving fixture root %q: %w", root, err))
			return
		}

		entries, err := os.ReadDir(absRoot)
		if err != nil {
			yield(Category{}, fmt.Errorf("reading fixture root: %w", err))
			return
		}

		for _, e := range entries {
			if isHidden(e.Name()) || !isDir(absRoot, e) {
				continue
			}
			if !Match(e.Name(), filter) {
				continue
			}

			cat, err := readCategory(filepath.Join(absRoot, e.Name()))
			if !yield(cat, err) || err != nil {
				return
			}
		}
	}
}

// isDir reports whether e is a directory, following a symlink.
func isDir(parent string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.IsDir()
	}
	fi, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && fi.IsDir()
}

// readCategory lists the fixtures of one category directory.
func readCategory(dir string) (Category, error) {
	name := filepath.Base(dir)
	cat := Category{Name: name, Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return cat, fmt.Errorf("reading category %q: %w", name, err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || isHidden(e.Name()) || IsArtifact(e.Name()) {
			continue
		}
		cat.Fixtures = append(cat.Fixtures, Fixture{
			Path:     filepath.Join(dir, e.Name()),
			Category: name,
		})
	}
	return cat, nil
}

// Collect drains Discover into a slice.
func Collect(root, filter string) ([]Category, error) {
	var cats []Category
	for cat, err := range Discover(root, filter) {
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
