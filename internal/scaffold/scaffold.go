// Package scaffold embeds a starter configuration and example smell
// fixtures and writes them to a target project directory.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/unbound-force/smelltest/internal/config"
)

//go:embed assets/*
var assets embed.FS

// configAsset is stored without its leading dot because embed skips
// dotfiles; it is written as config.DefaultFile.
const configAsset = "smelltest.yaml"

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is the smelltest version string to embed in the
	// version marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did. Paths are relative
// to the target directory, with forward slashes.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the comment prepended to each scaffolded
// file. '#' starts a comment in both YAML and Dockerfiles.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by smelltest %s\n", version)
}

// Run writes the starter config and the example fixture tree into the
// target directory:
//
//	.smelltest.yaml
//	test/DL3006/untagged-from
//	test/DL3008/apt-get-unpinned
//	test/DL3020/add-instead-of-copy
//
// Each file is prepended with a version marker comment. If a file
// already exists and opts.Force is false, the file is skipped.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	result := &Result{}
	marker := versionMarker(opts.Version)

	err := fs.WalkDir(assets, "assets", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := targetPath(strings.TrimPrefix(p, "assets/"))
		outPath := filepath.Join(opts.TargetDir, filepath.FromSlash(rel))

		_, statErr := os.Stat(outPath)
		exists := statErr == nil

		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, rel)
			return nil
		}

		content, err := assets.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading embedded asset %s: %w", p, err)
		}

		dir := filepath.Dir(outPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		out := append([]byte(marker), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", rel, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, rel)
		} else {
			result.Created = append(result.Created, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	printSummary(opts.Stdout, result)

	return result, nil
}

// targetPath maps an asset path to where it is written.
func targetPath(rel string) string {
	if rel == configAsset {
		return config.DefaultFile
	}
	return rel
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "smelltest project initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run smelltest to check the fixer against the example fixtures.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// AssetPaths returns the target-relative paths of all embedded
// assets.
func AssetPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(assets, "assets", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, targetPath(strings.TrimPrefix(p, "assets/")))
		return nil
	})
	return paths, err
}

// AssetContent returns the raw content of an embedded asset by its
// target-relative path (e.g. "test/DL3008/apt-get-unpinned").
func AssetContent(rel string) ([]byte, error) {
	if rel == config.DefaultFile {
		rel = configAsset
	}
	return assets.ReadFile(path.Join("assets", rel))
}
