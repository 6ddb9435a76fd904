// Package lint invokes the external linter against a single file and
// reduces its output to the set of smell identifiers it reported.
package lint

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/unbound-force/smelltest/internal/config"
	"github.com/unbound-force/smelltest/internal/tool"
)

// Findings is the set of smell identifiers reported for one file.
type Findings map[string]struct{}

// NewFindings builds a set from ids, collapsing duplicates.
func NewFindings(ids ...string) Findings {
	f := make(Findings, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// Has reports whether smell is in the set.
func (f Findings) Has(smell string) bool {
	_, ok := f[smell]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (f Findings) Sorted() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f Findings) String() string {
	return strings.Join(f.Sorted(), ",")
}

// MarshalJSON encodes the set as a sorted array, or null for a set
// that was never computed.
func (f Findings) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Sorted())
}

// UnmarshalJSON reads the array form written by MarshalJSON.
func (f *Findings) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	if ids == nil {
		*f = nil
		return nil
	}
	*f = NewFindings(ids...)
	return nil
}

// smellPattern matches what a rule code looks like (DL3008, SC2086,
// no-user). Anything else in the identifier position is noise.
var smellPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Options configures an Adapter.
type Options struct {
	Command string
	Args    []string
	Format  string

	// Timeout bounds one linter invocation.
	Timeout time.Duration
}

// OptionsFromConfig maps the linter section of the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Command: cfg.Linter.Command,
		Args:    cfg.Linter.Args,
		Format:  cfg.Linter.Format,
		Timeout: cfg.Timeout,
	}
}

// Adapter runs the configured linter.
type Adapter struct {
	opts Options
}

// New returns an Adapter. An empty Format means text.
func New(opts Options) *Adapter {
	if opts.Format == "" {
		opts.Format = config.FormatText
	}
	return &Adapter{opts: opts}
}

// Lint runs the linter on path and returns the smells it reported.
// A clean file yields an empty set. The path must exist; linting a
// missing file (a fixer that wrote nothing) is a *tool.Error.
func (a *Adapter) Lint(ctx context.Context, path string) (Findings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &tool.Error{Tool: a.opts.Command, Args: []string{path}, ExitCode: -1, Err: err}
	}

	args := append(append([]string{}, a.opts.Args...), path)
	out, err := tool.Run(ctx, tool.Options{Timeout: a.opts.Timeout}, a.opts.Command, args...)
	if err != nil {
		return nil, err
	}

	var (
		findings    Findings
		unparseable int
	)
	switch a.opts.Format {
	case config.FormatJSON:
		findings, err = ParseJSON(out.Stdout)
		if err != nil {
			return nil, &tool.Error{
				Tool:     a.opts.Command,
				Args:     args,
				ExitCode: out.ExitCode,
				Stderr:   string(out.Stderr),
				Err:      err,
			}
		}
	default:
		findings, unparseable = ParseText(out.Stdout, path)
	}

	if len(findings) > 0 {
		return findings, nil
	}
	if out.ExitCode != 0 {
		return nil, &tool.Error{
			Tool:     a.opts.Command,
			Args:     args,
			ExitCode: out.ExitCode,
			Stderr:   string(out.Stderr),
			Err:      errors.New("no findings reported"),
		}
	}
	if unparseable > 0 {
		return nil, &tool.Error{
			Tool:     a.opts.Command,
			Args:     args,
			ExitCode: out.ExitCode,
			Stderr:   string(out.Stderr),
			Err:      fmt.Errorf("%d unparseable output line(s)", unparseable),
		}
	}
	return findings, nil
}

// ParseText parses line-oriented linter output. Each line starts with
// the linted path; after removing it, the second whitespace-separated
// field is the smell identifier:
//
//	Dockerfile:3 DL3008 warning: Pin versions in apt get install
//
// Lines that do not mention path are not findings. It returns the
// findings and the number of non-empty lines that did not yield an
// identifier.
func ParseText(output []byte, path string) (Findings, int) {
	findings := make(Findings)
	unparseable := 0

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if path != "" {
			before, after, found := strings.Cut(line, path)
			if !found {
				unparseable++
				continue
			}
			line = before + after
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !smellPattern.MatchString(fields[1]) {
			unparseable++
			continue
		}
		findings[fields[1]] = struct{}{}
	}
	return findings, unparseable
}

// jsonFinding is one element of the linter's JSON output.
type jsonFinding struct {
	Code  string `json:"code"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	Level string `json:"level"`
}

// ParseJSON parses JSON linter output (hadolint -f json). Empty output
// is treated as no findings.
func ParseJSON(output []byte) (Findings, error) {
	findings := make(Findings)
	if len(bytes.TrimSpace(output)) == 0 {
		return findings, nil
	}

	var items []jsonFinding
	if err := json.Unmarshal(output, &items); err != nil {
		return nil, fmt.Errorf("decoding linter JSON: %w", err)
	}
	for _, it := range items {
		if it.Code == "" {
			continue
		}
		findings[it.Code] = struct{}{}
	}
	return findings, nil
}
