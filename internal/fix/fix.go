// Package fix invokes the external smell fixer on a single fixture.
package fix

import (
	"context"
	"io"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/smelltest/internal/config"
	"github.com/unbound-force/smelltest/internal/fixture"
	"github.com/unbound-force/smelltest/internal/tool"
)

// ArtifactSuffix is appended to a fixture path to name the fixer's
// output file.
const ArtifactSuffix = fixture.FixedMarker

// ArtifactPath returns where the fixer writes its output for path.
func ArtifactPath(path string) string {
	return path + ArtifactSuffix
}

// Options configures an Adapter.
type Options struct {
	// Name is shown in progress lines; empty uses the command's base
	// name.
	Name string

	Command string
	Args    []string

	PathFlag string
	DateFlag string
	RuleFlag string

	// Timeout bounds one fixer invocation.
	Timeout time.Duration

	// Logger receives debug output about fixer exits. Nil discards.
	Logger *charmlog.Logger
}

// OptionsFromConfig maps the fixer section of the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Name:     cfg.Fixer.Name,
		Command:  cfg.Fixer.Command,
		Args:     cfg.Fixer.Args,
		PathFlag: cfg.Fixer.PathFlag,
		DateFlag: cfg.Fixer.DateFlag,
		RuleFlag: cfg.Fixer.RuleFlag,
		Timeout:  cfg.Timeout,
	}
}

// Adapter runs the configured fixer.
type Adapter struct {
	opts   Options
	logger *charmlog.Logger
}

// New returns an Adapter.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = charmlog.New(io.Discard)
	}
	return &Adapter{opts: opts, logger: logger}
}

// Name identifies the fixer in progress messages.
func (a *Adapter) Name() string {
	if a.opts.Name != "" {
		return a.opts.Name
	}
	return filepath.Base(a.opts.Command)
}

// Args builds the full argument list for fixing smell in path.
func (a *Adapter) Args(path, smell string, date time.Time) []string {
	args := append([]string{}, a.opts.Args...)
	args = appendFlag(args, a.opts.PathFlag, path)
	args = appendFlag(args, a.opts.DateFlag, date.Format(config.DateLayout))
	args = appendFlag(args, a.opts.RuleFlag, smell)
	return args
}

// Fix asks the fixer to remove smell from path, writing
// ArtifactPath(path). Console output is discarded. The fixer's exit
// status is not checked: whether the fix worked is decided by linting
// the artifact. Only failures to run the fixer to completion (not
// installed, killed on timeout) are returned.
func (a *Adapter) Fix(ctx context.Context, path, smell string, date time.Time) error {
	args := a.Args(path, smell, date)
	out, err := tool.Run(ctx, tool.Options{Timeout: a.opts.Timeout, Discard: true}, a.opts.Command, args...)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		a.logger.Debug("fixer exited non-zero", "path", path, "smell", smell, "status", out.ExitCode)
	}
	return nil
}

// appendFlag adds value, preceded by flag when one is configured.
func appendFlag(args []string, flag, value string) []string {
	if flag != "" {
		args = append(args, flag)
	}
	return append(args, value)
}
