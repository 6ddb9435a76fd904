package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/smelltest/internal/config"
	"github.com/unbound-force/smelltest/internal/fix"
	"github.com/unbound-force/smelltest/internal/fixture"
	"github.com/unbound-force/smelltest/internal/lint"
	"github.com/unbound-force/smelltest/internal/report"
	"github.com/unbound-force/smelltest/internal/run"
	"github.com/unbound-force/smelltest/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	root       string
}

func newRootCmd() *cobra.Command {
	var (
		g             globalFlags
		format        string
		referenceDate string
		timeout       time.Duration
		interactive   bool
		verbose       bool
	)

	root := &cobra.Command{
		Use:   "smelltest [smell-filter]",
		Short: "smelltest: regression harness for a Dockerfile smell fixer",
		Long: `smelltest runs a smell fixer over a directory of Dockerfile fixtures
and checks, with a linter, that each fixture's smell is gone afterwards.

The fixture root holds one directory per smell, named after the rule
code; every file in it must exhibit that smell. An optional filter
restricts the run to smells whose name contains it.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var filter string
			if len(args) == 1 {
				filter = args[0]
			}
			return runSuite(ctx, suiteParams{
				globalFlags:   g,
				filter:        filter,
				format:        format,
				referenceDate: referenceDate,
				timeout:       timeout,
				interactive:   interactive,
				verbose:       verbose,
				stdout:        cmd.OutOrStdout(),
				stderr:        cmd.ErrOrStderr(),
			})
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "",
		"config file (default: "+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVarP(&g.root, "root", "r", "",
		"fixture root directory (default: config root, or ./test)")

	root.Flags().StringVar(&format, "format", config.FormatText,
		"output format: text or json")
	root.Flags().StringVarP(&referenceDate, "reference-date", "d", "",
		"reference date handed to the fixer (YYYY-MM-DD)")
	root.Flags().DurationVar(&timeout, "timeout", 0,
		"timeout for each linter or fixer invocation (default: config timeout)")
	root.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"browse the final report in an interactive TUI")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(newInitCmd())
	root.AddCommand(newCleanCmd(&g))
	root.AddCommand(newListCmd(&g))
	root.AddCommand(newSchemaCmd())

	return root
}

// loadConfig loads the configuration and applies the shared flags.
func loadConfig(g globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.root != "" {
		cfg.Root = g.root
	}
	return cfg, nil
}

// setLogLevel applies the configured level, raised to debug by
// verbose.
func setLogLevel(cfg *config.Config, verbose bool) error {
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
		return nil
	}
	lvl, err := charmlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(lvl)
	return nil
}

// suiteParams holds the parsed flags for the root command.
type suiteParams struct {
	globalFlags
	filter        string
	format        string
	referenceDate string
	timeout       time.Duration
	interactive   bool
	verbose       bool
	stdout        io.Writer
	stderr        io.Writer
}

// runSuite is the extracted, testable body of the root command.
func runSuite(ctx context.Context, p suiteParams) error {
	if p.format != config.FormatText && p.format != config.FormatJSON {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	cfg, err := loadConfig(p.globalFlags)
	if err != nil {
		return err
	}
	if p.referenceDate != "" {
		cfg.ReferenceDate = p.referenceDate
	}
	if p.timeout != 0 {
		cfg.Timeout = p.timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := setLogLevel(cfg, p.verbose); err != nil {
		return err
	}
	date, err := cfg.Date()
	if err != nil {
		return err
	}

	fixOpts := fix.OptionsFromConfig(cfg)
	fixOpts.Logger = logger
	fixer := fix.New(fixOpts)

	// The progress stream goes to stdout for text output and stays
	// out of the way on stderr when stdout carries JSON.
	progress := p.stdout
	if p.format == config.FormatJSON {
		progress = p.stderr
	}

	logger.Debug("loaded configuration",
		"root", cfg.Root,
		"linter", cfg.Linter.Command,
		"fixer", cfg.Fixer.Command,
		"reference_date", cfg.ReferenceDate,
		"timeout", cfg.Timeout,
	)

	rep, err := run.Run(ctx, run.Options{
		Root:          cfg.Root,
		Filter:        p.filter,
		ReferenceDate: date,
		Linter:        lint.New(lint.OptionsFromConfig(cfg)),
		Fixer:         fixer,
		FixerName:     fixer.Name(),
		Out:           progress,
		Logger:        logger,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted; artifacts are removed by the next run")
		}
		return err
	}

	logger.Info("run complete",
		"run_id", rep.RunID,
		"fixtures", rep.Summary.Total,
		"fixed", rep.Summary.Fixed,
	)

	if p.interactive {
		if err := runInteractiveReport(rep); err != nil {
			return err
		}
	} else if err := writeReport(p.stdout, p.format, rep); err != nil {
		return err
	}

	return checkResult(rep)
}

// writeReport outputs the run report in the requested format.
func writeReport(w io.Writer, format string, rep *report.Report) error {
	switch format {
	case config.FormatJSON:
		return report.WriteJSON(w, rep)
	default:
		return report.WriteText(w, rep)
	}
}

// checkResult returns an error when the run should fail CI.
func checkResult(rep *report.Report) error {
	if !rep.Failed() {
		return nil
	}
	return fmt.Errorf("%d fixture(s) not fixed, %d bad fixture(s)",
		rep.Summary.NotFixed, rep.Summary.BadFixtures)
}

// cleanParams holds the parsed flags for the clean command.
type cleanParams struct {
	globalFlags
	stdout io.Writer
}

// runClean is the extracted, testable body of the clean command.
func runClean(p cleanParams) error {
	cfg, err := loadConfig(p.globalFlags)
	if err != nil {
		return err
	}
	removed, err := fixture.Clean(cfg.Root)
	if err != nil {
		return err
	}
	logger.Debug("cleaned artifacts", "root", cfg.Root, "removed", removed)
	_, err = fmt.Fprintf(p.stdout, "Removed %d artifact(s) under %s\n", removed, cfg.Root)
	return err
}

func newCleanCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove fixer artifacts from the fixture tree",
		Long: `Remove every fixed output (*-fixed) and fix log (*-log.html) left
under the fixture root by earlier runs. A run does this on its own
before it starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cleanParams{globalFlags: *g, stdout: cmd.OutOrStdout()})
		},
	}
}

// listParams holds the parsed flags for the list command.
type listParams struct {
	globalFlags
	filter string
	stdout io.Writer
}

// runList is the extracted, testable body of the list command.
func runList(p listParams) error {
	cfg, err := loadConfig(p.globalFlags)
	if err != nil {
		return err
	}

	s := report.DefaultStyles()
	n := 0
	for cat, err := range fixture.Discover(cfg.Root, p.filter) {
		if err != nil {
			return err
		}
		n++
		fmt.Fprintf(p.stdout, "%s %s\n", s.Header.Render(cat.Name),
			s.Muted.Render(fmt.Sprintf("(%d fixture(s))", len(cat.Fixtures))))
		for _, f := range cat.Fixtures {
			fmt.Fprintf(p.stdout, "  %s\n", filepath.Base(f.Path))
		}
	}
	if n == 0 {
		fmt.Fprintln(p.stdout, s.Muted.Render("No smell categories matched."))
	}
	return nil
}

func newListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [smell-filter]",
		Short: "List smell categories and their fixtures",
		Long: `List the smell categories under the fixture root and the fixtures
each one holds, without running the linter or the fixer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter string
			if len(args) == 1 {
				filter = args[0]
			}
			return runList(listParams{globalFlags: *g, filter: filter, stdout: cmd.OutOrStdout()})
		},
	}
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	targetDir string
	force     bool
	stdout    io.Writer
}

// runInit is the extracted, testable body of the init command.
func runInit(p initParams) error {
	_, err := scaffold.Run(scaffold.Options{
		TargetDir: p.targetDir,
		Force:     p.force,
		Version:   version,
		Stdout:    p.stdout,
	})
	return err
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter config and example fixtures",
		Long: `Write ` + config.DefaultFile + ` and an example fixture tree under test/
into dir (default: the current directory). Existing files are kept
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(initParams{targetDir: dir, force: force, stdout: cmd.OutOrStdout()})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing files")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for smelltest JSON output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of smelltest --format=json output. Useful for
validating output in CI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}
