// Package run drives one pass of the regression harness: it purges
// stale artifacts, walks the fixture tree, verifies every fixture and
// accumulates the report.
package run

import (
	"context"
	"fmt"
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/smelltest/internal/config"
	"github.com/unbound-force/smelltest/internal/fixture"
	"github.com/unbound-force/smelltest/internal/report"
	"github.com/unbound-force/smelltest/internal/verify"
)

// Options configures a run.
type Options struct {
	// Root is the fixture root directory.
	Root string

	// Filter restricts the run to categories whose name contains it.
	// Empty runs every category.
	Filter string

	// ReferenceDate is handed to the fixer.
	ReferenceDate time.Time

	Linter verify.Linter
	Fixer  verify.Fixer

	// FixerName is shown in progress lines.
	FixerName string

	// Out receives the progress stream. Nil discards it.
	Out io.Writer

	// Logger receives operational messages. Nil discards them.
	Logger *charmlog.Logger
}

// Run verifies every matching fixture under opts.Root, sequentially
// and in listing order. Bad fixtures and unfixed smells are recorded
// in the report, not returned as errors. An error means the run
// stopped early: the fixture tree could not be read, a tool is not
// installed, or ctx was cancelled. The report accumulated so far is
// returned alongside the error.
func Run(ctx context.Context, opts Options) (*report.Report, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = charmlog.New(io.Discard)
	}

	removed, err := fixture.Clean(opts.Root)
	if err != nil {
		return nil, err
	}
	logger.Info("cleaned artifacts", "root", opts.Root, "removed", removed)

	rep := report.New(opts.Root, opts.Filter, opts.ReferenceDate.Format(config.DateLayout))
	logger.Debug("starting run", "run_id", rep.RunID, "filter", opts.Filter)

	stream := report.NewStream(out, opts.Root, opts.FixerName)
	stream.Banner(opts.Filter)

	engine := verify.New(opts.Linter, opts.Fixer, verify.Options{
		ReferenceDate: opts.ReferenceDate,
		Logger:        logger,
		OnFix:         stream.Running,
	})

	for cat, err := range fixture.Discover(opts.Root, opts.Filter) {
		if err != nil {
			return rep, err
		}
		rep.AddCategory(cat.Name)
		logger.Debug("category", "smell", cat.Name, "fixtures", len(cat.Fixtures))

		for _, f := range cat.Fixtures {
			if err := ctx.Err(); err != nil {
				return rep, fmt.Errorf("run interrupted: %w", err)
			}

			res, err := engine.Verify(ctx, f)
			if err != nil {
				stream.Break()
				return rep, err
			}
			stream.Verdict(res)
			rep.Add(res)
		}
	}

	logger.Debug("run finished",
		"fixtures", rep.Summary.Total,
		"fixed", rep.Summary.Fixed,
		"not_fixed", rep.Summary.NotFixed,
		"bad_fixtures", rep.Summary.BadFixtures,
	)
	return rep, nil
}
