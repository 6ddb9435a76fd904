// Package verify decides, for one fixture, whether the fixer removed
// the smell the fixture is filed under.
//
// Each fixture goes through three steps exactly once:
//
//  1. PreCheck: lint the fixture. If its own smell is not reported the
//     fixture cannot test anything and is skipped as a bad fixture;
//     the fixer is not run.
//  2. Fix: run the fixer for that smell. Its exit status is ignored,
//     but a fixer that could not run to completion (killed on timeout)
//     is NOT_FIXED and its partial artifact is never linted.
//  3. PostCheck: lint the fixed artifact. The smell still being
//     reported, or the artifact being unlintable, is NOT_FIXED.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/smelltest/internal/fixture"
	"github.com/unbound-force/smelltest/internal/lint"
	"github.com/unbound-force/smelltest/internal/tool"
)

// Verdict is the outcome of verifying one fixture.
type Verdict string

// Verdicts are mutually exclusive and exhaustive.
const (
	SkippedBadFixture Verdict = "SKIPPED_BAD_FIXTURE"
	Fixed             Verdict = "FIXED"
	NotFixed          Verdict = "NOT_FIXED"
)

// Linter reports the smells present in a file.
type Linter interface {
	Lint(ctx context.Context, path string) (lint.Findings, error)
}

// Fixer attempts to remove smell from path, writing path's fixed
// artifact.
type Fixer interface {
	Fix(ctx context.Context, path, smell string, date time.Time) error
}

// Result is the verification outcome for one fixture.
type Result struct {
	Fixture fixture.Fixture `json:"fixture"`
	Verdict Verdict         `json:"verdict"`

	// Before holds the findings on the fixture itself.
	Before lint.Findings `json:"before"`

	// After holds the findings on the fixed artifact; nil when the
	// fixer was not run or the artifact could not be linted.
	After lint.Findings `json:"after"`

	// Diagnostic explains a bad fixture or a tool failure, without
	// naming the fixture.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Engine runs the verification steps against a linter and a fixer.
type Engine struct {
	linter        Linter
	fixer         Fixer
	referenceDate time.Time
	logger        *charmlog.Logger
	onFix         func(fixture.Fixture)
}

// Options configures an Engine.
type Options struct {
	// ReferenceDate is handed to every fixer invocation.
	ReferenceDate time.Time

	// Logger receives per-step debug output. Nil discards.
	Logger *charmlog.Logger

	// OnFix, if set, is called right before the fixer runs, so
	// progress can be shown while a slow fixer works.
	OnFix func(fixture.Fixture)
}

// New returns an Engine.
func New(linter Linter, fixer Fixer, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = charmlog.New(io.Discard)
	}
	return &Engine{
		linter:        linter,
		fixer:         fixer,
		referenceDate: opts.ReferenceDate,
		logger:        logger,
		onFix:         opts.OnFix,
	}
}

// Verify runs PreCheck, Fix and PostCheck for f. Bad fixtures and
// regressions are verdicts, not errors. The returned error is non-nil
// only when the run cannot continue: a tool is not installed, or ctx
// was cancelled.
func (e *Engine) Verify(ctx context.Context, f fixture.Fixture) (Result, error) {
	res := Result{Fixture: f}
	smell := f.Category

	before, err := e.linter.Lint(ctx, f.Path)
	if err != nil {
		if fatal(ctx, err) {
			return res, fmt.Errorf("linting %s: %w", f.Path, err)
		}
		res.Verdict = SkippedBadFixture
		res.Diagnostic = "linting failed: " + firstLine(err)
		return res, nil
	}
	res.Before = before
	e.logger.Debug("pre-check", "fixture", f.Path, "findings", before.String())

	if !before.Has(smell) {
		res.Verdict = SkippedBadFixture
		res.Diagnostic = "it does not contain " + smell
		return res, nil
	}

	if e.onFix != nil {
		e.onFix(f)
	}
	if err := e.fixer.Fix(ctx, f.Path, smell, e.referenceDate); err != nil {
		if fatal(ctx, err) {
			return res, fmt.Errorf("fixing %s: %w", f.Path, err)
		}
		e.logger.Debug("fixer failed", "fixture", f.Path, "err", err)
		res.Verdict = NotFixed
		res.Diagnostic = "fixer failed: " + firstLine(err)
		return res, nil
	}

	after, err := e.linter.Lint(ctx, f.FixedPath())
	if err != nil {
		if fatal(ctx, err) {
			return res, fmt.Errorf("linting %s: %w", f.FixedPath(), err)
		}
		res.Verdict = NotFixed
		res.Diagnostic = "could not lint fixed output: " + firstLine(err)
		return res, nil
	}
	res.After = after
	e.logger.Debug("post-check", "fixture", f.Path, "findings", after.String())

	if after.Has(smell) {
		res.Verdict = NotFixed
		return res, nil
	}
	res.Verdict = Fixed
	return res, nil
}

// fatal reports whether err must abort the whole run rather than
// decide this fixture's verdict.
func fatal(ctx context.Context, err error) bool {
	if tool.IsSetup(err) {
		return true
	}
	if ctx.Err() != nil {
		return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

// firstLine keeps a diagnostic on one line; tool errors carry the
// captured stderr after the first newline.
func firstLine(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}
