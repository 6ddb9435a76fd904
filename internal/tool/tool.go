// Package tool runs the external collaborators of the harness (the
// linter and the fixer) as child processes with bounded lifetimes.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// ErrNotFound reports that a tool binary could not be started at all.
// It is a setup error: the whole run is aborted when it is seen.
var ErrNotFound = errors.New("tool not found")

// waitDelay bounds how long a killed process may keep its output
// pipes open (grandchildren inherit them).
const waitDelay = 2 * time.Second

// Error is returned when an external tool could not be invoked,
// timed out, or produced output the caller could not use.
type Error struct {
	// Tool is the command name as configured.
	Tool string

	// Args are the arguments the tool was invoked with.
	Args []string

	// ExitCode is the process exit status, or -1 when the process
	// never exited normally.
	ExitCode int

	// Stderr holds the captured standard error, if any.
	Stderr string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Output is the result of a completed process.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Options configures a single invocation.
type Options struct {
	// Timeout bounds the invocation. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Discard sends stdout and stderr to the null device instead of
	// capturing them.
	Discard bool
}

// Run starts name with args and waits for it to exit. A non-zero exit
// status is reported in Output.ExitCode and is not an error. Errors are
// always *Error; a binary that cannot be started also matches
// ErrNotFound and an expired timeout matches context.DeadlineExceeded.
func Run(ctx context.Context, opts Options, name string, args ...string) (*Output, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	if !opts.Discard {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Start(); err != nil {
		if isMissing(err) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, &Error{Tool: name, Args: args, ExitCode: -1, Err: err}
	}

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &Error{
			Tool:     name,
			Args:     args,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      ctxErr,
		}
	}

	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: 0,
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &Error{
				Tool:     name,
				Args:     args,
				ExitCode: -1,
				Stderr:   stderr.String(),
				Err:      waitErr,
			}
		}
		out.ExitCode = exitErr.ExitCode()
	}
	return out, nil
}

// IsSetup reports whether err means a tool is not installed, which
// aborts the run instead of failing a single fixture.
func IsSetup(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}
