package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unbound-force/smelltest/internal/fixture"
	"github.com/unbound-force/smelltest/internal/verify"
)

// Stream writes the line-oriented progress of a run as fixtures are
// processed:
//
//	Testing smell: ALL
//	no-user/Dockerfile.clean is a bad test case: it does not contain no-user
//	Running dockleaner on no-user/Dockerfile.bad... OK
//	Running dockleaner on pinned-version/Dockerfile... NOT FIXED!
type Stream struct {
	w     io.Writer
	root  string
	fixer string
	s     Styles

	// open is set while a Running line awaits its verdict.
	open bool
}

// NewStream returns a Stream writing to w. Fixture paths are shown
// relative to root; fixer names the fixer in progress lines.
func NewStream(w io.Writer, root, fixer string) *Stream {
	return &Stream{w: w, root: root, fixer: fixer, s: DefaultStyles()}
}

// Banner announces which smells are under test.
func (st *Stream) Banner(filter string) {
	target := "ALL"
	if filter != "" {
		target = filter
	}
	fmt.Fprintf(st.w, "Testing smell: %s\n", st.s.Header.Render(target))
}

// Running starts the progress line for a fixture about to be fixed.
// The line is completed by Verdict.
func (st *Stream) Running(f fixture.Fixture) {
	fmt.Fprintf(st.w, "Running %s on %s... ", st.fixer, st.display(f.Path))
	st.open = true
}

// Verdict writes the outcome of a fixture. For a bad fixture this is
// a full line of its own, since Running was never called.
func (st *Stream) Verdict(res verify.Result) {
	st.open = false
	style := st.s.VerdictStyle(res.Verdict)
	switch res.Verdict {
	case verify.SkippedBadFixture:
		diag := diagnosticLines(res.Diagnostic)
		fmt.Fprintln(st.w, style.Render(fmt.Sprintf("%s is a bad test case: %s",
			st.display(res.Fixture.Path), diag[0])))
		for _, line := range diag[1:] {
			fmt.Fprintln(st.w, style.Render("    "+line))
		}
	case verify.Fixed:
		fmt.Fprintln(st.w, style.Render("OK"))
	case verify.NotFixed:
		fmt.Fprintln(st.w, style.Render("NOT FIXED!"))
		if res.Diagnostic != "" {
			for _, line := range diagnosticLines(res.Diagnostic) {
				fmt.Fprintln(st.w, st.s.Muted.Render("    "+line))
			}
		}
	}
}

// Break terminates a Running line that will never get a verdict
// because the run was aborted.
func (st *Stream) Break() {
	if st.open {
		fmt.Fprintln(st.w)
		st.open = false
	}
}

// diagnosticLines splits a diagnostic so each line can be indented
// under its fixture. It always returns at least one line.
func diagnosticLines(diag string) []string {
	return strings.Split(strings.TrimRight(diag, "\n"), "\n")
}

// display shortens path to be relative to the fixture root.
func (st *Stream) display(path string) string {
	return displayPath(st.root, path)
}

func displayPath(root, path string) string {
	if root == "" {
		return path
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return filepath.ToSlash(rel)
}
