package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/smelltest/internal/verify"
)

// WriteText writes the run summary as human-readable styled text: a
// per-category table, the totals, and the list of failing fixtures.
func WriteText(w io.Writer, r *Report) error {
	s := DefaultStyles()

	if len(r.Summary.Categories) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No smell categories matched."))
		return nil
	}

	cats := r.Summary.Categories
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Fixtures),
			strconv.Itoa(c.Fixed),
			strconv.Itoa(c.NotFixed),
			strconv.Itoa(c.BadFixtures),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if row < 0 || row >= len(cats) {
				return lipgloss.NewStyle()
			}
			switch {
			case col == 3 && cats[row].NotFixed > 0:
				return s.Fail
			case col == 4 && cats[row].BadFixtures > 0:
				return s.Warn
			}
			return lipgloss.NewStyle()
		}).
		Headers("SMELL", "FIXTURES", "FIXED", "NOT FIXED", "BAD").
		Rows(rows...)

	fmt.Fprintln(w)
	fmt.Fprintln(w, t)

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render("--- Summary ---"))
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Fixtures:"), r.Summary.Total)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Fixed:"), r.Summary.Fixed)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Not fixed:"), r.Summary.NotFixed)
	fmt.Fprintf(w, "%s  %d\n", s.SummaryLabel.Render("Bad fixtures:"), r.Summary.BadFixtures)

	status := s.Pass.Render("PASS")
	if r.Failed() {
		status = s.Fail.Render("FAIL")
	}
	fmt.Fprintf(w, "%s  %s\n", s.SummaryLabel.Render("Result:"), status)

	var failures []verify.Result
	for _, res := range r.Results {
		if res.Verdict != verify.Fixed {
			failures = append(failures, res)
		}
	}
	if len(failures) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("--- Failures (%d) ---", len(failures))))
	for _, res := range failures {
		line := fmt.Sprintf("  %s  %s", s.VerdictStyle(res.Verdict).Render(string(res.Verdict)),
			displayPath(r.Root, res.Fixture.Path))
		if res.Diagnostic != "" {
			line += s.Muted.Render(" (" + res.Diagnostic + ")")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
