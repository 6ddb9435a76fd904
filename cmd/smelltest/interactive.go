package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/unbound-force/smelltest/internal/report"
	"github.com/unbound-force/smelltest/internal/verify"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))
)

// maxDiagnosticWidth keeps table rows inside an 80-column terminal.
const maxDiagnosticWidth = 40

// truncateDiagnostic shortens diag to maxDiagnosticWidth cells without
// splitting a rune.
func truncateDiagnostic(diag string) string {
	if ansi.StringWidth(diag) <= maxDiagnosticWidth {
		return diag
	}
	return ansi.Truncate(diag, maxDiagnosticWidth, "...")
}

// reportModel is the Bubble Tea model for browsing a run report.
type reportModel struct {
	report   *report.Report
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newReportModel(rep *report.Report) reportModel {
	return reportModel{
		report:  rep,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderReportContent(rep),
	}
}

func renderReportContent(rep *report.Report) string {
	var sb strings.Builder
	styles := report.DefaultStyles()

	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("smelltest: %d fixture(s), %d fixed, %d not fixed, %d bad",
			rep.Summary.Total, rep.Summary.Fixed, rep.Summary.NotFixed, rep.Summary.BadFixtures)))
	sb.WriteString("\n\n")

	byCategory := make(map[string][]verify.Result)
	for _, res := range rep.Results {
		byCategory[res.Fixture.Category] = append(byCategory[res.Fixture.Category], res)
	}

	for _, cat := range rep.Summary.Categories {
		sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", cat.Name)))
		sb.WriteString("\n")

		results := byCategory[cat.Name]
		if len(results) == 0 {
			sb.WriteString(statusStyle.Render("    No fixtures."))
			sb.WriteString("\n\n")
			continue
		}

		rows := make([][]string, 0, len(results))
		for _, res := range results {
			diag := truncateDiagnostic(res.Diagnostic)
			rows = append(rows, []string{
				filepath.Base(res.Fixture.Path),
				string(res.Verdict),
				diag,
			})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tuiBorderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tuiHeaderStyle
				}
				if col == 1 && row >= 0 && row < len(results) {
					return styles.VerdictStyle(results[row].Verdict)
				}
				return lipgloss.NewStyle()
			}).
			Headers("FIXTURE", "VERDICT", "DIAGNOSTIC").
			Rows(rows...)

		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func (m reportModel) Init() tea.Cmd {
	return nil
}

func (m reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m reportModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveReport launches the Bubble Tea TUI for browsing the
// report of a finished run.
func runInteractiveReport(rep *report.Report) error {
	p := tea.NewProgram(newReportModel(rep), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
