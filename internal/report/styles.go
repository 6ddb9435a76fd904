package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/smelltest/internal/verify"
)

// Styles defines the visual theme for terminal output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers and the run banner.
	Header lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// Pass styles FIXED verdicts.
	Pass lipgloss.Style

	// Fail styles NOT_FIXED verdicts.
	Fail lipgloss.Style

	// Warn styles bad-fixture notices.
	Warn lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for paths and diagnostics.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableHeader:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(16),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warn: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// VerdictStyle returns the style for a verdict.
func (s Styles) VerdictStyle(v verify.Verdict) lipgloss.Style {
	switch v {
	case verify.Fixed:
		return s.Pass
	case verify.NotFixed:
		return s.Fail
	case verify.SkippedBadFixture:
		return s.Warn
	default:
		return s.Muted
	}
}
