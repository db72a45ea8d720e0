package tui

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles for one theme. Rebuilt on theme
// toggle rather than branching per render.
type styles struct {
	header     lipgloss.Style
	title      lipgloss.Style
	badge      lipgloss.Style
	degraded   lipgloss.Style
	pane       lipgloss.Style
	activePane lipgloss.Style
	status     lipgloss.Style
	statusInfo lipgloss.Style
}

func newStyles(theme string) styles {
	var (
		accent  = lipgloss.Color("12")
		muted   = lipgloss.Color("8")
		warning = lipgloss.Color("11")
	)
	if theme == "light" {
		accent = lipgloss.Color("4")
		muted = lipgloss.Color("7")
	}

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),
		title: lipgloss.NewStyle().
			Bold(true),
		badge: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		degraded: lipgloss.NewStyle().
			Bold(true).
			Foreground(warning).
			Padding(0, 1),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		activePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		status: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		statusInfo: lipgloss.NewStyle().
			Foreground(accent).
			Padding(0, 1),
	}
}
