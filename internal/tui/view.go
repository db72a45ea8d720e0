package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/starford/ansuz/internal/settings"
)

const (
	headerHeight = 1
	footerHeight = 1
	borderWidth  = 2
)

// layout recomputes component sizes from the window size and view mode.
func (m *model) layout() {
	if !m.ready {
		return
	}

	bodyHeight := m.height - headerHeight - footerHeight - borderWidth
	if m.help.ShowAll {
		bodyHeight -= 4
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	sourceWidth, renderedWidth := m.paneWidths()

	m.editor.SetWidth(sourceWidth)
	m.editor.SetHeight(bodyHeight)
	m.source.Width = sourceWidth
	m.source.Height = bodyHeight
	m.rendered.Width = renderedWidth
	m.rendered.Height = bodyHeight

	m.picker.SetSize(m.width-borderWidth, bodyHeight)
	m.titleInput.Width = m.width - borderWidth - 4
	m.help.Width = m.width
}

// paneWidths returns the inner widths of the source and rendered panes
// for the current view mode. A hidden pane gets the full width anyway
// so its metrics stay meaningful for scroll sync.
func (m *model) paneWidths() (source, rendered int) {
	full := m.width - borderWidth
	if full < 1 {
		full = 1
	}
	if m.viewMode != settings.ViewBoth {
		return full, full
	}
	half := m.width/2 - borderWidth
	if half < 1 {
		half = 1
	}
	return half, half
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	switch m.mode {
	case modePicker:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.headerView(),
			m.styles.pane.Render(m.picker.View()),
			m.footerView(),
		)
	case modeRename:
		prompt := m.styles.title.Render("Rename: ") + m.titleInput.View()
		return lipgloss.JoinVertical(lipgloss.Left,
			m.headerView(),
			m.styles.activePane.Width(m.width-borderWidth).Render(prompt),
			m.footerView(),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.bodyView(),
		m.footerView(),
	)
}

func (m *model) headerView() string {
	title := "untitled"
	if doc, ok := m.store.Active(); ok {
		title = doc.Title
	}

	left := m.styles.header.Render("ansuz") + m.styles.title.Render(title)
	right := m.styles.badge.Render(m.viewMode) + m.lockBadge()
	if m.degraded {
		right += m.styles.degraded.Render("DEGRADED")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate.StringWithTail(left+right, uint(m.width), "...")
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

func (m *model) lockBadge() string {
	if m.engine.Enabled() {
		return m.styles.badge.Render("sync")
	}
	return m.styles.badge.Render("no-sync")
}

func (m *model) bodyView() string {
	sourceView := m.source.View()
	if m.mode == modeEdit {
		sourceView = m.editor.View()
	}

	sourceFocused := m.mode == modeEdit || m.focus == focusSource
	sourceStyle, renderedStyle := m.styles.pane, m.styles.pane
	if sourceFocused {
		sourceStyle = m.styles.activePane
	} else {
		renderedStyle = m.styles.activePane
	}

	switch m.viewMode {
	case settings.ViewSource:
		return sourceStyle.Render(sourceView)
	case settings.ViewRendered:
		return renderedStyle.Render(m.rendered.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		sourceStyle.Render(sourceView),
		renderedStyle.Render(m.rendered.View()),
	)
}

func (m *model) footerView() string {
	if m.status != "" {
		return m.styles.statusInfo.Render(truncate.StringWithTail(m.status, uint(m.width-2), "..."))
	}
	return m.styles.status.Render(m.help.View(m.keys))
}
