// Package tui implements the terminal editor: a split source/preview
// layout with bidirectional scroll sync, a document picker, and the
// editing commands bound to the document store.
package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/export"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/scrollsync"
	"github.com/starford/ansuz/internal/settings"
)

// Params carries the dependencies the editor needs from the host.
type Params struct {
	Store     *docstore.Store
	Settings  *settings.Settings
	Logger    *slog.Logger
	ExportDir string
	Degraded  bool
}

// NewProgram builds the bubbletea program for the editor. The store
// must already be loaded.
func NewProgram(p Params) *tea.Program {
	return tea.NewProgram(newModel(p), tea.WithAltScreen())
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modePicker
	modeRename
)

type paneFocus int

const (
	focusSource paneFocus = iota
	focusRendered
)

// renderedMsg carries an asynchronous glamour render result. Stale
// results are identified by id and dropped.
type renderedMsg struct {
	id      int
	content string
}

type statusExpiredMsg struct {
	id int
}

type model struct {
	store     *docstore.Store
	settings  *settings.Settings
	logger    *slog.Logger
	exportDir string
	degraded  bool

	keys   keyMap
	styles styles
	help   help.Model

	theme    string
	viewMode string

	mode  mode
	focus paneFocus

	width  int
	height int
	ready  bool

	source     viewport.Model
	rendered   viewport.Model
	editor     textarea.Model
	picker     list.Model
	titleInput textinput.Model

	engine   *scrollsync.Engine
	renderID int

	status   string
	statusID int
}

func newModel(p Params) *model {
	ed := textarea.New()
	ed.Placeholder = "Start writing your Markdown here..."
	ed.CharLimit = 0
	ed.ShowLineNumbers = false

	ti := textinput.New()
	ti.Placeholder = "Document title"
	ti.CharLimit = 200

	theme := p.Settings.Theme()

	m := &model{
		store:      p.Store,
		settings:   p.Settings,
		logger:     p.Logger,
		exportDir:  p.ExportDir,
		degraded:   p.Degraded,
		keys:       newKeyMap(),
		styles:     newStyles(theme),
		help:       help.New(),
		theme:      theme,
		viewMode:   p.Settings.ViewMode(),
		source:     viewport.New(0, 0),
		rendered:   viewport.New(0, 0),
		editor:     ed,
		picker:     newPicker(),
		titleInput: ti,
	}
	// Bubbletea delivers no echo event for a programmatic SetYOffset, so
	// ownership can be released as soon as the mirror has been applied.
	m.engine = scrollsync.New(sourcePane{m}, renderedPane{m}, scrollsync.Immediate)
	m.engine.SetEnabled(p.Settings.ScrollLock())
	return m
}

func (m *model) Init() tea.Cmd {
	return m.loadActive()
}

// loadActive pulls the active document into the panes and kicks off a
// preview render.
func (m *model) loadActive() tea.Cmd {
	doc, ok := m.store.Active()
	if !ok {
		return nil
	}
	m.editor.SetValue(doc.Content)
	m.source.SetContent(doc.Content)
	m.source.GotoTop()
	m.rendered.GotoTop()
	return m.renderPreview(doc.Content)
}

// renderPreview schedules an asynchronous glamour render of content at
// the current preview width. Each call invalidates earlier ones.
func (m *model) renderPreview(content string) tea.Cmd {
	m.renderID++
	id := m.renderID
	theme := m.theme
	width := m.rendered.Width
	if width <= 0 {
		width = 80
	}
	return func() tea.Msg {
		r, err := render.NewTerminal(theme, width)
		if err != nil {
			return renderedMsg{id: id, content: content}
		}
		out, err := r.Render(content)
		if err != nil {
			return renderedMsg{id: id, content: content}
		}
		return renderedMsg{id: id, content: out}
	}
}

func (m *model) setStatus(text string) tea.Cmd {
	m.status = text
	m.statusID++
	id := m.statusID
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		doc, ok := m.store.Active()
		if !ok {
			return m, nil
		}
		return m, m.renderPreview(doc.Content)

	case renderedMsg:
		if msg.id != m.renderID {
			return m, nil
		}
		m.rendered.SetContent(msg.content)
		// Re-anchor the preview to the source position after reflow.
		m.engine.OnSourceScroll()
		return m, nil

	case statusExpiredMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modePicker:
			return m.updatePicker(msg)
		case modeRename:
			return m.updateRename(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m *model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.editor.Blur()
		m.mode = modeBrowse
		doc, _ := m.store.Active()
		m.source.SetContent(doc.Content)
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	after := m.editor.Value()

	cmds := []tea.Cmd{cmd}
	if after != before {
		m.store.UpdateContent(after)
		cmds = append(cmds, m.renderPreview(after))
	}
	// Cursor movement drives the preview while editing.
	m.engine.OnSourceScroll()
	return m, tea.Batch(cmds...)
}

func (m *model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		item, ok := m.picker.SelectedItem().(docItem)
		if !ok {
			return m, nil
		}
		if err := m.store.Select(item.doc.ID); err != nil {
			return m, m.setStatus("open failed: " + err.Error())
		}
		m.mode = modeBrowse
		return m, m.loadActive()
	case "d":
		item, ok := m.picker.SelectedItem().(docItem)
		if !ok {
			return m, nil
		}
		if err := m.store.Delete(item.doc.ID); err != nil {
			return m, m.setStatus("delete failed: " + err.Error())
		}
		m.picker.SetItems(docItems(m.store.Documents()))
		return m, tea.Batch(m.loadActive(), m.setStatus("deleted "+item.doc.Title))
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.titleInput.Blur()
		m.mode = modeBrowse
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		m.titleInput.Blur()
		m.mode = modeBrowse
		if title == "" {
			return m, nil
		}
		m.store.UpdateTitle(title)
		return m, m.setStatus("renamed to " + title)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m *model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case keyMatches(msg, k.Quit):
		return m, tea.Quit

	case keyMatches(msg, k.Edit):
		m.mode = modeEdit
		return m, m.editor.Focus()

	case keyMatches(msg, k.New):
		doc := m.store.CreateNew()
		m.mode = modeEdit
		return m, tea.Batch(m.loadActive(), m.editor.Focus(), m.setStatus("created "+doc.Title))

	case keyMatches(msg, k.Open):
		m.store.Refresh()
		m.picker.SetItems(docItems(m.store.Documents()))
		m.mode = modePicker
		return m, nil

	case keyMatches(msg, k.Rename):
		doc, ok := m.store.Active()
		if !ok {
			return m, nil
		}
		m.titleInput.SetValue(doc.Title)
		m.mode = modeRename
		return m, m.titleInput.Focus()

	case keyMatches(msg, k.Delete):
		doc, ok := m.store.Active()
		if !ok {
			return m, nil
		}
		if err := m.store.Delete(doc.ID); err != nil {
			return m, m.setStatus("delete failed: " + err.Error())
		}
		return m, tea.Batch(m.loadActive(), m.setStatus("deleted "+doc.Title))

	case keyMatches(msg, k.Export):
		doc, ok := m.store.Active()
		if !ok {
			return m, nil
		}
		path, err := export.WriteFile(m.exportDir, doc.Title, doc.Content, time.Now())
		if err != nil {
			return m, m.setStatus("export failed: " + err.Error())
		}
		return m, m.setStatus("exported to " + path)

	case keyMatches(msg, k.Copy):
		doc, ok := m.store.Active()
		if !ok {
			return m, nil
		}
		if err := clipboard.WriteAll(doc.Content); err != nil {
			return m, m.setStatus("copy failed: " + err.Error())
		}
		return m, m.setStatus("copied to clipboard")

	case keyMatches(msg, k.ViewMode):
		m.viewMode = nextViewMode(m.viewMode)
		if err := m.settings.SetViewMode(m.viewMode); err != nil {
			m.logger.Warn("tui: persist view mode failed", slog.String("error", err.Error()))
		}
		m.layout()
		doc, _ := m.store.Active()
		return m, m.renderPreview(doc.Content)

	case keyMatches(msg, k.Theme):
		if m.theme == settings.ThemeDark {
			m.theme = settings.ThemeLight
		} else {
			m.theme = settings.ThemeDark
		}
		if err := m.settings.SetTheme(m.theme); err != nil {
			m.logger.Warn("tui: persist theme failed", slog.String("error", err.Error()))
		}
		m.styles = newStyles(m.theme)
		doc, _ := m.store.Active()
		return m, m.renderPreview(doc.Content)

	case keyMatches(msg, k.ScrollLock):
		enabled := !m.engine.Enabled()
		m.engine.SetEnabled(enabled)
		if err := m.settings.SetScrollLock(enabled); err != nil {
			m.logger.Warn("tui: persist scroll lock failed", slog.String("error", err.Error()))
		}
		if enabled {
			return m, m.setStatus("scroll sync on")
		}
		return m, m.setStatus("scroll sync off")

	case keyMatches(msg, k.SwitchPane):
		if m.focus == focusSource {
			m.focus = focusRendered
		} else {
			m.focus = focusSource
		}
		return m, nil

	case keyMatches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	// Anything else scrolls the focused pane; the engine mirrors it.
	var cmd tea.Cmd
	if m.focus == focusRendered {
		m.rendered, cmd = m.rendered.Update(msg)
		m.engine.OnRenderedScroll()
	} else {
		m.source, cmd = m.source.Update(msg)
		m.engine.OnSourceScroll()
	}
	return m, cmd
}

func nextViewMode(mode string) string {
	switch mode {
	case settings.ViewSource:
		return settings.ViewRendered
	case settings.ViewRendered:
		return settings.ViewBoth
	default:
		return settings.ViewSource
	}
}
