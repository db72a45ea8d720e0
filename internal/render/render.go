// Package render maps Markdown to display output: ANSI for the terminal
// preview pane (glamour) and sanitized HTML for the browser preview and
// export (goldmark + bluemonday).
//
// The HTML path guarantees sanitization: no script execution, no inline
// event handlers, no javascript: URLs. The rest of the application
// relies on this boundary and does not re-implement it.
package render

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Terminal renders Markdown to ANSI-styled text for a pane of the given
// width, using the glamour style matching the editor theme.
type Terminal struct {
	renderer *glamour.TermRenderer
	theme    string
	width    int
}

// NewTerminal creates a terminal renderer. theme is "light" or "dark";
// anything else falls back to the auto style.
func NewTerminal(theme string, width int) (*Terminal, error) {
	r, err := newGlamour(theme, width)
	if err != nil {
		return nil, err
	}
	return &Terminal{renderer: r, theme: theme, width: width}, nil
}

func newGlamour(theme string, width int) (*glamour.TermRenderer, error) {
	style := glamour.WithAutoStyle()
	switch theme {
	case "light":
		style = glamour.WithStandardStyle("light")
	case "dark":
		style = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("render: init glamour: %w", err)
	}
	return r, nil
}

// Render produces ANSI output for the given Markdown.
func (t *Terminal) Render(markdown string) (string, error) {
	out, err := t.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}

// Resize rebuilds the renderer for a new pane width or theme. Glamour
// renderers bind wrap width at construction time.
func (t *Terminal) Resize(theme string, width int) error {
	if theme == t.theme && width == t.width {
		return nil
	}
	r, err := newGlamour(theme, width)
	if err != nil {
		return err
	}
	t.renderer = r
	t.theme = theme
	t.width = width
	return nil
}

// HTML renders Markdown to sanitized HTML.
type HTML struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewHTML creates the HTML renderer with GFM extensions and a UGC
// sanitization policy.
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts Markdown to HTML and sanitizes the result. The
// sanitizer runs over the rendered output, so raw HTML embedded in the
// source passes through the same policy.
func (h *HTML) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return h.policy.Sanitize(buf.String()), nil
}
