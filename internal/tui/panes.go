package tui

import "math"

// sourcePane exposes the source side of the editor to the scroll sync
// engine. While editing, position is the cursor line inside the
// textarea; while browsing, it is the raw-Markdown viewport offset.
type sourcePane struct {
	m *model
}

func (p sourcePane) Metrics() (offset, scrollExtent, viewportExtent float64, ok bool) {
	if p.m.mode == modeEdit {
		lines := p.m.editor.LineCount()
		if lines == 0 {
			return 0, 0, 0, false
		}
		return float64(p.m.editor.Line()), float64(lines), float64(p.m.editor.Height()), true
	}
	if p.m.source.TotalLineCount() == 0 {
		return 0, 0, 0, false
	}
	return float64(p.m.source.YOffset), float64(p.m.source.TotalLineCount()), float64(p.m.source.Height), true
}

func (p sourcePane) SetOffset(offset float64) {
	if p.m.mode == modeEdit {
		// The cursor owns the textarea's scroll position.
		return
	}
	p.m.source.SetYOffset(int(math.Round(offset)))
}

// renderedPane exposes the rendered preview viewport to the engine.
type renderedPane struct {
	m *model
}

func (p renderedPane) Metrics() (offset, scrollExtent, viewportExtent float64, ok bool) {
	if p.m.rendered.TotalLineCount() == 0 {
		return 0, 0, 0, false
	}
	return float64(p.m.rendered.YOffset), float64(p.m.rendered.TotalLineCount()), float64(p.m.rendered.Height), true
}

func (p renderedPane) SetOffset(offset float64) {
	p.m.rendered.SetYOffset(int(math.Round(offset)))
}
