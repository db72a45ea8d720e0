// Package scrollsync keeps two independently scrollable panes visually
// aligned by fractional scroll position, in both directions, without
// feedback loops.
//
// The engine knows nothing about any concrete UI: it talks to the panes
// through the Pane provider interface and defers ownership release to a
// Frames scheduler, so it can be driven and tested in isolation.
package scrollsync

import (
	"math"
	"sync"
)

// Pane provides scroll position and extents for one scrollable region,
// and accepts a programmatic scroll.
type Pane interface {
	// Metrics returns the current scroll offset, the total scrollable
	// extent, and the visible viewport extent. ok is false when the pane
	// is not mounted or has no content; the engine treats that as a
	// silent no-op.
	Metrics() (offset, scrollExtent, viewportExtent float64, ok bool)
	// SetOffset scrolls the pane to the given offset.
	SetOffset(offset float64)
}

// Frames schedules ownership release for the moment after the current
// scroll event's synchronous work has finished (the "next animation
// frame"). The programmatic counter-scroll raises its own scroll
// notification before the release runs, which is exactly the window in
// which that echo must be suppressed.
type Frames interface {
	Schedule(release func())
}

// FrameFunc adapts a plain function to the Frames interface.
type FrameFunc func(func())

// Schedule implements Frames.
func (f FrameFunc) Schedule(release func()) { f(release) }

// Immediate runs releases synchronously. Suitable for hosts whose event
// delivery cannot echo programmatic scrolls back into the engine.
var Immediate Frames = FrameFunc(func(release func()) { release() })

// owner is the tri-state propagation token. It is volatile, reset every
// propagation cycle, and never persisted.
type owner int

const (
	idle owner = iota
	sourceDriven
	renderedDriven
)

// Engine mirrors proportional scroll position between a source pane and
// a rendered pane.
type Engine struct {
	mu       sync.Mutex
	source   Pane
	rendered Pane
	frames   Frames
	enabled  bool
	owner    owner
}

// New creates an engine for the two panes, enabled by default.
func New(source, rendered Pane, frames Frames) *Engine {
	if frames == nil {
		frames = Immediate
	}
	return &Engine{
		source:   source,
		rendered: rendered,
		frames:   frames,
		enabled:  true,
	}
}

// SetEnabled toggles the scroll lock. Takes effect immediately; while
// disabled, scroll notifications produce no cross-pane effect, and
// re-enabling does not reconcile divergence accumulated in between:
// the next scroll event re-synchronizes from whichever pane moves first.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled reports whether sync is active.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// OnSourceScroll handles a scroll notification from the source pane,
// mirroring the position onto the rendered pane.
func (e *Engine) OnSourceScroll() {
	e.propagate(e.source, e.rendered, sourceDriven, renderedDriven)
}

// OnRenderedScroll handles a scroll notification from the rendered pane,
// mirroring the position onto the source pane.
func (e *Engine) OnRenderedScroll() {
	e.propagate(e.rendered, e.source, renderedDriven, sourceDriven)
}

func (e *Engine) propagate(from, to Pane, claim, foreign owner) {
	e.mu.Lock()
	if !e.enabled || e.owner == foreign {
		e.mu.Unlock()
		return
	}
	e.owner = claim
	e.mu.Unlock()

	e.mirror(from, to)

	e.frames.Schedule(func() {
		e.mu.Lock()
		if e.owner == claim {
			e.owner = idle
		}
		e.mu.Unlock()
	})
}

// mirror computes the source fraction and applies it to the target.
// Provider failure on either side is a no-op, never an error.
func (e *Engine) mirror(from, to Pane) {
	if from == nil || to == nil {
		return
	}
	offset, extent, viewport, ok := from.Metrics()
	if !ok {
		return
	}
	fraction := scrollFraction(offset, extent, viewport)

	_, toExtent, toViewport, ok := to.Metrics()
	if !ok {
		return
	}
	to.SetOffset(fraction * math.Max(0, toExtent-toViewport))
}

// scrollFraction expresses an offset as a fraction of the scrollable
// range. When the content fits the viewport (extent <= viewport) the
// fraction is defined as 0; otherwise the denominator is floored at 1
// to avoid division by zero on degenerate extents.
func scrollFraction(offset, extent, viewport float64) float64 {
	if extent-viewport <= 0 {
		return 0
	}
	f := offset / math.Max(1, extent-viewport)
	return math.Min(1, math.Max(0, f))
}
