package scrollsync

import (
	"math"
	"testing"
)

// fakePane records programmatic scrolls and optionally forwards them to
// the engine, simulating a host that echoes SetOffset back as a scroll
// event.
type fakePane struct {
	offset   float64
	extent   float64
	viewport float64
	ok       bool

	setCalls int
}

func (p *fakePane) Metrics() (float64, float64, float64, bool) {
	return p.offset, p.extent, p.viewport, p.ok
}

func (p *fakePane) SetOffset(offset float64) {
	p.offset = offset
	p.setCalls++
}

// manualFrames queues releases so tests control when ownership clears.
type manualFrames struct {
	releases []func()
}

func (f *manualFrames) Schedule(release func()) {
	f.releases = append(f.releases, release)
}

func (f *manualFrames) flush() {
	for _, r := range f.releases {
		r()
	}
	f.releases = nil
}

func pane(offset, extent, viewport float64) *fakePane {
	return &fakePane{offset: offset, extent: extent, viewport: viewport, ok: true}
}

func TestMirrorsProportionalPosition(t *testing.T) {
	source := pane(400, 1000, 200)
	rendered := pane(0, 2000, 200)
	e := New(source, rendered, nil)

	e.OnSourceScroll()

	// 400 of 800 scrollable is 50%; 50% of 1800 is 900.
	if got, want := rendered.offset, 900.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("rendered offset = %v, want %v", got, want)
	}
}

func TestMirrorsTopAndBottom(t *testing.T) {
	source := pane(0, 1000, 200)
	rendered := pane(500, 3000, 300)
	e := New(source, rendered, nil)

	e.OnSourceScroll()
	if rendered.offset != 0 {
		t.Errorf("top: rendered offset = %v, want 0", rendered.offset)
	}

	source.offset = 800 // bottom
	e.OnSourceScroll()
	if got, want := rendered.offset, 2700.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("bottom: rendered offset = %v, want %v", got, want)
	}
}

func TestReverseDirection(t *testing.T) {
	source := pane(0, 1000, 200)
	rendered := pane(900, 2000, 200)
	e := New(source, rendered, nil)

	e.OnRenderedScroll()

	// 900 of 1800 is 50%; 50% of 800 is 400.
	if got, want := source.offset, 400.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("source offset = %v, want %v", got, want)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	source := pane(400, 1000, 200)
	rendered := pane(0, 2000, 200)
	e := New(source, rendered, nil)
	e.SetEnabled(false)

	e.OnSourceScroll()
	e.OnRenderedScroll()

	if rendered.setCalls != 0 || source.setCalls != 0 {
		t.Error("disabled engine must not touch panes")
	}
}

func TestReEnableResumesOnNextScroll(t *testing.T) {
	source := pane(400, 1000, 200)
	rendered := pane(0, 2000, 200)
	e := New(source, rendered, nil)

	e.SetEnabled(false)
	e.OnSourceScroll()
	if rendered.setCalls != 0 {
		t.Fatal("no mirroring while disabled")
	}

	e.SetEnabled(true)
	e.OnSourceScroll()
	if rendered.setCalls != 1 {
		t.Error("next scroll after re-enable should mirror")
	}
}

func TestEchoSuppressedUntilRelease(t *testing.T) {
	source := pane(400, 1000, 200)
	rendered := pane(0, 2000, 200)
	frames := &manualFrames{}
	e := New(source, rendered, frames)

	e.OnSourceScroll()
	if rendered.setCalls != 1 {
		t.Fatal("source scroll should mirror to rendered")
	}

	// The programmatic scroll echoes back before the release runs.
	e.OnRenderedScroll()
	if source.setCalls != 0 {
		t.Error("echo must not bounce back to the source pane")
	}

	frames.flush()
	e.OnRenderedScroll()
	if source.setCalls != 1 {
		t.Error("a real rendered scroll after release must propagate")
	}
}

func TestSameDirectionBurstKeepsMirroring(t *testing.T) {
	source := pane(100, 1000, 200)
	rendered := pane(0, 2000, 200)
	frames := &manualFrames{}
	e := New(source, rendered, frames)

	// Rapid events from the same pane keep the claim; each one mirrors.
	e.OnSourceScroll()
	source.offset = 200
	e.OnSourceScroll()
	source.offset = 300
	e.OnSourceScroll()

	if rendered.setCalls != 3 {
		t.Errorf("setCalls = %d, want 3", rendered.setCalls)
	}
	frames.flush()
}

func TestContentFitsViewportMapsToTop(t *testing.T) {
	source := pane(0, 150, 200) // shorter than the viewport
	rendered := pane(700, 2000, 200)
	e := New(source, rendered, nil)

	e.OnSourceScroll()
	if rendered.offset != 0 {
		t.Errorf("rendered offset = %v, want 0 for degenerate extent", rendered.offset)
	}
}

func TestUnavailablePaneIsSilentNoop(t *testing.T) {
	source := pane(400, 1000, 200)
	source.ok = false
	rendered := pane(0, 2000, 200)
	e := New(source, rendered, nil)

	e.OnSourceScroll()
	if rendered.setCalls != 0 {
		t.Error("unavailable source must not mirror")
	}

	source.ok = true
	rendered.ok = false
	e.OnSourceScroll()
	if rendered.setCalls != 0 {
		t.Error("unavailable target must not be scrolled")
	}
}

func TestNilPanes(t *testing.T) {
	e := New(nil, nil, nil)
	// Must not panic.
	e.OnSourceScroll()
	e.OnRenderedScroll()
}

func TestFractionClamped(t *testing.T) {
	// Offset beyond the scrollable range clamps to the bottom.
	source := pane(5000, 1000, 200)
	rendered := pane(0, 2000, 200)
	e := New(source, rendered, nil)

	e.OnSourceScroll()
	if got, want := rendered.offset, 1800.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("rendered offset = %v, want clamp to %v", got, want)
	}
}

func TestScrollFraction(t *testing.T) {
	cases := []struct {
		name                     string
		offset, extent, viewport float64
		want                     float64
	}{
		{"top", 0, 1000, 200, 0},
		{"half", 400, 1000, 200, 0.5},
		{"bottom", 800, 1000, 200, 1},
		{"fits viewport", 50, 150, 200, 0},
		{"equal extent", 10, 200, 200, 0},
		{"negative offset", -20, 1000, 200, 0},
		{"beyond bottom", 900, 1000, 200, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scrollFraction(tc.offset, tc.extent, tc.viewport)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("scrollFraction(%v, %v, %v) = %v, want %v",
					tc.offset, tc.extent, tc.viewport, got, tc.want)
			}
		})
	}
}
