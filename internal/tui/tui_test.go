package tui

import (
	"testing"
	"time"

	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/testutil"
)

func testModel(t *testing.T) *model {
	t.Helper()
	st := testutil.Settings(t)
	store := docstore.New(testutil.SQLiteStore(t), st, testutil.Logger(),
		docstore.WithDebounce(20*time.Millisecond))
	t.Cleanup(store.Close)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	return newModel(Params{
		Store:    store,
		Settings: st,
		Logger:   testutil.Logger(),
	})
}

func TestNextViewMode(t *testing.T) {
	cases := map[string]string{
		settings.ViewSource:   settings.ViewRendered,
		settings.ViewRendered: settings.ViewBoth,
		settings.ViewBoth:     settings.ViewSource,
		"":                    settings.ViewSource,
	}
	for in, want := range cases {
		if got := nextViewMode(in); got != want {
			t.Errorf("nextViewMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSourcePaneMetricsBrowse(t *testing.T) {
	m := testModel(t)
	m.source.Width = 40
	m.source.Height = 10
	m.source.SetContent("a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk\nl")

	offset, extent, viewport, ok := sourcePane{m}.Metrics()
	if !ok {
		t.Fatal("pane with content should be ok")
	}
	if offset != 0 || viewport != 10 {
		t.Errorf("offset = %v, viewport = %v", offset, viewport)
	}
	if extent < 12 {
		t.Errorf("extent = %v, want at least line count", extent)
	}
}

func TestRenderedPaneSetOffsetClamps(t *testing.T) {
	m := testModel(t)
	m.rendered.Width = 40
	m.rendered.Height = 3
	m.rendered.SetContent("1\n2\n3\n4\n5\n6")

	p := renderedPane{m}
	p.SetOffset(2)
	if m.rendered.YOffset != 2 {
		t.Errorf("YOffset = %d, want 2", m.rendered.YOffset)
	}
}

func TestEmptyPanesNotOK(t *testing.T) {
	m := testModel(t)
	if _, _, _, ok := (renderedPane{m}).Metrics(); ok {
		t.Error("empty rendered pane should report not ok")
	}
}

func TestScrollLockPersistedAcrossModels(t *testing.T) {
	m := testModel(t)
	if !m.engine.Enabled() {
		t.Fatal("scroll sync should default on")
	}
	if err := m.settings.SetScrollLock(false); err != nil {
		t.Fatal(err)
	}

	m2 := newModel(Params{Store: m.store, Settings: m.settings, Logger: m.logger})
	if m2.engine.Enabled() {
		t.Error("scroll lock setting should carry into a fresh model")
	}
}
