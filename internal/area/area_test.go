package area

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"richtext/internal/cache"
	"richtext/internal/command"
	"richtext/internal/editor"
	"richtext/internal/platform"
	"richtext/internal/render"
	"richtext/internal/ui"
	"richtext/pkg/richtext"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestArea(t *testing.T, text string, opts ...Option) (*Area, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Unix(5000, 0)}
	doc := richtext.NewDocumentFromText(text, richtext.DefaultTextDecoration())
	log := zaptest.NewLogger(t)
	state := editor.NewState(doc, editor.WithLogger(log))
	base := []Option{WithLogger(log), WithClock(clk.Now), WithWidth(300)}
	a := New(state, append(base, opts...)...)
	t.Cleanup(a.Close)
	return a, clk
}

func TestRefreshKeepsUnchangedTiles(t *testing.T) {
	a, _ := newTestArea(t, "a\nb\nc")
	if n := len(a.Tiles()); n != 3 {
		t.Fatalf("tiles = %d, want 3", n)
	}
	first := a.Tiles()[0].Layers()[0]
	second := a.Tiles()[1].Layers()[0]
	third := a.Tiles()[2].Layers()[0]

	a.State().SetCaretPosition(3)
	if err := a.Execute(command.InsertText{Text: "X"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if a.Tiles()[0].Layers()[0] != first {
		t.Fatalf("untouched paragraph was rebuilt")
	}
	if a.Tiles()[1].Layers()[0] == second {
		t.Fatalf("edited paragraph was not rebuilt")
	}
	if a.Tiles()[2].Layers()[0] == third {
		t.Fatalf("shifted paragraph was not rebuilt")
	}
	if err := a.Execute(command.InsertText{Text: "\n"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n := len(a.Tiles()); n != 4 {
		t.Fatalf("tiles after split = %d, want 4", n)
	}
	if err := a.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if n := len(a.Tiles()); n != 3 {
		t.Fatalf("tiles after undo = %d, want 3", n)
	}
}

func TestTilesStackVertically(t *testing.T) {
	a, _ := newTestArea(t, "a\nb")
	tiles := a.Tiles()
	if a.tops[1] != tiles[0].Size().Y {
		t.Fatalf("second tile at %d, first is %d tall", a.tops[1], tiles[0].Size().Y)
	}
	if got, want := a.Size().Y, tiles[0].Size().Y+tiles[1].Size().Y; got != want {
		t.Fatalf("area height = %d, want %d", got, want)
	}
}

func TestEvictionKeepsSharedFont(t *testing.T) {
	a, _ := newTestArea(t, "ab\ncd")
	regular := richtext.DefaultTextDecoration()
	bold := regular
	bold.Bold = true

	a.State().SetSelection(richtext.NewSelection(0, 2))
	if err := a.Execute(command.Decorate{Decoration: bold}); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	boldKey, regularKey := cache.FontKeyFor(bold, 1), cache.FontKeyFor(regular, 1)
	if !a.Resources().HasFont(boldKey) || !a.Resources().HasFont(regularKey) {
		t.Fatalf("fonts not cached")
	}

	a.State().SetSelection(richtext.NewSelection(0, 2))
	if err := a.Execute(command.Decorate{Decoration: regular}); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	a.EvictUnusedResources()
	if a.Resources().HasFont(boldKey) {
		t.Fatalf("unused bold font survived eviction")
	}
	if !a.Resources().HasFont(regularKey) {
		t.Fatalf("font in use was evicted")
	}
}

func TestEvictionRunsOnInterval(t *testing.T) {
	a, clk := newTestArea(t, "ab", WithEvictInterval(time.Minute))
	stale := richtext.DefaultTextDecoration()
	stale.Italic = true
	key, _ := a.Resources().Face(stale)

	clk.now = clk.now.Add(30 * time.Second)
	a.Tick(clk.now)
	if !a.Resources().HasFont(key) {
		t.Fatalf("evicted before the interval")
	}
	clk.now = clk.now.Add(31 * time.Second)
	a.Tick(clk.now)
	if a.Resources().HasFont(key) {
		t.Fatalf("not evicted after the interval")
	}
}

func TestMouseRoutesToTileUnderPointer(t *testing.T) {
	a, _ := newTestArea(t, "abc\ndef")
	y := a.tops[1] + 3
	a.MousePressed(platform.Event{Type: platform.EventMouseDown, X: 1 + 7*2 + 1, Y: y, Button: platform.ButtonPrimary, ClickCount: 1})
	if got := a.State().CaretPosition(); got != 6 {
		t.Fatalf("caret = %d, want 6", got)
	}
	if !a.State().Focused() || !a.HasCaret() {
		t.Fatalf("press did not focus the area")
	}
	if a.LastValidCaretPosition() != 6 {
		t.Fatalf("last valid caret = %d", a.LastValidCaretPosition())
	}

	// Below the last tile clamps into it.
	a.MouseDragged(platform.Event{Type: platform.EventMouseDrag, X: 1000, Y: 10000, Held: platform.HeldPrimary})
	if diff := cmp.Diff(richtext.Selection{Start: 6, End: 7}, a.State().Selection()); diff != "" {
		t.Fatalf("drag selection (-want +got):\n%s", diff)
	}
}

func TestNextRowPositionCrossesParagraphs(t *testing.T) {
	a, _ := newTestArea(t, "abc\ndef")
	a.State().SetFocused(true)
	a.State().SetCaretPosition(1)
	down := a.NextRowPosition(-1, true)
	if down != 5 {
		t.Fatalf("down = %d, want 5", down)
	}
	a.State().SetCaretPosition(down)
	if up := a.NextRowPosition(-1, false); up != 1 {
		t.Fatalf("up = %d, want 1", up)
	}
	a.State().SetFocused(false)
	if got := a.NextRowPosition(-1, true); got != -1 {
		t.Fatalf("without caret = %d, want -1", got)
	}
}

func TestCaretBlinkFollowsClock(t *testing.T) {
	a, clk := newTestArea(t, "abc")
	a.State().SetFocused(true)
	l := a.Tiles()[0].Layers()[0]
	a.Tick(clk.now)
	if l.CaretOpacity() != 0 {
		t.Fatalf("caret visible at blink start")
	}
	a.Tick(clk.now.Add(600 * time.Millisecond))
	if l.CaretOpacity() != 1 {
		t.Fatalf("caret hidden mid period")
	}
}

func TestActionsTrackState(t *testing.T) {
	a, _ := newTestArea(t, "abc")
	var events []map[string]bool
	a.OnActionsChanged(func(m map[string]bool) { events = append(events, m) })
	if a.ActionEnabled("cut") {
		t.Fatalf("cut enabled without selection")
	}
	a.State().SetSelection(richtext.NewSelection(0, 1))
	if !a.ActionEnabled("cut") {
		t.Fatalf("cut disabled with selection")
	}
	if err := a.Execute(command.Cut{}); err != nil {
		t.Fatalf("cut: %v", err)
	}
	if !a.ActionEnabled(ActionUndo) || a.ActionEnabled(ActionRedo) {
		t.Fatalf("undo/redo enablement wrong after cut")
	}
	if err := a.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !a.ActionEnabled(ActionRedo) {
		t.Fatalf("redo disabled after undo")
	}
	if got := a.State().Document().String(); got != "abc" {
		t.Fatalf("text after undo = %q", got)
	}
	if err := a.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if got := a.State().Document().String(); got != "bc" {
		t.Fatalf("text after redo = %q", got)
	}
	if len(events) == 0 {
		t.Fatalf("no action change events")
	}
	if err := a.Redo(); !errors.Is(err, command.ErrNothingToRedo) {
		t.Fatalf("err = %v", err)
	}
}

func TestBackgroundDecorationHighlights(t *testing.T) {
	a, _ := newTestArea(t, "mark this")
	hl := richtext.DefaultTextDecoration()
	hl.Background = richtext.RGBA(0xFF, 0xEE, 0x00, 0xFF)
	a.State().SetSelection(richtext.NewSelection(0, 4))
	if err := a.Execute(command.Decorate{Decoration: hl}); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	bg := a.Tiles()[0].Layers()[0].Backgrounds()
	if _, ok := bg[hl.Background]; !ok || len(bg) != 1 {
		t.Fatalf("backgrounds = %v", bg)
	}
}

func TestPaint(t *testing.T) {
	a, clk := newTestArea(t, "paint me\nsecond")
	a.State().SetFocused(true)
	a.State().SetSelection(richtext.NewSelection(0, 5))
	a.Tick(clk.now.Add(600 * time.Millisecond))

	theme := ui.DefaultTheme()
	fb := render.NewFrameBuffer(320, 80)
	fb.Clear(theme.Page)
	a.Paint(fb, image.Pt(0, 0), theme)

	l := a.Tiles()[0].Layers()[0]
	sel := l.SelectionShape().Bounds()
	px := fb.At(sel.Min.X+1, sel.Min.Y+1)
	if px == fb.At(300, 70) {
		t.Fatalf("selection not painted")
	}
}
