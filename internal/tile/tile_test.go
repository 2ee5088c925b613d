package tile

import (
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"richtext/internal/cache"
	"richtext/internal/editor"
	"richtext/internal/geom"
	"richtext/internal/platform"
	"richtext/pkg/richtext"
)

type fakeHost struct {
	t         *testing.T
	state     *editor.State
	res       *cache.Manager
	width     int
	dragStart int
	lastValid int
	focusReqs int
	now       time.Time
	log       *zap.Logger
}

func newFakeHost(t *testing.T, text string) *fakeHost {
	t.Helper()
	doc := richtext.NewDocumentFromText(text, richtext.DefaultTextDecoration())
	return &fakeHost{
		t:         t,
		state:     editor.NewState(doc),
		res:       cache.NewManager(),
		width:     400,
		lastValid: -1,
		now:       time.Unix(1000, 0),
		log:       zaptest.NewLogger(t),
	}
}

func (h *fakeHost) State() *editor.State              { return h.state }
func (h *fakeHost) Resources() *cache.Manager         { return h.res }
func (h *fakeHost) TextFlowPrefWidth() int            { return h.width }
func (h *fakeHost) DragStart() int                    { return h.dragStart }
func (h *fakeHost) SetDragStart(pos int)              { h.dragStart = pos }
func (h *fakeHost) SetLastValidCaretPosition(pos int) { h.lastValid = pos }
func (h *fakeHost) RequestFocus()                     { h.focusReqs++; h.state.SetFocused(true) }
func (h *fakeHost) Now() time.Time                    { return h.now }
func (h *fakeHost) Settings() Settings                { return DefaultSettings() }
func (h *fakeHost) Logger() *zap.Logger               { return h.log }

func (h *fakeHost) Graphic(level int, kind richtext.GraphicType) Marker {
	return DefaultGraphic(level, kind)
}

func (h *fakeHost) IsLastParagraph(p richtext.Paragraph) bool {
	return h.state.Document().IsLast(p)
}

func (h *fakeHost) tileFor(index int) *Tile {
	h.t.Helper()
	doc := h.state.Document()
	p := doc.Paragraphs()[index]
	tl := New(h)
	tl.SetParagraph(&p, doc.Fragments(p), doc.CellPositions(p), nil)
	return tl
}

func click(x, y, count int, mods platform.Modifiers) platform.Event {
	return platform.Event{Type: platform.EventMouseDown, X: x, Y: y, Button: platform.ButtonPrimary, ClickCount: count, Modifiers: mods}
}

func TestCaretOnEmptyLayerGetsMinimumHeight(t *testing.T) {
	h := newFakeHost(t, "")
	h.state.SetFocused(true)
	tl := h.tileFor(0)
	if !tl.HasCaret() {
		t.Fatalf("expected caret on empty paragraph")
	}
	b := tl.Layers()[0].CaretShape().Bounds()
	if b.Dy() < DefaultSettings().CaretMinHeight {
		t.Fatalf("caret height %d below minimum", b.Dy())
	}
	if b.Dy() != DefaultSettings().CaretHeight {
		t.Fatalf("caret height = %d, want %d", b.Dy(), DefaultSettings().CaretHeight)
	}
	if h.lastValid != 0 {
		t.Fatalf("last valid caret = %d, want 0", h.lastValid)
	}
}

func TestCaretHiddenWithoutFocusOrEditability(t *testing.T) {
	h := newFakeHost(t, "abc")
	tl := h.tileFor(0)
	if tl.HasCaret() {
		t.Fatalf("caret shown without focus")
	}
	h.state.SetFocused(true)
	h.state.SetEditable(false)
	tl.UpdateLayout()
	if tl.HasCaret() {
		t.Fatalf("caret shown while read only")
	}
	h.state.SetEditable(true)
	tl.UpdateLayout()
	if !tl.HasCaret() {
		t.Fatalf("caret missing when focused and editable")
	}
}

func TestCaretOnlyInOwningLayer(t *testing.T) {
	h := newFakeHost(t, "ab\ncd")
	h.state.SetFocused(true)
	first, second := h.tileFor(0), h.tileFor(1)
	h.state.SetCaretPosition(3)
	first.UpdateLayout()
	second.UpdateLayout()
	if first.HasCaret() || !second.HasCaret() {
		t.Fatalf("caret at 3: first=%t second=%t", first.HasCaret(), second.HasCaret())
	}
	// The final paragraph also owns the document end.
	h.state.SetCaretPosition(5)
	second.UpdateLayout()
	if !second.HasCaret() {
		t.Fatalf("caret at document end missing")
	}
}

func TestBlinkPhases(t *testing.T) {
	start := time.Unix(0, 0)
	b := NewBlink(time.Second)
	b.Start(start)
	for _, tc := range []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{499 * time.Millisecond, 0},
		{500 * time.Millisecond, 1},
		{999 * time.Millisecond, 1},
		{time.Second, 0},
		{1500 * time.Millisecond, 1},
	} {
		if got := b.Opacity(start.Add(tc.at)); got != tc.want {
			t.Fatalf("opacity at %v = %v, want %v", tc.at, got, tc.want)
		}
	}
	b.Stop()
	if b.Opacity(start.Add(700*time.Millisecond)) != 0 {
		t.Fatalf("stopped blink visible")
	}
}

func TestBlinkRestartsOnNewCaret(t *testing.T) {
	h := newFakeHost(t, "abcdef")
	h.state.SetFocused(true)
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	h.now = h.now.Add(700 * time.Millisecond)
	tl.Tick(h.now)
	if l.CaretOpacity() != 1 {
		t.Fatalf("caret should be shown 0.7s after start")
	}
	h.state.SetCaretPosition(3)
	tl.UpdateLayout()
	if l.CaretOpacity() != 0 {
		t.Fatalf("new caret should start hidden")
	}
	tl.Tick(h.now.Add(600 * time.Millisecond))
	if l.CaretOpacity() != 1 {
		t.Fatalf("caret should show after half a period")
	}
}

func TestClickOutsideLayerClampsIntoRange(t *testing.T) {
	h := newFakeHost(t, "hello\nworld")
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	for _, pt := range []image.Point{{-50, -50}, {1000, 1000}, {1000, -3}, {-3, 1000}, {3, 5}} {
		l.MousePressed(click(pt.X, pt.Y, 1, 0))
		pos := h.state.CaretPosition()
		if pos < l.Start() || pos >= l.Limit() {
			t.Fatalf("click %v gave %d outside [%d,%d)", pt, pos, l.Start(), l.Limit())
		}
	}
	l.MousePressed(click(1000, 5, 1, 0))
	if got := h.state.CaretPosition(); got != 5 {
		t.Fatalf("click past line end = %d, want 5 (before the line feed)", got)
	}
	if h.focusReqs == 0 {
		t.Fatalf("press did not request focus")
	}
}

func TestClickCounts(t *testing.T) {
	h := newFakeHost(t, "one two three\nnext")
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	origin := l.FlowOrigin()

	l.MousePressed(click(origin.X+7*5+2, origin.Y+3, 1, 0))
	if got := h.state.CaretPosition(); got != 5 {
		t.Fatalf("caret = %d, want 5", got)
	}
	if h.dragStart != 5 || h.state.Selection().IsDefined() {
		t.Fatalf("single click: drag=%d sel=%v", h.dragStart, h.state.Selection())
	}

	l.MousePressed(click(origin.X+7*5+2, origin.Y+3, 2, 0))
	if diff := cmp.Diff(richtext.Selection{Start: 4, End: 7}, h.state.Selection()); diff != "" {
		t.Fatalf("double click selection (-want +got):\n%s", diff)
	}

	l.MousePressed(click(origin.X+7*5+2, origin.Y+3, 3, 0))
	if diff := cmp.Diff(richtext.Selection{Start: 0, End: 13}, h.state.Selection()); diff != "" {
		t.Fatalf("triple click selection (-want +got):\n%s", diff)
	}
}

func TestShiftClickExtendsFromFarEnd(t *testing.T) {
	h := newFakeHost(t, "abcdefghij")
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	origin := l.FlowOrigin()
	h.state.SetSelection(richtext.NewSelection(3, 6))

	l.MousePressed(click(origin.X+7*8+1, origin.Y+3, 1, platform.ModShift))
	if diff := cmp.Diff(richtext.Selection{Start: 3, End: 8}, h.state.Selection()); diff != "" {
		t.Fatalf("shift click after selection (-want +got):\n%s", diff)
	}

	l.MousePressed(click(origin.X+7*1+1, origin.Y+3, 1, platform.ModShift))
	if diff := cmp.Diff(richtext.Selection{Start: 1, End: 8}, h.state.Selection()); diff != "" {
		t.Fatalf("shift click before selection (-want +got):\n%s", diff)
	}
	if h.state.CaretPosition() != 1 {
		t.Fatalf("caret = %d, want 1", h.state.CaretPosition())
	}
}

func TestDragSelects(t *testing.T) {
	h := newFakeHost(t, "abcdefghij")
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	origin := l.FlowOrigin()
	l.MousePressed(click(origin.X+7*2+1, origin.Y+3, 1, 0))
	l.MouseDragged(platform.Event{Type: platform.EventMouseDrag, X: origin.X + 7*7 + 1, Y: origin.Y + 3, Held: platform.HeldPrimary})
	if diff := cmp.Diff(richtext.Selection{Start: 2, End: 7}, h.state.Selection()); diff != "" {
		t.Fatalf("drag selection (-want +got):\n%s", diff)
	}
	tl.UpdateLayout()
	if l.SelectionShape().Empty() {
		t.Fatalf("selection shape missing")
	}
}

func TestSecondaryButtonIgnored(t *testing.T) {
	h := newFakeHost(t, "abc")
	tl := h.tileFor(0)
	h.state.SetCaretPosition(2)
	ev := click(0, 0, 1, 0)
	ev.Button = platform.ButtonSecondary
	tl.MousePressed(ev)
	if h.state.CaretPosition() != 2 {
		t.Fatalf("secondary press moved caret")
	}
}

func TestOrdinalCountsAndResets(t *testing.T) {
	numbered := richtext.ParagraphDecoration{GraphicType: richtext.GraphicNumberedList}
	bulleted := richtext.ParagraphDecoration{GraphicType: richtext.GraphicBulletedList}
	nested := richtext.ParagraphDecoration{GraphicType: richtext.GraphicNumberedList, IndentationLevel: 1}
	paras := []richtext.Paragraph{
		{Index: 0, Decoration: numbered},
		{Index: 1, Decoration: numbered},
		{Index: 2, Decoration: nested},
		{Index: 3, Decoration: numbered},
		{Index: 4, Decoration: bulleted},
		{Index: 5, Decoration: numbered},
		{Index: 6},
		{Index: 7, Decoration: numbered},
	}
	var got []int
	for _, p := range paras {
		got = append(got, Ordinal(paras, p))
	}
	want := []int{1, 2, 1, 3, 0, 1, 2, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ordinals (-want +got):\n%s", diff)
	}
}

func TestNumberedLabels(t *testing.T) {
	h := newFakeHost(t, "a\nb\nc")
	h.state.SetSelection(richtext.NewSelection(0, 5))
	h.state.Decorate(richtext.ParagraphDecoration{GraphicType: richtext.GraphicNumberedList, IndentationLevel: 1})
	var labels []string
	for i := 0; i < 3; i++ {
		tl := h.tileFor(i)
		box := tl.GraphicBox()
		labels = append(labels, box.Text)
		if tl.Layers()[0].Origin().X != box.Width {
			t.Fatalf("layer at x=%d, graphic box width %d", tl.Layers()[0].Origin().X, box.Width)
		}
		if box.Width < DefaultSettings().IndentPadding {
			t.Fatalf("graphic box width %d below padding", box.Width)
		}
	}
	if diff := cmp.Diff([]string{"1.", "2.", "3."}, labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
}

func TestPlainParagraphAdvancesNumbering(t *testing.T) {
	h := newFakeHost(t, "a\nb\nc")
	numbered := richtext.ParagraphDecoration{GraphicType: richtext.GraphicNumberedList}
	h.state.SetCaretPosition(0)
	h.state.Decorate(numbered)
	h.state.SetCaretPosition(4)
	h.state.Decorate(numbered)
	if got := h.tileFor(2).GraphicBox().Text; got != "3." {
		t.Fatalf("label after plain paragraph = %q, want %q", got, "3.")
	}
}

func TestMarkerFaceSurvivesEviction(t *testing.T) {
	h := newFakeHost(t, "ab")
	bold := richtext.DefaultTextDecoration()
	bold.Bold = true
	h.state.SetSelection(richtext.NewSelection(0, 2))
	h.state.Decorate(bold)
	h.state.Decorate(richtext.ParagraphDecoration{GraphicType: richtext.GraphicNumberedList})
	tl := h.tileFor(0)
	labelKey := cache.FontKeyFor(richtext.DefaultTextDecoration(), 1)
	if tl.GraphicBox().FontKey != labelKey {
		t.Fatalf("marker face key = %+v, want %+v", tl.GraphicBox().FontKey, labelKey)
	}
	u := tl.UsedResources()
	if _, ok := u.Fonts[labelKey]; !ok {
		t.Fatalf("marker face missing from usage %v", u.Fonts)
	}
	h.res.Evict(u)
	if !h.res.HasFont(labelKey) {
		t.Fatalf("marker face evicted while the tile draws it")
	}
	if !h.res.HasFont(cache.FontKeyFor(bold, 1)) {
		t.Fatalf("bold face evicted while the tile draws it")
	}
}

func TestIndentWithoutMarker(t *testing.T) {
	h := newFakeHost(t, "a")
	h.state.Decorate(richtext.ParagraphDecoration{IndentationLevel: 2})
	tl := h.tileFor(0)
	if got := tl.GraphicBox().Width; got != 40 {
		t.Fatalf("indent = %d, want 40", got)
	}
	if got := tl.Layers()[0].PrefWidth(); got != h.width-40 {
		t.Fatalf("layer width = %d, want %d", got, h.width-40)
	}
}

func TestTableGrid(t *testing.T) {
	h := newFakeHost(t, "")
	h.width = 200
	doc := h.state.Document()
	doc.InsertTable(0, 2, 2)
	p := doc.Paragraphs()[0]
	tl := New(h)
	tl.SetParagraph(&p, doc.Fragments(p), doc.CellPositions(p), nil)
	if n := len(tl.Layers()); n != 4 {
		t.Fatalf("layers = %d, want 4", n)
	}
	var origins []image.Point
	for _, l := range tl.Layers() {
		origins = append(origins, l.Origin())
		if l.PrefWidth() != 100 {
			t.Fatalf("cell width = %d, want 100", l.PrefWidth())
		}
	}
	rowH := tl.Layers()[0].PrefHeight()
	want := []image.Point{{0, 0}, {100, 0}, {0, rowH}, {100, rowH}}
	if diff := cmp.Diff(want, origins); diff != "" {
		t.Fatalf("cell origins (-want +got):\n%s", diff)
	}
}

func TestTableGridPartialWidth(t *testing.T) {
	h := newFakeHost(t, "")
	h.width = 200
	doc := h.state.Document()
	doc.InsertTable(0, 1, 2)
	p := doc.Paragraphs()[0]
	p.Decoration.Table.WidthPercent = 62.5
	p.Decoration.Alignment = richtext.AlignCenter
	tl := New(h)
	tl.SetParagraph(&p, doc.Fragments(p), doc.CellPositions(p), nil)
	var origins []image.Point
	for _, l := range tl.Layers() {
		origins = append(origins, l.Origin())
		if l.PrefWidth() != 62 {
			t.Fatalf("cell width = %d, want 62", l.PrefWidth())
		}
	}
	if diff := cmp.Diff([]image.Point{{38, 0}, {100, 0}}, origins); diff != "" {
		t.Fatalf("cell origins (-want +got):\n%s", diff)
	}
}

func TestMalformedCellFragmentsExcluded(t *testing.T) {
	h := newFakeHost(t, "")
	h.width = 200
	table := richtext.NewTableDecoration(1, 2)
	p := richtext.Paragraph{Index: 0, Start: 0, End: 4, Decoration: richtext.ParagraphDecoration{Table: table}}
	deco := richtext.DefaultTextDecoration()
	fragments := []richtext.Fragment{
		{Start: 0, End: 2, Text: "a\u200b", Decoration: deco, Cell: richtext.Cell{Index: 0}},
		{Start: 2, End: 3, Text: "b", Decoration: deco, Cell: richtext.Cell{Index: 1, Column: 1}},
		{Start: 3, End: 4, Text: "x", Decoration: deco, Cell: richtext.Cell{Index: 7, Row: 3, Column: 1}},
		{Start: 3, End: 4, Text: "y", Decoration: deco, Cell: richtext.NoCell},
	}
	tl := New(h)
	tl.SetParagraph(&p, fragments, []int{0, 2, 4}, nil)
	var texts []string
	for _, l := range tl.Layers() {
		var s string
		for _, r := range l.Flow().Runs() {
			s += r.Text
		}
		texts = append(texts, s)
	}
	if diff := cmp.Diff([]string{"a\u200b", "b"}, texts); diff != "" {
		t.Fatalf("cell contents (-want +got):\n%s", diff)
	}
}

func TestBackgroundRangesMerge(t *testing.T) {
	h := newFakeHost(t, "highlight me please")
	doc := h.state.Document()
	p := doc.Paragraphs()[0]
	yellow := richtext.RGBA(0xFF, 0xFF, 0, 0xFF)
	blue := richtext.RGBA(0, 0, 0xFF, 0xFF)
	tl := New(h)
	tl.SetParagraph(&p, doc.Fragments(p), doc.CellPositions(p), []IndexRangeColor{
		{Start: 0, End: 6, Color: yellow},
		{Start: 4, End: 12, Color: yellow},
		{Start: 14, End: 16, Color: blue},
	})
	bg := tl.Layers()[0].Backgrounds()
	if len(bg) != 2 {
		t.Fatalf("background colors = %d, want 2", len(bg))
	}
	if n := bg[yellow].Regions(); n != 1 {
		t.Fatalf("overlapping ranges gave %d regions, want 1", n)
	}
	if len(bg[yellow].Rects()) != 1 {
		t.Fatalf("yellow rects = %v", bg[yellow].Rects())
	}
}

func TestReconcile(t *testing.T) {
	var a, b, moved geom.Path
	a.AddRect(image.Rect(0, 0, 10, 10))
	b.AddRect(image.Rect(0, 20, 10, 30))
	moved.AddRect(image.Rect(5, 0, 15, 10))
	red, green, blue := richtext.Color(1), richtext.Color(2), richtext.Color(3)

	old := map[richtext.Color]geom.Path{red: a, green: b}
	next := map[richtext.Color]geom.Path{red: a, blue: moved}
	add, remove := Reconcile(old, next)
	if diff := cmp.Diff([]richtext.Color{green}, remove); diff != "" {
		t.Fatalf("remove (-want +got):\n%s", diff)
	}
	if _, ok := add[red]; ok {
		t.Fatalf("unchanged color re-added")
	}
	if _, ok := add[blue]; !ok {
		t.Fatalf("new color not added")
	}

	add, remove = Reconcile(next, map[richtext.Color]geom.Path{red: moved, blue: moved})
	if len(remove) != 0 || len(add) != 1 {
		t.Fatalf("moved shape: add=%d remove=%d", len(add), len(remove))
	}
}

func TestNextRowPosition(t *testing.T) {
	h := newFakeHost(t, "abcdefghij")
	h.width = 7*4 + 2 + 2
	h.state.SetFocused(true)
	h.state.SetCaretPosition(1)
	tl := h.tileFor(0)
	down, ok := tl.NextRowPosition(-1, true)
	if !ok {
		t.Fatalf("tile has no caret")
	}
	if down != 5 {
		t.Fatalf("row below = %d, want 5", down)
	}
	h.state.SetCaretPosition(down)
	tl.UpdateLayout()
	up, _ := tl.NextRowPosition(-1, false)
	if up != 1 {
		t.Fatalf("row above = %d, want 1", up)
	}
}

func TestUsedResources(t *testing.T) {
	h := newFakeHost(t, "ab")
	bold := richtext.DefaultTextDecoration()
	bold.Bold = true
	h.state.SetSelection(richtext.NewSelection(1, 2))
	h.state.Decorate(bold)
	tl := h.tileFor(0)
	u := tl.UsedResources()
	if len(u.Fonts) != 2 {
		t.Fatalf("fonts used = %d, want 2", len(u.Fonts))
	}
	if _, ok := u.Fonts[cache.FontKeyFor(bold, 1)]; !ok {
		t.Fatalf("bold face not reported")
	}
}

func TestResetStopsBlink(t *testing.T) {
	h := newFakeHost(t, "abc")
	h.state.SetFocused(true)
	tl := h.tileFor(0)
	l := tl.Layers()[0]
	if !l.blink.Running() {
		t.Fatalf("blink not running")
	}
	tl.SetParagraph(nil, nil, nil, nil)
	if l.blink.Running() || len(tl.Layers()) != 0 {
		t.Fatalf("reset left blink running or layers behind")
	}
}
