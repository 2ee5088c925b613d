package tile

import (
	"image"
	"maps"
	"time"

	"go.uber.org/zap"

	"richtext/internal/cache"
	"richtext/internal/geom"
	"richtext/internal/layout"
	"richtext/internal/platform"
	"richtext/pkg/richtext"
)

// Layer shows the document range [start, end) of one paragraph or one
// table cell. Shapes are kept in layer coordinates.
type Layer struct {
	host  Host
	start int
	end   int
	last  bool

	flow   *layout.Flow
	width  int
	origin image.Point

	images      []image.Image
	usage       cache.Usage
	backgrounds map[richtext.Color]geom.Path

	caret        geom.Path
	caretPos     int
	caretOpacity float64
	blink        *Blink
	selection    geom.Path
}

func newLayer(host Host, start, end int, last bool) *Layer {
	return &Layer{
		host:        host,
		start:       start,
		end:         end,
		last:        last,
		flow:        layout.NewFlow(),
		usage:       cache.NewUsage(),
		backgrounds: map[richtext.Color]geom.Path{},
		caretPos:    -1,
		blink:       NewBlink(host.Settings().BlinkPeriod),
	}
}

func (l *Layer) Start() int { return l.start }

func (l *Layer) End() int { return l.end }

// Limit is the first offset this layer does not own. The final paragraph
// also owns the offset past its end.
func (l *Layer) Limit() int {
	if l.last {
		return l.end + 1
	}
	return l.end
}

// Origin is the layer position inside its tile.
func (l *Layer) Origin() image.Point { return l.origin }

func (l *Layer) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Pt(l.width, l.PrefHeight())}.Add(l.origin)
}

func (l *Layer) Flow() *layout.Flow { return l.flow }

// FlowOrigin is where the flow's content box starts in layer coordinates.
func (l *Layer) FlowOrigin() image.Point {
	in := l.flow.Insets()
	return image.Pt(1+in.Left, 1+in.Top)
}

func (l *Layer) setPrefWidth(w int) {
	l.width = max(w, 0)
	l.flow.SetPrefWidth(max(l.width-2, 1))
}

func (l *Layer) PrefWidth() int { return l.width }

func (l *Layer) PrefHeight() int { return l.flow.PrefHeight() + 2 }

// Image returns the picture for an image run.
func (l *Layer) Image(run int) image.Image {
	if run < 0 || run >= len(l.images) {
		return nil
	}
	return l.images[run]
}

// UsedResources lists the fonts and images the current content draws with.
func (l *Layer) UsedResources() cache.Usage { return l.usage }

func (l *Layer) Backgrounds() map[richtext.Color]geom.Path { return l.backgrounds }

func (l *Layer) CaretShape() geom.Path { return l.caret }

func (l *Layer) CaretOpacity() float64 { return l.caretOpacity }

func (l *Layer) SelectionShape() geom.Path { return l.selection }

func (l *Layer) HasCaret() bool { return !l.caret.Empty() }

// setContent replaces the runs and paragraph styling.
func (l *Layer) setContent(fragments []richtext.Fragment, deco richtext.ParagraphDecoration, align richtext.Alignment) {
	res := l.host.Resources()
	l.usage = cache.NewUsage()
	runs := make([]layout.Run, 0, len(fragments))
	l.images = l.images[:0]
	for _, f := range fragments {
		switch d := f.Decoration.(type) {
		case richtext.ImageDecoration:
			key, img := res.Image(d)
			l.usage.Images[key] = struct{}{}
			size := image.Pt(d.Width, d.Height)
			if size.X <= 0 || size.Y <= 0 {
				size = img.Bounds().Size()
			}
			runs = append(runs, layout.Run{Text: f.Text, Size: size, Decoration: d})
			l.images = append(l.images, img)
		case richtext.TextDecoration:
			key, face := res.Face(d)
			l.usage.Fonts[key] = struct{}{}
			runs = append(runs, layout.Run{Text: f.Text, Face: face, Decoration: d})
			l.images = append(l.images, nil)
		}
	}
	l.flow.SetRuns(runs)
	l.flow.SetAlignment(align)
	l.flow.SetLineSpacing(deco.Spacing)
	l.flow.SetInsets(layout.Insets{Top: deco.TopInset, Right: deco.RightInset, Bottom: deco.BottomInset, Left: deco.LeftInset})
}

// labelDecoration is the text style markers of this layer are measured in.
func (l *Layer) labelDecoration() richtext.TextDecoration {
	size := richtext.DefaultTextDecoration().FontSize
	for _, r := range l.flow.Runs() {
		if td, ok := r.Decoration.(richtext.TextDecoration); ok {
			size = td.FontSize
			break
		}
	}
	d := richtext.DefaultTextDecoration()
	d.FontSize = size
	return d
}

// CaretY is the bottom of the first line, where markers are centered.
func (l *Layer) CaretY() int {
	return l.flow.CaretShape(0).Bounds().Max.Y
}

// setBackground paints each range with its color, merging overlapping
// ranges of one color into a single shape.
func (l *Layer) setBackground(ranges []IndexRangeColor) {
	next := map[richtext.Color]geom.Path{}
	origin := l.FlowOrigin()
	for _, r := range ranges {
		s, e := max(r.Start, l.start), min(r.End, l.end)
		if s >= e || r.Color.IsZero() {
			continue
		}
		shape := l.flow.RangeShape(s-l.start, e-l.start).Translate(origin)
		next[r.Color] = geom.Union(next[r.Color], shape)
	}
	toAdd, toRemove := Reconcile(l.backgrounds, next)
	for _, c := range toRemove {
		delete(l.backgrounds, c)
	}
	maps.Copy(l.backgrounds, toAdd)
}

func (l *Layer) hit(pt image.Point) int {
	idx := l.flow.HitTest(pt.Sub(l.FlowOrigin())).InsertionIndex
	return min(l.start+max(idx, 0), max(l.Limit()-1, l.start))
}

// MousePressed places the caret for a click at a layer-local point. One
// click moves the caret and starts a drag, two select a word, three the
// paragraph. Shift extends the selection from its far end.
func (l *Layer) MousePressed(ev platform.Event) {
	if ev.Button != platform.ButtonPrimary || ev.Held&(platform.HeldMiddle|platform.HeldSecondary) != 0 {
		return
	}
	st := l.host.State()
	prevSel := st.Selection()
	prevCaret := st.CaretPosition()
	pos := l.hit(ev.Pos())
	switch {
	case ev.Modifiers == 0:
		st.SetCaretPosition(pos)
		switch ev.ClickCount {
		case 2:
			st.SelectCurrentWord()
		case 3:
			st.SelectCurrentParagraph()
		default:
			l.host.SetDragStart(pos)
			st.ClearSelection()
		}
	case ev.Modifiers == platform.ModShift && ev.ClickCount <= 1:
		anchor := prevCaret
		if prevSel.IsDefined() {
			if pos < prevSel.Start {
				anchor = prevSel.End
			} else {
				anchor = prevSel.Start
			}
		}
		if anchor < 0 {
			anchor = pos
		}
		st.SetSelection(richtext.NewSelection(anchor, pos))
		st.SetCaretPosition(pos)
	}
	l.host.RequestFocus()
}

// MouseDragged extends the selection from the drag start to the pointer.
func (l *Layer) MouseDragged(ev platform.Event) {
	if ev.Button != platform.ButtonPrimary && ev.Held&platform.HeldPrimary == 0 {
		return
	}
	st := l.host.State()
	pos := l.hit(ev.Pos())
	st.SetSelection(richtext.NewSelection(l.host.DragStart(), pos))
	st.SetCaretPosition(pos)
}

// UpdateCaretPosition shows the caret when pos falls in this layer, the
// control has focus and is editable. A new caret restarts the blink.
func (l *Layer) UpdateCaretPosition(pos int) {
	st := l.host.State()
	prev := l.caretPos
	l.caret = geom.Path{}
	l.caretPos = -1
	if pos < 0 || pos < l.start || l.Limit() <= pos || !st.Focused() || !st.Editable() {
		l.blink.Stop()
		l.caretOpacity = 0
		return
	}
	shape := l.flow.CaretShape(pos - l.start)
	if shape.Empty() {
		l.blink.Stop()
		return
	}
	set := l.host.Settings()
	if shape.Bounds().Dy() < set.CaretMinHeight {
		o, _ := shape.Origin()
		shape.LineTo(o.X, o.Y+set.CaretHeight)
	}
	l.caret = shape.Translate(l.FlowOrigin())
	l.caretPos = pos
	l.host.SetLastValidCaretPosition(pos)
	if prev != pos || !l.blink.Running() {
		now := l.host.Now()
		l.blink.Start(now)
		l.caretOpacity = l.blink.Opacity(now)
	}
}

// Tick advances the blink.
func (l *Layer) Tick(now time.Time) {
	if l.caret.Empty() {
		l.caretOpacity = 0
		return
	}
	l.caretOpacity = l.blink.Opacity(now)
}

func (l *Layer) UpdateSelection(sel richtext.Selection) {
	l.selection = geom.Path{}
	if !sel.IsDefined() || l.start > sel.End || l.end <= sel.Start {
		return
	}
	s, e := max(l.start, sel.Start), min(l.end, sel.End)
	l.selection = l.flow.RangeShape(s-l.start, e-l.start).Translate(l.FlowOrigin())
}

// NextRowPosition is the offset one line below or above the caret. A
// negative x keeps the caret column.
func (l *Layer) NextRowPosition(x int, down bool) int {
	cb := l.caret.Bounds().Sub(l.FlowOrigin())
	px := cb.Max.X
	y := (cb.Min.Y + cb.Max.Y) / 2
	if x >= 0 {
		px = x - l.FlowOrigin().X
	} else if down {
		y = cb.Max.Y + l.flow.LineSpacing()
	} else {
		y = cb.Min.Y - l.flow.LineSpacing() - 1
	}
	return l.start + l.flow.HitTest(image.Pt(px, y)).InsertionIndex
}

func (l *Layer) reset() {
	l.blink.Stop()
	l.caret = geom.Path{}
	l.caretPos = -1
	l.caretOpacity = 0
	l.selection = geom.Path{}
	clear(l.backgrounds)
	l.host.Logger().Debug("layer reset", zap.Int("start", l.start), zap.Int("end", l.end))
}
