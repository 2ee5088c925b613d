package tile

import (
	"image"
	"time"

	"go.uber.org/zap"

	"richtext/internal/cache"
	"richtext/internal/platform"
	"richtext/pkg/richtext"
)

// Tile draws one paragraph: a single layer behind an optional graphic box,
// or a grid of layers for a table.
type Tile struct {
	host      Host
	paragraph richtext.Paragraph
	valid     bool
	layers    []*Layer
	box       GraphicBox
	grid      []image.Rectangle
	size      image.Point
}

func New(host Host) *Tile {
	return &Tile{host: host}
}

func (t *Tile) Paragraph() (richtext.Paragraph, bool) { return t.paragraph, t.valid }

func (t *Tile) Layers() []*Layer { return t.layers }

func (t *Tile) GraphicBox() GraphicBox { return t.box }

// Grid returns the cell rectangles of a table tile in tile coordinates.
func (t *Tile) Grid() []image.Rectangle { return t.grid }

func (t *Tile) Size() image.Point { return t.size }

// SetParagraph rebuilds the tile for p. positions are the cell boundaries
// of a table paragraph and background the highlighted document ranges.
func (t *Tile) SetParagraph(p *richtext.Paragraph, fragments []richtext.Fragment, positions []int, background []IndexRangeColor) {
	t.Reset()
	if p == nil {
		return
	}
	t.paragraph, t.valid = *p, true
	if p.Decoration.Table != nil {
		t.createGrid(*p, fragments, positions, background)
	} else {
		t.createSingle(*p, fragments, background)
	}
	st := t.host.State()
	t.UpdateCaretPosition(st.CaretPosition())
	t.UpdateSelection(st.Selection())
}

// Reset drops every layer and stops its blink.
func (t *Tile) Reset() {
	for _, l := range t.layers {
		l.reset()
	}
	t.layers = nil
	t.grid = nil
	t.box = GraphicBox{}
	t.size = image.Point{}
	t.paragraph, t.valid = richtext.Paragraph{}, false
}

func (t *Tile) createSingle(p richtext.Paragraph, fragments []richtext.Fragment, background []IndexRangeColor) {
	layer := newLayer(t.host, p.Start, p.End, t.host.IsLastParagraph(p))
	layer.setContent(fragments, p.Decoration, p.Decoration.Alignment)
	t.box = t.graphicBox(p, layer)
	layer.origin = image.Pt(t.box.Width, 0)
	layer.setBackground(background)
	t.layers = []*Layer{layer}
	h := max(layer.PrefHeight(), t.box.Rect.Max.Y+p.Decoration.BottomInset)
	t.size = image.Pt(t.host.TextFlowPrefWidth(), h)
}

func (t *Tile) createGrid(p richtext.Paragraph, fragments []richtext.Fragment, positions []int, background []IndexRangeColor) {
	table := p.Decoration.Table
	rows, cols := max(table.Rows, 1), max(table.Columns, 1)
	avail := t.host.TextFlowPrefWidth()
	percent := table.WidthPercent
	if percent <= 0 || percent > 100 {
		percent = 100
	}
	colWidth := max(int(float64(avail)*percent/100)/cols, 1)
	gridWidth := colWidth * cols
	var x0 int
	switch p.Decoration.Alignment {
	case richtext.AlignCenter:
		x0 = max((avail-gridWidth)/2, 0)
	case richtext.AlignRight:
		x0 = max(avail-gridWidth, 0)
	}

	last := t.host.IsLastParagraph(p)
	used := make([]bool, len(fragments))
	rowHeights := make([]int, rows)
	for k := 0; k < rows*cols && k+1 < len(positions); k++ {
		start, end := positions[k], positions[k+1]
		if end < start {
			break
		}
		row, col := k/cols, k%cols
		var cell []richtext.Fragment
		for i, f := range fragments {
			if f.Cell.Index == k && start <= f.Start && f.Start < end {
				cell = append(cell, f)
				used[i] = true
			}
		}
		deco := p.Decoration
		deco.Table = nil
		layer := newLayer(t.host, start, end, last && k+2 == len(positions))
		layer.setContent(cell, deco, table.AlignmentAt(row, col))
		layer.setPrefWidth(colWidth)
		layer.origin = image.Pt(x0+col*colWidth, 0)
		layer.setBackground(background)
		rowHeights[row] = max(rowHeights[row], layer.PrefHeight())
		t.layers = append(t.layers, layer)
	}
	for i, ok := range used {
		if !ok {
			f := fragments[i]
			t.host.Logger().Debug("fragment outside table cells",
				zap.Int("paragraph", p.Index),
				zap.Int("start", f.Start),
				zap.Int("cell", f.Cell.Index))
		}
	}

	rowY := make([]int, rows+1)
	for r := 0; r < rows; r++ {
		rowY[r+1] = rowY[r] + rowHeights[r]
	}
	for k, layer := range t.layers {
		row, col := k/cols, k%cols
		layer.origin.Y = rowY[row]
		t.grid = append(t.grid, image.Rect(x0+col*colWidth, rowY[row], x0+(col+1)*colWidth, rowY[row+1]))
	}
	t.size = image.Pt(avail, rowY[rows]+1)
}

// layerAt finds the layer under a tile point, or the nearest one.
func (t *Tile) layerAt(pt image.Point) *Layer {
	var best *Layer
	bestDist := -1
	for _, l := range t.layers {
		b := l.Bounds()
		if pt.In(b) {
			return l
		}
		d := distance(pt, b)
		if bestDist < 0 || d < bestDist {
			best, bestDist = l, d
		}
	}
	return best
}

func distance(pt image.Point, r image.Rectangle) int {
	dx := max(r.Min.X-pt.X, 0, pt.X-(r.Max.X-1))
	dy := max(r.Min.Y-pt.Y, 0, pt.Y-(r.Max.Y-1))
	return dx*dx + dy*dy
}

// MousePressed routes a tile-local event to the layer under it.
func (t *Tile) MousePressed(ev platform.Event) {
	if l := t.layerAt(ev.Pos()); l != nil {
		l.MousePressed(ev.Localize(l.origin))
	}
}

func (t *Tile) MouseDragged(ev platform.Event) {
	if l := t.layerAt(ev.Pos()); l != nil {
		l.MouseDragged(ev.Localize(l.origin))
	}
}

// PositionAt is the offset under a tile point. It leaves the state alone.
func (t *Tile) PositionAt(pt image.Point) (int, bool) {
	l := t.layerAt(pt)
	if l == nil {
		return 0, false
	}
	return l.hit(pt.Sub(l.origin)), true
}

// CaretX is the caret column in tile coordinates, or -1 without a caret.
func (t *Tile) CaretX() int {
	for _, l := range t.layers {
		if l.HasCaret() {
			return l.caret.Bounds().Min.X + l.origin.X
		}
	}
	return -1
}

func (t *Tile) UpdateCaretPosition(pos int) {
	for _, l := range t.layers {
		l.UpdateCaretPosition(pos)
	}
}

func (t *Tile) UpdateSelection(sel richtext.Selection) {
	for _, l := range t.layers {
		l.UpdateSelection(sel)
	}
}

// UpdateLayout refreshes caret and selection after the state or width
// changed.
func (t *Tile) UpdateLayout() {
	st := t.host.State()
	t.UpdateCaretPosition(st.CaretPosition())
	t.UpdateSelection(st.Selection())
}

func (t *Tile) HasCaret() bool {
	for _, l := range t.layers {
		if l.HasCaret() {
			return true
		}
	}
	return false
}

// NextRowPosition asks the layer holding the caret for the offset on the
// adjacent row. ok is false when no layer of the tile has the caret.
func (t *Tile) NextRowPosition(x int, down bool) (int, bool) {
	for _, l := range t.layers {
		if l.HasCaret() {
			if x >= 0 {
				x -= l.origin.X
			}
			return l.NextRowPosition(x, down), true
		}
	}
	return 0, false
}

func (t *Tile) Tick(now time.Time) {
	for _, l := range t.layers {
		l.Tick(now)
	}
}

// UsedResources is the union of what every layer and the marker draw with.
func (t *Tile) UsedResources() cache.Usage {
	u := cache.NewUsage()
	for _, l := range t.layers {
		u.Merge(l.UsedResources())
	}
	if t.box.Face != nil {
		u.Fonts[t.box.FontKey] = struct{}{}
	}
	return u
}
