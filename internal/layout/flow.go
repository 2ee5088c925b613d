package layout

import (
	"image"
	"unicode"

	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/image/font"

	"richtext/internal/geom"
	"richtext/pkg/richtext"
)

// Run is one fragment handed to the flow: text drawn with Face, or an image
// of Size.
type Run struct {
	Text       string
	Face       font.Face
	Size       image.Point
	Decoration richtext.Decoration
}

func (r Run) IsImage() bool { return r.Face == nil }

type Insets struct {
	Top, Right, Bottom, Left int
}

type Hit struct {
	InsertionIndex int
}

// Placement is a laid out piece of one run on one line, for painting.
type Placement struct {
	Run      int
	Text     string
	Baseline image.Point
	Rect     image.Rectangle
}

type glyph struct {
	r       rune
	run     int
	x       int
	w       int
	ascent  int
	descent int
}

type line struct {
	start   int
	end     int
	x       int
	y       int
	ascent  int
	height  int
	width   int
	hasFeed bool
}

// Flow lays runs out into lines. Coordinates are local to the content box,
// insets excluded.
type Flow struct {
	runs      []Run
	prefWidth int
	align     richtext.Alignment
	spacing   int
	insets    Insets

	glyphs []glyph
	lines  []line
	dirty  bool
}

func NewFlow() *Flow { return &Flow{dirty: true} }

func (f *Flow) SetRuns(runs []Run) {
	f.runs = append(f.runs[:0], runs...)
	f.dirty = true
}

func (f *Flow) Runs() []Run { return f.runs }

func (f *Flow) SetAlignment(a richtext.Alignment) {
	f.align = a
	f.dirty = true
}

func (f *Flow) SetLineSpacing(spacing int) {
	f.spacing = max(spacing, 0)
	f.dirty = true
}

func (f *Flow) LineSpacing() int { return f.spacing }

func (f *Flow) SetInsets(in Insets) {
	f.insets = in
	f.dirty = true
}

func (f *Flow) Insets() Insets { return f.insets }

// SetPrefWidth sets the outer width, insets included. Zero or less means
// no wrapping.
func (f *Flow) SetPrefWidth(w int) {
	if w != f.prefWidth {
		f.prefWidth = w
		f.dirty = true
	}
}

func (f *Flow) PrefWidth() int { return f.prefWidth }

func (f *Flow) contentWidth() int {
	if f.prefWidth <= 0 {
		return 0
	}
	return max(f.prefWidth-f.insets.Left-f.insets.Right, 1)
}

// Len is the number of insertion slots the runs occupy, minus one.
func (f *Flow) Len() int {
	f.layout()
	return len(f.glyphs)
}

func (f *Flow) PrefHeight() int {
	f.layout()
	h := f.insets.Top + f.insets.Bottom
	if n := len(f.lines); n > 0 {
		last := f.lines[n-1]
		h += last.y + last.height
	}
	return h
}

func (f *Flow) layout() {
	if !f.dirty {
		return
	}
	f.dirty = false
	f.glyphs = f.glyphs[:0]
	f.lines = f.lines[:0]
	for ri, run := range f.runs {
		if run.IsImage() {
			for range run.Text {
				f.glyphs = append(f.glyphs, glyph{r: richtext.ObjectReplace, run: ri, w: run.Size.X, ascent: run.Size.Y})
			}
			continue
		}
		m := run.Face.Metrics()
		asc, desc := m.Ascent.Ceil(), m.Descent.Ceil()
		prev := rune(-1)
		for _, r := range run.Text {
			g := glyph{r: r, run: ri, ascent: asc, descent: desc}
			if !zeroWidth(r) {
				adv, ok := run.Face.GlyphAdvance(r)
				if !ok {
					adv, _ = run.Face.GlyphAdvance('?')
				}
				if prev >= 0 {
					adv += run.Face.Kern(prev, r)
				}
				g.w = adv.Round()
			}
			prev = r
			f.glyphs = append(f.glyphs, g)
		}
	}
	f.breakLines()
}

func zeroWidth(r rune) bool {
	return r == richtext.LineFeed || r == richtext.TableSeparator
}

// breakLines fills lines greedily, breaking at UAX #14 opportunities and
// falling back to single glyphs when one segment does not fit.
func (f *Flow) breakLines() {
	width := f.contentWidth()
	if len(f.glyphs) == 0 {
		f.lines = append(f.lines, line{})
		return
	}
	runes := make([]rune, len(f.glyphs))
	for i, g := range f.glyphs {
		runes[i] = g.r
	}
	var seg segmenter.Segmenter
	seg.Init(runes)
	iter := seg.LineIterator()

	cur := line{start: 0}
	x := 0
	place := func(i int) {
		f.glyphs[i].x = x
		x += f.glyphs[i].w
		cur.end = i + 1
	}
	newLine := func() {
		f.lines = append(f.lines, cur)
		cur = line{start: cur.end, end: cur.end}
		x = 0
	}
	for iter.Next() {
		l := iter.Line()
		start, end := l.Offset, l.Offset+len(l.Text)
		if width > 0 && cur.end > cur.start && x+f.fitWidth(start, end) > width {
			newLine()
		}
		for i := start; i < end; i++ {
			if width > 0 && cur.end > cur.start && x+f.glyphs[i].w > width && !unicode.IsSpace(f.glyphs[i].r) {
				newLine()
			}
			place(i)
			if f.glyphs[i].r == richtext.LineFeed {
				cur.hasFeed = true
				if i+1 < len(f.glyphs) {
					newLine()
				}
			}
		}
	}
	f.lines = append(f.lines, cur)
	f.measureLines(width)
}

// fitWidth is the width of [start, end) without trailing white space.
func (f *Flow) fitWidth(start, end int) int {
	for end > start && unicode.IsSpace(f.glyphs[end-1].r) {
		end--
	}
	w := 0
	for i := start; i < end; i++ {
		w += f.glyphs[i].w
	}
	return w
}

func (f *Flow) measureLines(width int) {
	y := 0
	for li := range f.lines {
		l := &f.lines[li]
		desc := 0
		for i := l.start; i < l.end; i++ {
			g := f.glyphs[i]
			l.ascent = max(l.ascent, g.ascent)
			desc = max(desc, g.descent)
		}
		l.height = l.ascent + desc
		l.width = f.fitWidth(l.start, l.end)
		if width > 0 {
			switch f.align {
			case richtext.AlignCenter:
				l.x = max((width-l.width)/2, 0)
			case richtext.AlignRight:
				l.x = max(width-l.width, 0)
			}
		}
		l.y = y
		y += l.height + f.spacing
	}
}

// lineFor picks the line showing insertion index i; an index at a soft wrap
// belongs to the following line.
func (f *Flow) lineFor(i int) line {
	for li, l := range f.lines {
		if i < l.end || li == len(f.lines)-1 {
			return l
		}
	}
	return f.lines[len(f.lines)-1]
}

func (f *Flow) xAt(l line, i int) int {
	if i <= l.start || l.end == l.start {
		return l.x
	}
	if i >= l.end {
		last := f.glyphs[l.end-1]
		return l.x + last.x + last.w
	}
	return l.x + f.glyphs[i].x
}

// HitTest maps a point to the nearest insertion index. Points outside the
// text are clamped to the first or last line and to the line ends.
func (f *Flow) HitTest(pt image.Point) Hit {
	f.layout()
	l := f.lines[len(f.lines)-1]
	for _, cand := range f.lines {
		if pt.Y < cand.y+cand.height+f.spacing {
			l = cand
			break
		}
	}
	if pt.X <= l.x {
		return Hit{InsertionIndex: l.start}
	}
	for i := l.start; i < l.end; i++ {
		g := f.glyphs[i]
		if pt.X < l.x+g.x+g.w/2 {
			return Hit{InsertionIndex: i}
		}
	}
	if l.end > l.start {
		last := f.glyphs[l.end-1]
		if l.hasFeed || (l.end < len(f.glyphs) && unicode.IsSpace(last.r)) {
			return Hit{InsertionIndex: l.end - 1}
		}
	}
	return Hit{InsertionIndex: l.end}
}

// CaretShape is a vertical segment spanning the line at index.
func (f *Flow) CaretShape(index int) geom.Path {
	f.layout()
	index = max(0, min(index, len(f.glyphs)))
	l := f.lineFor(index)
	x := f.xAt(l, index)
	var p geom.Path
	p.MoveTo(x, l.y)
	p.LineTo(x, l.y+l.height)
	return p
}

// RangeShape outlines [start, end) with one rectangle per line.
func (f *Flow) RangeShape(start, end int) geom.Path {
	f.layout()
	var p geom.Path
	if start >= end {
		return p
	}
	for _, l := range f.lines {
		s, e := max(start, l.start), min(end, l.end)
		if s >= e {
			continue
		}
		x0, x1 := f.xAt(l, s), f.xAt(l, e)
		p.AddRect(image.Rect(x0, l.y, x1, l.y+l.height))
	}
	return p
}

// Placements lists every run piece per line with its baseline origin.
func (f *Flow) Placements() []Placement {
	f.layout()
	var out []Placement
	for _, l := range f.lines {
		i := l.start
		for i < l.end {
			run := f.glyphs[i].run
			j := i
			var text []rune
			for j < l.end && f.glyphs[j].run == run {
				if !zeroWidth(f.glyphs[j].r) {
					text = append(text, f.glyphs[j].r)
				}
				j++
			}
			x0 := l.x + f.glyphs[i].x
			x1 := l.x + f.glyphs[j-1].x + f.glyphs[j-1].w
			base := image.Pt(x0, l.y+l.ascent)
			top := l.y
			if f.runs[run].IsImage() {
				top = base.Y - f.runs[run].Size.Y
			}
			out = append(out, Placement{
				Run:      run,
				Text:     string(text),
				Baseline: base,
				Rect:     image.Rect(x0, top, x1, l.y+l.height),
			})
			i = j
		}
	}
	return out
}
