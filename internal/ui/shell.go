package ui

import (
	"image"
	"image/color"

	"golang.org/x/image/font"

	"richtext/internal/render"
)

// Layout places the host chrome around the text area. Every rectangle is in
// window coordinates.
type Layout struct {
	Scale   float32
	Title   image.Rectangle
	Toolbar image.Rectangle
	Canvas  image.Rectangle
	Page    image.Rectangle
	// Content is where the area paints; its width is the area's preferred
	// width.
	Content image.Rectangle
	Status  image.Rectangle
	// Scroll is the track of the vertical scroll thumb, right of Content.
	Scroll image.Rectangle
}

func (l Layout) dp(v int) int { return int(float32(v) * l.Scale) }

func ComputeLayout(w, h int, theme Theme, scale float32) Layout {
	if scale <= 0 {
		scale = 1
	}
	l := Layout{Scale: scale}

	titleH := l.dp(theme.TitleHeightDp)
	toolbarH := l.dp(theme.ToolbarHeightDp)
	statusH := l.dp(theme.StatusHeightDp)
	margin := l.dp(theme.PageMarginDp)
	pad := l.dp(18)

	l.Title = image.Rect(0, 0, w, titleH)
	l.Toolbar = image.Rect(0, titleH, w, titleH+toolbarH)
	l.Status = image.Rect(0, max(h-statusH, l.Toolbar.Max.Y), w, h)
	l.Canvas = image.Rect(0, l.Toolbar.Max.Y, w, l.Status.Min.Y)

	pageW := min(max(w-margin*2, l.dp(320)), l.dp(900))
	pageH := max(l.Canvas.Dy()-margin*2, l.dp(200))
	pageX := (w - pageW) / 2
	l.Page = image.Rect(pageX, l.Canvas.Min.Y+margin, pageX+pageW, l.Canvas.Min.Y+margin+pageH)

	top := l.Page.Min.Y + pad + l.dp(8)
	contentW := max(pageW-pad*2, l.dp(100))
	contentH := max(pageH-pad*2-l.dp(4), l.dp(100))
	l.Content = image.Rect(l.Page.Min.X+pad, top, l.Page.Min.X+pad+contentW, top+contentH)

	track := max(l.dp(4), 2)
	x := l.Content.Max.X + (pad-track)/2
	l.Scroll = image.Rect(x, l.Content.Min.Y, x+track, l.Content.Max.Y)
	return l
}

// ToolbarSlots lays out buttons of the given widths left to right, starting
// at the page's left edge and vertically centered in the toolbar.
func (l Layout) ToolbarSlots(widths []int) []image.Rectangle {
	inset := l.dp(6)
	gap := l.dp(4)
	h := max(l.Toolbar.Dy()-inset*2, 1)
	x, y := l.Page.Min.X, l.Toolbar.Min.Y+inset
	slots := make([]image.Rectangle, 0, len(widths))
	for _, w := range widths {
		w = max(w, h)
		slots = append(slots, image.Rect(x, y, x+w, y+h))
		x += w + gap
	}
	return slots
}

// ScrollThumb is the part of the track showing the visible share of a text
// of height total scrolled down by offset. It is empty when everything fits.
func (l Layout) ScrollThumb(offset, total int) image.Rectangle {
	visible := l.Content.Dy()
	track := l.Scroll
	if total <= visible || track.Empty() {
		return image.Rectangle{}
	}
	h := max(track.Dy()*visible/total, l.dp(16))
	h = min(h, track.Dy())
	span := total - visible
	offset = max(0, min(offset, span))
	y := track.Min.Y + (track.Dy()-h)*offset/span
	return image.Rect(track.Min.X, y, track.Max.X, y+h)
}

func fill(fb *render.FrameBuffer, r image.Rectangle, c color.RGBA) {
	fb.FillRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), c)
}

// DrawShell paints the title strip, the toolbar strip, the canvas with its
// page, and the status strip. The title is drawn with face when it is set.
func DrawShell(fb *render.FrameBuffer, theme Theme, scale float32, face font.Face, title string) Layout {
	l := ComputeLayout(fb.W, fb.H, theme, scale)

	fb.Clear(theme.AppBackground)
	fill(fb, l.Title, theme.TopBar)
	fill(fb, l.Toolbar, theme.Toolbar)
	top := l.Title.Union(l.Toolbar)
	fb.StrokeRect(top.Min.X, top.Min.Y, top.Dx(), top.Dy(), 1, theme.Border)
	if face != nil && title != "" {
		fb.DrawText(face, baseline(face, l.Title, l.Page.Min.X), title, theme.TitleText)
	}

	fill(fb, l.Canvas, theme.Canvas)
	p := l.Page
	fill(fb, p.Add(image.Pt(2, 2)), theme.Shadow)
	fill(fb, p, theme.Page)
	fb.StrokeRect(p.Min.X, p.Min.Y, p.Dx(), p.Dy(), 1, theme.Border)
	fb.FillRect(p.Min.X, p.Min.Y, p.Dx(), max(l.dp(3), 1), theme.Accent)

	fill(fb, l.Status, theme.StatusBar)
	fb.StrokeRect(l.Status.Min.X, l.Status.Min.Y, l.Status.Dx(), l.Status.Dy(), 1, theme.Border)
	return l
}

// DrawScroll paints the thumb for a text of height total scrolled by offset.
func DrawScroll(fb *render.FrameBuffer, l Layout, theme Theme, offset, total int) {
	if r := l.ScrollThumb(offset, total); !r.Empty() {
		fill(fb, r, theme.Grid)
	}
}

// DrawStatus writes text into the status strip, aligned with the content and
// cut with an ellipsis where it would run past the page.
func DrawStatus(fb *render.FrameBuffer, l Layout, theme Theme, face font.Face, text string) {
	text = Elide(face, text, l.Page.Max.X-l.Content.Min.X)
	fb.DrawText(face, baseline(face, l.Status, l.Content.Min.X), text, theme.StatusText)
}

// Elide shortens text with a trailing ellipsis until it fits width.
func Elide(face font.Face, text string, width int) string {
	if font.MeasureString(face, text).Ceil() <= width {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		s := string(runes[:n]) + ellipsis
		if font.MeasureString(face, s).Ceil() <= width {
			return s
		}
	}
	return ellipsis
}

// baseline centers one line of face vertically in r, starting at x.
func baseline(face font.Face, r image.Rectangle, x int) image.Point {
	m := face.Metrics()
	h := m.Ascent.Ceil() + m.Descent.Ceil()
	return image.Pt(x, r.Min.Y+(r.Dy()-h)/2+m.Ascent.Ceil())
}
