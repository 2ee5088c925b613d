package area

import (
	"image"

	"richtext/internal/render"
	"richtext/internal/tile"
	"richtext/internal/ui"
	"richtext/pkg/richtext"
)

// Paint draws every visible tile with the area's top left corner at origin.
func (a *Area) Paint(fb *render.FrameBuffer, origin image.Point, theme ui.Theme) {
	bounds := fb.Bounds()
	for i, t := range a.tiles {
		at := origin.Add(image.Pt(0, a.tops[i]))
		if !(image.Rectangle{Min: at, Max: at.Add(t.Size())}).Overlaps(bounds) {
			continue
		}
		paintTile(fb, t, at, theme)
	}
}

func paintTile(fb *render.FrameBuffer, t *tile.Tile, at image.Point, theme ui.Theme) {
	box := t.GraphicBox()
	switch m := box.Shape.(type) {
	case tile.Label:
		r := box.Rect.Add(at)
		fb.DrawText(box.Face, image.Pt(r.Min.X, r.Min.Y+box.Face.Metrics().Ascent.Ceil()), box.Text, theme.Marker)
	case tile.Glyph:
		r := box.Rect.Add(at)
		if box.Face != nil {
			fb.DrawText(box.Face, image.Pt(r.Min.X, r.Max.Y), box.Text, theme.Marker)
		} else {
			fb.BlendRect(r.Min.X, r.Min.Y, m.Width, m.Height, theme.Marker)
		}
	}
	for _, cell := range t.Grid() {
		c := cell.Add(at)
		fb.StrokeRect(c.Min.X, c.Min.Y, c.Dx()+1, c.Dy()+1, 1, theme.Grid)
	}
	for _, l := range t.Layers() {
		paintLayer(fb, l, at.Add(l.Origin()), theme)
	}
}

func paintLayer(fb *render.FrameBuffer, l *tile.Layer, at image.Point, theme ui.Theme) {
	for c, p := range l.Backgrounds() {
		fb.FillPath(p, at, c.NRGBA())
	}
	fb.FillPath(l.SelectionShape(), at, theme.Selection)

	flowAt := at.Add(l.FlowOrigin())
	runs := l.Flow().Runs()
	for _, pl := range l.Flow().Placements() {
		run := runs[pl.Run]
		if run.IsImage() {
			fb.DrawImage(l.Image(pl.Run), pl.Rect.Add(flowAt))
			continue
		}
		fg := theme.Text
		td, _ := run.Decoration.(richtext.TextDecoration)
		if !td.Foreground.IsZero() {
			fg = td.Foreground.NRGBA()
		}
		base := pl.Baseline.Add(flowAt)
		fb.DrawText(run.Face, base, pl.Text, fg)
		w := pl.Rect.Dx()
		if td.Underline {
			fb.BlendRect(base.X, base.Y+1, w, 1, fg)
		}
		if td.Strikethrough {
			mid := run.Face.Metrics().XHeight.Ceil() / 2
			if mid == 0 {
				mid = run.Face.Metrics().Ascent.Ceil() / 3
			}
			fb.BlendRect(base.X, base.Y-mid, w, 1, fg)
		}
	}

	if l.CaretOpacity() > 0 {
		c := theme.Caret
		c.A = uint8(float64(c.A) * l.CaretOpacity())
		fb.StrokeCaret(l.CaretShape(), at, 1, c)
	}
}
