package app

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
)

type toolButton struct {
	id    string
	label string
	r     image.Rectangle
}

var toolbarItems = []struct{ id, label string }{
	{"undo", "Undo"},
	{"redo", "Redo"},
	{"cut", "Cut"},
	{"copy", "Copy"},
	{"paste", "Paste"},
	{"bold", "B"},
	{"italic", "I"},
	{"underline", "U"},
	{"strike", "S"},
	{"highlight", "Mark"},
	{"align-left", "Left"},
	{"align-center", "Center"},
	{"align-right", "Right"},
	{"numbered", "1."},
	{"bulleted", "*"},
	{"table", "Table"},
	{"image", "Image"},
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func (a *App) layoutToolbar() {
	widths := make([]int, len(toolbarItems))
	for i, it := range toolbarItems {
		widths[i] = measure(a.uiFace, it.label) + 16
	}
	a.toolbar = a.toolbar[:0]
	for i, r := range a.layout.ToolbarSlots(widths) {
		it := toolbarItems[i]
		a.toolbar = append(a.toolbar, toolButton{id: it.id, label: it.label, r: r})
	}
}

// enabled reflects the area's action registry for the editing actions and
// the editable flag for the rest.
func (a *App) enabled(id string) bool {
	switch id {
	case "undo", "redo", "cut", "copy", "paste":
		return a.area.ActionEnabled(id)
	}
	return a.state.Editable()
}

func (a *App) drawToolbar() {
	fb := a.frameBuffer
	m := a.uiFace.Metrics()
	for _, b := range a.toolbar {
		fb.FillRect(b.r.Min.X, b.r.Min.Y, b.r.Dx(), b.r.Dy(), a.theme.Page)
		fb.StrokeRect(b.r.Min.X, b.r.Min.Y, b.r.Dx(), b.r.Dy(), 1, a.theme.Border)
		c := a.theme.Text
		if !a.enabled(b.id) {
			c = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0x60}
		}
		tw := measure(a.uiFace, b.label)
		base := b.r.Min.Y + (b.r.Dy()-m.Height.Ceil())/2 + m.Ascent.Ceil()
		fb.DrawText(a.uiFace, image.Pt(b.r.Min.X+(b.r.Dx()-tw)/2, base), b.label, c)
	}
}

func (a *App) toolAt(x, y int) (string, bool) {
	pt := image.Pt(x, y)
	for _, b := range a.toolbar {
		if pt.In(b.r) {
			if !a.enabled(b.id) {
				return "", true
			}
			return b.id, true
		}
	}
	return "", false
}
