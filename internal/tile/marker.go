package tile

import (
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/font"

	"richtext/internal/cache"
	"richtext/pkg/richtext"
)

// Marker is what the graphic factory puts in front of a list paragraph.
type Marker interface {
	marker()
}

// Label is a text marker. Every '#' is replaced with the paragraph's number
// in its list.
type Label struct {
	Text string
}

// Glyph is a fixed size marker such as a bullet. Text, when set, is drawn
// centered in the box.
type Glyph struct {
	Width  int
	Height int
	Text   string
}

func (Label) marker() {}
func (Glyph) marker() {}

// DefaultGraphic numbers "#." and bullets "•".
func DefaultGraphic(level int, kind richtext.GraphicType) Marker {
	switch kind {
	case richtext.GraphicNumberedList:
		return Label{Text: "#."}
	case richtext.GraphicBulletedList:
		return Glyph{Width: 8, Height: 8, Text: "•"}
	}
	return nil
}

// GraphicBox is the area left of a paragraph holding its indentation and
// marker. Rect and Text are zero without a marker. FontKey names Face in
// the resource cache.
type GraphicBox struct {
	Width   int
	Rect    image.Rectangle
	Text    string
	Face    font.Face
	FontKey cache.FontKey
	Shape   Marker
}

// Ordinal numbers the paragraph among the paragraphs at its indentation
// level. A bulleted paragraph at that level restarts the count; every other
// paragraph at that level advances it.
func Ordinal(paragraphs []richtext.Paragraph, target richtext.Paragraph) int {
	level := target.Decoration.IndentationLevel
	n := 0
	for _, p := range paragraphs {
		if p.Decoration.IndentationLevel == level {
			if p.Decoration.GraphicType == richtext.GraphicBulletedList {
				n = 0
			} else {
				n++
			}
		}
		if p.Index == target.Index {
			return n
		}
	}
	return n
}

// graphicBox measures the indentation and marker for a single layer
// paragraph and shrinks the layer to the space left.
func (t *Tile) graphicBox(p richtext.Paragraph, layer *Layer) GraphicBox {
	set := t.host.Settings()
	avail := t.host.TextFlowPrefWidth()
	deco := p.Decoration
	m := t.host.Graphic(deco.IndentationLevel, deco.GraphicType)
	indent := deco.IndentationLevel
	if m != nil {
		indent--
	}
	box := GraphicBox{Width: max(indent*set.IndentPadding, 0), Shape: m}
	if m == nil {
		layer.setPrefWidth(avail - box.Width)
		return box
	}
	var w, h int
	switch mk := m.(type) {
	case Label:
		text := mk.Text
		if strings.Contains(text, "#") {
			text = strings.ReplaceAll(text, "#", strconv.Itoa(Ordinal(t.host.State().Paragraphs(), p)))
		}
		key, face := t.host.Resources().Face(layer.labelDecoration())
		met := face.Metrics()
		w = max(font.MeasureString(face, text).Ceil()+1, set.IndentPadding)
		h = met.Ascent.Ceil() + met.Descent.Ceil()
		box.Text, box.Face, box.FontKey = text, face, key
	case Glyph:
		w = max(mk.Width, set.IndentPadding)
		h = mk.Height
		if mk.Text != "" {
			key, face := t.host.Resources().Face(layer.labelDecoration())
			box.Text, box.Face, box.FontKey = mk.Text, face, key
		}
	}
	box.Width += w
	layer.setPrefWidth(avail - box.Width)
	y := 1 + deco.TopInset + (layer.CaretY()-h)/2
	box.Rect = image.Rect(box.Width-w, y, box.Width, y+h)
	return box
}
