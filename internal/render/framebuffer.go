package render

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"richtext/internal/geom"
)

// FrameBuffer is an RGBA surface. It satisfies draw.Image so fonts and
// scaled images can be drawn into it directly.
type FrameBuffer struct {
	W      int
	H      int
	Pixels []uint8 // RGBA
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &FrameBuffer{W: w, H: h, Pixels: make([]uint8, w*h*4)}
}

func (fb *FrameBuffer) ColorModel() color.Model { return color.RGBAModel }

func (fb *FrameBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.W, fb.H) }

func (fb *FrameBuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return color.RGBA{}
	}
	i := (y*fb.W + x) * 4
	return color.RGBA{fb.Pixels[i], fb.Pixels[i+1], fb.Pixels[i+2], fb.Pixels[i+3]}
}

func (fb *FrameBuffer) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= fb.W || y >= fb.H {
		return
	}
	r, g, b, a := c.RGBA()
	i := (y*fb.W + x) * 4
	fb.Pixels[i+0] = uint8(r >> 8)
	fb.Pixels[i+1] = uint8(g >> 8)
	fb.Pixels[i+2] = uint8(b >> 8)
	fb.Pixels[i+3] = uint8(a >> 8)
}

// Resize keeps the buffer when the size is unchanged.
func (fb *FrameBuffer) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == fb.W && h == fb.H {
		return
	}
	fb.W, fb.H = w, h
	fb.Pixels = make([]uint8, w*h*4)
}

func (fb *FrameBuffer) Clear(c color.RGBA) {
	for i := 0; i < len(fb.Pixels); i += 4 {
		fb.Pixels[i+0] = c.R
		fb.Pixels[i+1] = c.G
		fb.Pixels[i+2] = c.B
		fb.Pixels[i+3] = c.A
	}
}

func (fb *FrameBuffer) clip(x, y, w, h int) (int, int, int, int, bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0, false
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > fb.W {
		w = fb.W - x
	}
	if y+h > fb.H {
		h = fb.H - y
	}
	return x, y, w, h, w > 0 && h > 0
}

func (fb *FrameBuffer) FillRect(x, y, w, h int, c color.RGBA) {
	x, y, w, h, ok := fb.clip(x, y, w, h)
	if !ok {
		return
	}
	for row := 0; row < h; row++ {
		off := ((y+row)*fb.W + x) * 4
		for col := 0; col < w; col++ {
			idx := off + col*4
			fb.Pixels[idx+0] = c.R
			fb.Pixels[idx+1] = c.G
			fb.Pixels[idx+2] = c.B
			fb.Pixels[idx+3] = c.A
		}
	}
}

// BlendRect composites a non-premultiplied color over the rectangle.
func (fb *FrameBuffer) BlendRect(x, y, w, h int, c color.NRGBA) {
	if c.A == 0xFF {
		fb.FillRect(x, y, w, h, color.RGBA{c.R, c.G, c.B, 0xFF})
		return
	}
	x, y, w, h, ok := fb.clip(x, y, w, h)
	if !ok || c.A == 0 {
		return
	}
	a := uint32(c.A)
	mix := func(dst uint8, src uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
	}
	for row := 0; row < h; row++ {
		off := ((y+row)*fb.W + x) * 4
		for col := 0; col < w; col++ {
			idx := off + col*4
			fb.Pixels[idx+0] = mix(fb.Pixels[idx+0], c.R)
			fb.Pixels[idx+1] = mix(fb.Pixels[idx+1], c.G)
			fb.Pixels[idx+2] = mix(fb.Pixels[idx+2], c.B)
			fb.Pixels[idx+3] = 0xFF
		}
	}
}

func (fb *FrameBuffer) StrokeRect(x, y, w, h, line int, c color.RGBA) {
	if line <= 0 {
		line = 1
	}
	fb.FillRect(x, y, w, line, c)
	fb.FillRect(x, y+h-line, w, line, c)
	fb.FillRect(x, y, line, h, c)
	fb.FillRect(x+w-line, y, line, h, c)
}

// FillPath fills every closed rectangle of p, offset by at.
func (fb *FrameBuffer) FillPath(p geom.Path, at image.Point, c color.NRGBA) {
	for _, r := range p.Rects() {
		r = r.Add(at)
		fb.BlendRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), c)
	}
}

// StrokeCaret draws a caret path as a vertical bar of the given width.
func (fb *FrameBuffer) StrokeCaret(p geom.Path, at image.Point, width int, c color.NRGBA) {
	if p.Empty() {
		return
	}
	b := p.Bounds().Add(at)
	fb.BlendRect(b.Min.X, b.Min.Y, max(width, 1), max(b.Dy(), 1), c)
}

// DrawText draws s with its baseline starting at dot.
func (fb *FrameBuffer) DrawText(face font.Face, dot image.Point, s string, c color.NRGBA) int {
	d := font.Drawer{
		Dst:  fb,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
	return d.Dot.X.Round() - dot.X
}

// DrawImage scales img into r.
func (fb *FrameBuffer) DrawImage(img image.Image, r image.Rectangle) {
	if img == nil || r.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(fb, r, img, img.Bounds(), xdraw.Over, nil)
}
