package richtext

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Decoration is one of TextDecoration, ImageDecoration or ParagraphDecoration.
type Decoration interface {
	decoration()
}

type FontFamily uint8

const (
	FontFamilySans FontFamily = iota
	FontFamilySerif
	FontFamilyMonospace
)

func (f FontFamily) String() string {
	switch f {
	case FontFamilySerif:
		return "serif"
	case FontFamilyMonospace:
		return "monospace"
	default:
		return "sans"
	}
}

// Color is a packed 0xRRGGBBAA value. Zero means "unset".
type Color uint32

var ErrInvalidColor = errors.New("richtext: invalid color")

func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

func (c Color) IsZero() bool { return c == 0 }

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 24), G: uint8(c >> 16), B: uint8(c >> 8), A: uint8(c)}
}

func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(0xFF)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return RGBA(r, g, b, alpha), nil
}

// Blend mixes c towards o by t in Lab space, keeping c's alpha.
func (c Color) Blend(o Color, t float64) Color {
	a, _ := colorful.MakeColor(opaque(c))
	b, _ := colorful.MakeColor(opaque(o))
	r, g, bl := a.BlendLab(b, t).Clamped().RGB255()
	return RGBA(r, g, bl, uint8(c))
}

func opaque(c Color) color.NRGBA {
	n := c.NRGBA()
	n.A = 0xFF
	return n
}

type TextDecoration struct {
	FontFamily    FontFamily
	FontSize      uint16
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Foreground    Color
	Background    Color
}

func (TextDecoration) decoration() {}

func DefaultTextDecoration() TextDecoration {
	return TextDecoration{FontFamily: FontFamilySans, FontSize: 14, Foreground: 0x202020FF}
}

func (d TextDecoration) normalize() TextDecoration {
	if d.FontSize == 0 {
		d.FontSize = 14
	}
	if d.Foreground == 0 {
		d.Foreground = 0x202020FF
	}
	if d.FontFamily > FontFamilyMonospace {
		d.FontFamily = FontFamilySans
	}
	return d
}

type ImageDecoration struct {
	Source string
	Width  int
	Height int
	Link   string
}

func (ImageDecoration) decoration() {}

type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

type GraphicType uint8

const (
	GraphicNone GraphicType = iota
	GraphicNumberedList
	GraphicBulletedList
)

type ParagraphDecoration struct {
	Alignment        Alignment
	Spacing          int
	TopInset         int
	RightInset       int
	BottomInset      int
	LeftInset        int
	IndentationLevel int
	GraphicType      GraphicType
	Table            *TableDecoration
}

func (ParagraphDecoration) decoration() {}

func (d ParagraphDecoration) HasTable() bool { return d.Table != nil }

// WithAlignment returns a copy of d aligned to a.
func (d ParagraphDecoration) WithAlignment(a Alignment) ParagraphDecoration {
	d.Alignment = a
	return d
}

func (d ParagraphDecoration) Equal(o ParagraphDecoration) bool {
	if d.Table == nil || o.Table == nil {
		tableless := d
		other := o
		tableless.Table, other.Table = nil, nil
		return d.Table == o.Table && tableless == other
	}
	a, b := d, o
	a.Table, b.Table = nil, nil
	return a == b && d.Table.Equal(*o.Table)
}

// TableDecoration lays a paragraph out as Rows x Columns cells. Cells are
// separated in the text by TableSeparator.
type TableDecoration struct {
	Rows          int
	Columns       int
	CellAlignment [][]Alignment
	WidthPercent  float64
}

func NewTableDecoration(rows, columns int) *TableDecoration {
	if rows < 1 {
		rows = 1
	}
	if columns < 1 {
		columns = 1
	}
	ca := make([][]Alignment, rows)
	for i := range ca {
		ca[i] = make([]Alignment, columns)
	}
	return &TableDecoration{Rows: rows, Columns: columns, CellAlignment: ca, WidthPercent: 100}
}

func (t TableDecoration) Cells() int { return t.Rows * t.Columns }

func (t TableDecoration) AlignmentAt(row, column int) Alignment {
	if row < 0 || row >= len(t.CellAlignment) || column < 0 || column >= len(t.CellAlignment[row]) {
		return AlignLeft
	}
	return t.CellAlignment[row][column]
}

func (t TableDecoration) Equal(o TableDecoration) bool {
	if t.Rows != o.Rows || t.Columns != o.Columns || t.WidthPercent != o.WidthPercent {
		return false
	}
	if len(t.CellAlignment) != len(o.CellAlignment) {
		return false
	}
	for i := range t.CellAlignment {
		if len(t.CellAlignment[i]) != len(o.CellAlignment[i]) {
			return false
		}
		for j := range t.CellAlignment[i] {
			if t.CellAlignment[i][j] != o.CellAlignment[i][j] {
				return false
			}
		}
	}
	return true
}

func decorationsEqual(a, b Decoration) bool {
	switch x := a.(type) {
	case TextDecoration:
		y, ok := b.(TextDecoration)
		return ok && x.normalize() == y.normalize()
	case ImageDecoration:
		y, ok := b.(ImageDecoration)
		return ok && x == y
	case ParagraphDecoration:
		y, ok := b.(ParagraphDecoration)
		return ok && x.Equal(y)
	default:
		return a == nil && b == nil
	}
}
