package cache

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"

	"richtext/pkg/richtext"
)

// FontKey describes a face. Size is in points at 72 DPI scaled by
// ScaleMilli/1000.
type FontKey struct {
	Family     richtext.FontFamily
	Size       int
	Bold       bool
	Italic     bool
	ScaleMilli int
}

func FontKeyFor(d richtext.TextDecoration, scale float64) FontKey {
	size := int(d.FontSize)
	if size <= 0 {
		size = 14
	}
	if scale <= 0 {
		scale = 1
	}
	return FontKey{Family: d.FontFamily, Size: size, Bold: d.Bold, Italic: d.Italic, ScaleMilli: int(scale*1000 + 0.5)}
}

func (k FontKey) String() string {
	return fmt.Sprintf("%s/%d/b=%t/i=%t/x%d", k.Family, k.Size, k.Bold, k.Italic, k.ScaleMilli)
}

// FontFactory builds the face for a key.
type FontFactory func(FontKey) (font.Face, error)

type fontBank struct {
	faces map[richtext.FontFamily][4]*opentype.Font
}

// GoFonts builds faces from the embedded Go font family. Serif text uses the
// Go small caps cut as there is no Go serif.
func GoFonts() (FontFactory, error) {
	bank := fontBank{faces: map[richtext.FontFamily][4]*opentype.Font{}}
	sets := map[richtext.FontFamily][4][]byte{
		richtext.FontFamilySans:      {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
		richtext.FontFamilySerif:     {gosmallcaps.TTF, gobold.TTF, gosmallcapsitalic.TTF, gobolditalic.TTF},
		richtext.FontFamilyMonospace: {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
	}
	for family, set := range sets {
		var parsed [4]*opentype.Font
		for i, ttf := range set {
			f, err := opentype.Parse(ttf)
			if err != nil {
				return nil, fmt.Errorf("parse %s font %d: %w", family, i, err)
			}
			parsed[i] = f
		}
		bank.faces[family] = parsed
	}
	return bank.face, nil
}

func (b fontBank) face(key FontKey) (font.Face, error) {
	set, ok := b.faces[key.Family]
	if !ok {
		set = b.faces[richtext.FontFamilySans]
	}
	var base *opentype.Font
	switch {
	case key.Bold && key.Italic:
		base = set[3]
	case key.Bold:
		base = set[1]
	case key.Italic:
		base = set[2]
	default:
		base = set[0]
	}
	scale := float64(key.ScaleMilli) / 1000
	if scale <= 0 {
		scale = 1
	}
	opts := &opentype.FaceOptions{Size: float64(key.Size) * scale, DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(base, opts)
	if err != nil {
		return nil, fmt.Errorf("new face %s: %w", key, err)
	}
	return face, nil
}

// FixedFont returns the 7x13 bitmap face for every key.
func FixedFont() FontFactory {
	return func(FontKey) (font.Face, error) { return basicfont.Face7x13, nil }
}
