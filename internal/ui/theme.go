package ui

import (
	"image/color"

	"richtext/internal/config"
	"richtext/pkg/richtext"
)

type Theme struct {
	AppBackground   color.RGBA
	TopBar          color.RGBA
	Toolbar         color.RGBA
	Canvas          color.RGBA
	Page            color.RGBA
	Border          color.RGBA
	StatusBar       color.RGBA
	StatusText      color.NRGBA
	TitleText       color.NRGBA
	Accent          color.RGBA
	Shadow          color.RGBA
	Text            color.NRGBA
	Selection       color.NRGBA
	Caret           color.NRGBA
	Grid            color.RGBA
	Marker          color.NRGBA
	TitleHeightDp   int
	ToolbarHeightDp int
	StatusHeightDp  int
	PageMarginDp    int
}

func DefaultTheme() Theme {
	return Theme{
		AppBackground:   color.RGBA{0xF3, 0xF5, 0xF8, 0xFF},
		TopBar:          color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Toolbar:         color.RGBA{0xF7, 0xF9, 0xFC, 0xFF},
		Canvas:          color.RGBA{0xE2, 0xE7, 0xEF, 0xFF},
		Page:            color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Border:          color.RGBA{0xB2, 0xBF, 0xD0, 0xFF},
		StatusBar:       color.RGBA{0xEA, 0xEF, 0xF6, 0xFF},
		StatusText:      color.NRGBA{0x37, 0x41, 0x51, 0xFF},
		TitleText:       color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Accent:          color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Shadow:          color.RGBA{0xC8, 0xCF, 0xDB, 0xFF},
		Text:            color.NRGBA{0x20, 0x20, 0x20, 0xFF},
		Selection:       color.NRGBA{0x3D, 0x7E, 0xFF, 0x66},
		Caret:           color.NRGBA{0x1B, 0x1F, 0x24, 0xFF},
		Grid:            color.RGBA{0xB0, 0xB8, 0xC4, 0xFF},
		Marker:          color.NRGBA{0x44, 0x50, 0x5E, 0xFF},
		TitleHeightDp:   30,
		ToolbarHeightDp: 42,
		StatusHeightDp:  28,
		PageMarginDp:    24,
	}
}

// ThemeFrom overrides the default colors with the configured ones.
func ThemeFrom(c config.Theme) Theme {
	t := DefaultTheme()
	rgba := func(dst *color.RGBA, v config.Color) {
		if n := v.C().NRGBA(); !v.C().IsZero() {
			*dst = color.RGBA{n.R, n.G, n.B, 0xFF}
		}
	}
	nrgba := func(dst *color.NRGBA, v config.Color) {
		if !v.C().IsZero() {
			*dst = v.C().NRGBA()
		}
	}
	rgba(&t.Canvas, c.Background)
	rgba(&t.Page, c.Page)
	rgba(&t.Border, c.PageBorder)
	rgba(&t.StatusBar, c.StatusBar)
	rgba(&t.Grid, c.Grid)
	nrgba(&t.StatusText, c.StatusText)
	nrgba(&t.Text, c.Text)
	nrgba(&t.Selection, c.Selection)
	nrgba(&t.Caret, c.Caret)
	nrgba(&t.Marker, c.Marker)
	// The shadow follows the canvas, a step darker.
	shadow := richtext.RGBA(t.Canvas.R, t.Canvas.G, t.Canvas.B, 0xFF).Blend(richtext.RGBA(0, 0, 0, 0xFF), 0.08).NRGBA()
	t.Shadow = color.RGBA{shadow.R, shadow.G, shadow.B, 0xFF}
	return t
}
