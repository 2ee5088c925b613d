package area

import (
	"slices"

	"go.uber.org/zap"

	"richtext/internal/tile"
	"richtext/pkg/richtext"
)

// signature is what a tile was built from. Equal signatures mean the tile
// can be kept.
type signature struct {
	paragraph richtext.Paragraph
	last      bool
	width     int
	ordinal   int
	fragments []richtext.Fragment
	positions []int
}

func (s signature) equal(o signature) bool {
	return s.paragraph.Start == o.paragraph.Start &&
		s.paragraph.End == o.paragraph.End &&
		s.paragraph.Decoration.Equal(o.paragraph.Decoration) &&
		s.last == o.last &&
		s.width == o.width &&
		s.ordinal == o.ordinal &&
		slices.Equal(s.positions, o.positions) &&
		slices.EqualFunc(s.fragments, o.fragments, richtext.Fragment.Equal)
}

// Refresh brings the tiles in line with the document. Only paragraphs whose
// content, decoration or position changed are rebuilt.
func (a *Area) Refresh() {
	doc := a.state.Document()
	paras := doc.Paragraphs()
	rebuilt := 0
	for len(a.tiles) > len(paras) {
		n := len(a.tiles) - 1
		a.tiles[n].Reset()
		a.tiles, a.sigs = a.tiles[:n], a.sigs[:n]
	}
	for i, p := range paras {
		sig := signature{
			paragraph: p,
			last:      doc.IsLast(p),
			width:     a.width,
			ordinal:   tile.Ordinal(paras, p),
			fragments: doc.Fragments(p),
			positions: doc.CellPositions(p),
		}
		if i < len(a.tiles) && a.sigs[i].equal(sig) {
			continue
		}
		if i >= len(a.tiles) {
			a.tiles = append(a.tiles, tile.New(a))
			a.sigs = append(a.sigs, signature{})
		}
		a.tiles[i].SetParagraph(&p, sig.fragments, sig.positions, backgroundRanges(sig.fragments))
		a.sigs[i] = sig
		rebuilt++
	}
	a.tops = a.tops[:0]
	y := 0
	for _, t := range a.tiles {
		a.tops = append(a.tops, y)
		y += t.Size().Y
	}
	if rebuilt > 0 {
		a.log.Debug("tiles rebuilt", zap.Int("rebuilt", rebuilt), zap.Int("paragraphs", len(paras)))
	}
	a.UpdateLayout()
}

// backgroundRanges turns text background decorations into highlight
// ranges.
func backgroundRanges(fragments []richtext.Fragment) []tile.IndexRangeColor {
	var out []tile.IndexRangeColor
	for _, f := range fragments {
		td, ok := f.Decoration.(richtext.TextDecoration)
		if !ok || td.Background.IsZero() {
			continue
		}
		if n := len(out); n > 0 && out[n-1].End == f.Start && out[n-1].Color == td.Background {
			out[n-1].End = f.End
			continue
		}
		out = append(out, tile.IndexRangeColor{Start: f.Start, End: f.End, Color: td.Background})
	}
	return out
}
