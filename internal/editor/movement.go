package editor

import (
	"github.com/rivo/uniseg"

	"richtext/pkg/richtext"
)

const graphemeWindow = 64

// graphemeStep moves pos by n grapheme clusters, clamped to the document.
// A cluster touching the edge of the window read may continue past it, so it
// is only taken when the window ends at the document edge; otherwise the
// window is read again from the new position, doubled if nothing fit.
func graphemeStep(doc *richtext.Document, pos, n int) int {
	window := graphemeWindow
	for n > 0 && pos < doc.Len() {
		end := min(pos+window, doc.Len())
		g := uniseg.NewGraphemes(doc.Text(pos, end))
		moved := false
		for n > 0 && g.Next() {
			size := len(g.Runes())
			if pos+size == end && end < doc.Len() {
				break
			}
			pos += size
			n--
			moved = true
		}
		if !moved {
			window *= 2
		}
	}
	window = graphemeWindow
	for n < 0 && pos > 0 {
		from := max(0, pos-window)
		var sizes []int
		g := uniseg.NewGraphemes(doc.Text(from, pos))
		for g.Next() {
			sizes = append(sizes, len(g.Runes()))
		}
		first := 0
		if from > 0 {
			first = 1
		}
		if len(sizes) <= first {
			window *= 2
			continue
		}
		for i := len(sizes) - 1; i >= first && n < 0; i-- {
			pos -= sizes[i]
			n++
		}
	}
	return pos
}

// GraphemeOffset is the offset n grapheme clusters away from pos.
func (s *State) GraphemeOffset(pos, n int) int {
	return graphemeStep(s.doc, max(0, min(pos, s.doc.Len())), n)
}
