package richtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	LineFeed       = '\n'
	ObjectReplace  = '\uFFFC'
	TableSeparator = '\u200B'
)

var (
	ErrOutOfRange      = errors.New("richtext: offset out of range")
	ErrBrokenParagraph = errors.New("richtext: paragraph ranges are not contiguous")
)

type Paragraph struct {
	Index      int
	Start      int
	End        int
	Decoration ParagraphDecoration
}

// Limit is the first offset past the caret slots of p. The last paragraph
// has no line feed, so it gets one extra slot at its end.
func (p Paragraph) Limit(last bool) int {
	if last {
		return p.End + 1
	}
	return p.End
}

type Cell struct {
	Index  int
	Row    int
	Column int
}

var NoCell = Cell{Index: -1, Row: -1, Column: -1}

func (c Cell) Valid() bool { return c.Index >= 0 }

// Fragment is a run of equally decorated content inside one paragraph.
type Fragment struct {
	Start      int
	End        int
	Text       string
	Decoration Decoration
	Cell       Cell
}

func (f Fragment) Equal(o Fragment) bool {
	return f.Start == o.Start && f.End == o.End && f.Text == o.Text && f.Cell == o.Cell &&
		decorationsEqual(f.Decoration, o.Decoration)
}

func (f Fragment) IsImage() bool {
	_, ok := f.Decoration.(ImageDecoration)
	return ok
}

// Document stores text as runes with one decoration per rune and one
// paragraph decoration per line feed terminated paragraph. Paragraph offsets
// are derived on demand, so they can never drift after an edit.
type Document struct {
	text    []rune
	decos   []Decoration
	paras   []ParagraphDecoration
	version uint64
}

// Snapshot is the state needed to undo a mutation.
type Snapshot struct {
	text  []rune
	decos []Decoration
	paras []ParagraphDecoration
}

func NewDocument() *Document {
	return &Document{paras: []ParagraphDecoration{{}}}
}

// NewDocumentFromText builds a document with every rune decorated by deco.
func NewDocumentFromText(text string, deco TextDecoration) *Document {
	d := NewDocument()
	d.Insert(0, text, deco)
	d.version = 0
	return d
}

func (d *Document) Len() int { return len(d.text) }

func (d *Document) IsLast(p Paragraph) bool { return p.Index == len(d.paras)-1 }

func (d *Document) Version() uint64 { return d.version }

func (d *Document) Text(start, end int) string {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, 0, len(d.text))
	if start >= end {
		return ""
	}
	return string(d.text[start:end])
}

func (d *Document) String() string { return string(d.text) }

// Paragraphs returns the ordered paragraph list. Ranges are contiguous and
// cover [0, Len()); the line feed belongs to the paragraph it terminates.
func (d *Document) Paragraphs() []Paragraph {
	out := make([]Paragraph, 0, len(d.paras))
	start := 0
	for i, r := range d.text {
		if r != LineFeed {
			continue
		}
		out = append(out, Paragraph{Index: len(out), Start: start, End: i + 1, Decoration: d.paraDecoration(len(out))})
		start = i + 1
	}
	out = append(out, Paragraph{Index: len(out), Start: start, End: len(d.text), Decoration: d.paraDecoration(len(out))})
	return out
}

// ParagraphAt returns the paragraph holding offset. The document end maps to
// the last paragraph.
func (d *Document) ParagraphAt(offset int) Paragraph {
	offset = clamp(offset, 0, len(d.text))
	paras := d.Paragraphs()
	for _, p := range paras {
		if offset < p.End {
			return p
		}
	}
	return paras[len(paras)-1]
}

func (d *Document) paraDecoration(i int) ParagraphDecoration {
	if i < 0 || i >= len(d.paras) {
		return ParagraphDecoration{}
	}
	return d.paras[i]
}

// DecorationAt returns the text decoration that text typed at offset
// inherits: the one of the rune before it, or of the rune at offset.
func (d *Document) DecorationAt(offset int) TextDecoration {
	for _, i := range []int{offset - 1, offset} {
		if i < 0 || i >= len(d.decos) {
			continue
		}
		if td, ok := d.decos[i].(TextDecoration); ok {
			return td
		}
	}
	return DefaultTextDecoration()
}

// Fragments splits p into runs of equal decoration. Images are always their
// own fragment. Table paragraphs carry the explicit cell identity and split
// after every TableSeparator.
func (d *Document) Fragments(p Paragraph) []Fragment {
	var out []Fragment
	cell := NoCell
	cols := 0
	if p.Decoration.Table != nil {
		cols = max(p.Decoration.Table.Columns, 1)
		cell = Cell{Index: 0, Row: 0, Column: 0}
	}
	start := clamp(p.Start, 0, len(d.text))
	end := clamp(p.End, 0, len(d.text))
	var b strings.Builder
	fragStart := start
	var fragDeco Decoration
	flush := func(at int) {
		if at > fragStart {
			out = append(out, Fragment{Start: fragStart, End: at, Text: b.String(), Decoration: fragDeco, Cell: cell})
		}
		b.Reset()
		fragStart = at
	}
	for i := start; i < end; i++ {
		deco := d.decos[i]
		_, isImage := deco.(ImageDecoration)
		if i > fragStart && (isImage || !decorationsEqual(deco, fragDeco)) {
			flush(i)
		}
		if i == fragStart {
			fragDeco = deco
		}
		b.WriteRune(d.text[i])
		if isImage || (cols > 0 && d.text[i] == TableSeparator) {
			flush(i + 1)
			if cols > 0 && d.text[i] == TableSeparator {
				next := cell.Index + 1
				cell = Cell{Index: next, Row: next / cols, Column: next % cols}
			}
		}
	}
	flush(end)
	return out
}

// CellPositions returns the cell boundaries of a table paragraph: the start
// of every cell followed by the paragraph end.
func (d *Document) CellPositions(p Paragraph) []int {
	positions := []int{p.Start}
	if p.Decoration.Table == nil {
		return append(positions, p.End)
	}
	for i := p.Start; i < p.End && i < len(d.text); i++ {
		if d.text[i] == TableSeparator {
			positions = append(positions, i+1)
		}
	}
	if positions[len(positions)-1] != p.End {
		positions = append(positions, p.End)
	}
	return positions
}

// Insert adds text at offset decorated with deco and returns the number of
// runes inserted. Line feeds split the paragraph; the new paragraphs inherit
// its decoration without any table.
func (d *Document) Insert(offset int, text string, deco TextDecoration) int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" || !utf8.ValidString(text) {
		return 0
	}
	offset = clamp(offset, 0, len(d.text))
	runes := []rune(text)
	decos := make([]Decoration, len(runes))
	deco = deco.normalize()
	for i := range decos {
		decos[i] = deco
	}
	d.insertRunes(offset, runes, decos)
	return len(runes)
}

// InsertImage places a single object replacement rune decorated by img.
func (d *Document) InsertImage(offset int, img ImageDecoration) {
	offset = clamp(offset, 0, len(d.text))
	d.insertRunes(offset, []rune{ObjectReplace}, []Decoration{img})
}

// InsertTable inserts a new table paragraph at offset, splitting the current
// paragraph if needed.
func (d *Document) InsertTable(offset, rows, columns int) Paragraph {
	offset = clamp(offset, 0, len(d.text))
	if p := d.ParagraphAt(offset); offset != p.Start {
		d.Insert(offset, "\n", d.DecorationAt(offset))
		offset++
	}
	table := NewTableDecoration(rows, columns)
	cells := make([]rune, 0, table.Cells())
	for i := 1; i < table.Cells(); i++ {
		cells = append(cells, TableSeparator)
	}
	cells = append(cells, LineFeed)
	decos := make([]Decoration, len(cells))
	td := d.DecorationAt(offset)
	for i := range decos {
		decos[i] = td
	}
	d.insertRunes(offset, cells, decos)
	p := d.ParagraphAt(offset)
	pd := d.paras[p.Index]
	pd.Table = table
	pd.GraphicType = GraphicNone
	d.paras[p.Index] = pd
	return d.ParagraphAt(offset)
}

func (d *Document) insertRunes(offset int, runes []rune, decos []Decoration) {
	para := d.ParagraphAt(offset).Index
	base := d.paraDecoration(para)
	base.Table = nil
	added := 0
	for _, r := range runes {
		if r == LineFeed {
			added++
		}
	}
	d.text = append(d.text[:offset], append(append([]rune(nil), runes...), d.text[offset:]...)...)
	d.decos = append(d.decos[:offset], append(append([]Decoration(nil), decos...), d.decos[offset:]...)...)
	if added > 0 {
		extra := make([]ParagraphDecoration, added)
		for i := range extra {
			extra[i] = base
		}
		d.paras = append(d.paras[:para+1], append(extra, d.paras[para+1:]...)...)
	}
	d.version++
}

// Delete removes [start, end). Paragraphs joined by a removed line feed keep
// the decoration of the first one.
func (d *Document) Delete(start, end int) string {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, 0, len(d.text))
	if start >= end {
		return ""
	}
	para := d.ParagraphAt(start).Index
	removed := string(d.text[start:end])
	feeds := strings.Count(removed, "\n")
	d.text = append(d.text[:start], d.text[end:]...)
	d.decos = append(d.decos[:start], d.decos[end:]...)
	if feeds > 0 {
		d.paras = append(d.paras[:para+1], d.paras[min(para+1+feeds, len(d.paras)):]...)
	}
	d.version++
	return removed
}

// Decorate applies deco for the given selection and caret, returning the
// prior state. Text decorations apply to the selection, paragraph
// decorations to every paragraph it touches (or the caret's paragraph), and
// image decorations restyle the selected images, or those of the caret's
// paragraph; with no image there the image is inserted at the caret.
func (d *Document) Decorate(sel Selection, caret int, deco Decoration) Snapshot {
	snap := d.Snapshot()
	sel = sel.Clamp(len(d.text))
	switch dec := deco.(type) {
	case TextDecoration:
		if !sel.IsDefined() {
			return snap
		}
		dec = dec.normalize()
		for i := sel.Start; i < sel.End; i++ {
			if _, ok := d.decos[i].(TextDecoration); ok {
				d.decos[i] = dec
			}
		}
	case ParagraphDecoration:
		for _, p := range d.touchedParagraphs(sel, caret) {
			d.paras[p.Index] = dec
		}
	case ImageDecoration:
		start, end := sel.Start, sel.End
		if !sel.IsDefined() {
			p := d.ParagraphAt(caret)
			start, end = p.Start, p.End
		}
		found := false
		for i := start; i < end; i++ {
			if _, ok := d.decos[i].(ImageDecoration); ok {
				d.decos[i] = dec
				found = true
			}
		}
		if !found {
			at := caret
			if sel.IsDefined() {
				at = sel.Start
			}
			d.InsertImage(clamp(at, 0, len(d.text)), dec)
			return snap
		}
	default:
		return snap
	}
	d.version++
	return snap
}

func (d *Document) touchedParagraphs(sel Selection, caret int) []Paragraph {
	var out []Paragraph
	for _, p := range d.Paragraphs() {
		if sel.IsDefined() {
			if p.Start < sel.End && sel.Start < p.End {
				out = append(out, p)
			}
			continue
		}
		if p.Start <= caret && (caret < p.End || p.Index == len(d.paras)-1) {
			out = append(out, p)
			break
		}
	}
	return out
}

func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		text:  append([]rune(nil), d.text...),
		decos: append([]Decoration(nil), d.decos...),
		paras: append([]ParagraphDecoration(nil), d.paras...),
	}
}

func (d *Document) Restore(s Snapshot) {
	if s.paras == nil {
		return
	}
	d.text = append([]rune(nil), s.text...)
	d.decos = append([]Decoration(nil), s.decos...)
	d.paras = append([]ParagraphDecoration(nil), s.paras...)
	d.version++
}

func (d *Document) Clone() *Document {
	s := d.Snapshot()
	return &Document{text: s.text, decos: s.decos, paras: s.paras, version: d.version}
}

// Equal compares content and decorations, ignoring the edit version.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.text) != len(o.text) || len(d.paras) != len(o.paras) {
		return false
	}
	for i := range d.text {
		if d.text[i] != o.text[i] || !decorationsEqual(d.decos[i], o.decos[i]) {
			return false
		}
	}
	for i := range d.paras {
		if !d.paras[i].Equal(o.paras[i]) {
			return false
		}
	}
	return true
}

// WordAt returns the word boundaries around offset inside its paragraph.
func (d *Document) WordAt(offset int) (int, int) {
	p := d.ParagraphAt(offset)
	end := p.End
	if end > p.Start && end <= len(d.text) && d.text[end-1] == LineFeed {
		end--
	}
	offset = clamp(offset, p.Start, end)
	rest := string(d.text[p.Start:end])
	pos := p.Start
	state := -1
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(word)
		if offset < pos+n || (len(rest) == 0 && offset == pos+n) {
			return pos, pos + n
		}
		pos += n
	}
	return offset, offset
}

// Validate checks the paragraph offset invariant.
func (d *Document) Validate() error {
	if len(d.decos) != len(d.text) {
		return fmt.Errorf("%w: %d runes, %d decorations", ErrBrokenParagraph, len(d.text), len(d.decos))
	}
	paras := d.Paragraphs()
	if len(paras) != len(d.paras) {
		return fmt.Errorf("%w: %d paragraphs, %d decorations", ErrBrokenParagraph, len(paras), len(d.paras))
	}
	if paras[0].Start != 0 {
		return fmt.Errorf("%w: first paragraph starts at %d", ErrBrokenParagraph, paras[0].Start)
	}
	for i := 1; i < len(paras); i++ {
		if paras[i-1].End != paras[i].Start {
			return fmt.Errorf("%w: paragraph %d ends at %d, next starts at %d", ErrBrokenParagraph, i-1, paras[i-1].End, paras[i].Start)
		}
	}
	if last := paras[len(paras)-1]; last.End != len(d.text) {
		return fmt.Errorf("%w: last paragraph ends at %d of %d", ErrBrokenParagraph, last.End, len(d.text))
	}
	return nil
}
