package richtext

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func bounds(ps []Paragraph) [][2]int {
	out := make([][2]int, len(ps))
	for i, p := range ps {
		out[i] = [2]int{p.Start, p.End}
	}
	return out
}

func TestParagraphsCoverDocument(t *testing.T) {
	d := NewDocumentFromText("ab\ncd\n", DefaultTextDecoration())
	if diff := cmp.Diff([][2]int{{0, 3}, {3, 6}, {6, 6}}, bounds(d.Paragraphs())); diff != "" {
		t.Fatalf("paragraphs (-want +got):\n%s", diff)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p := d.ParagraphAt(6); p.Index != 2 || !d.IsLast(p) || p.Limit(true) != 7 {
		t.Fatalf("paragraph at end = %+v", p)
	}
	if p := d.ParagraphAt(2); p.Index != 0 {
		t.Fatalf("line feed belongs to paragraph %d", p.Index)
	}
}

func TestEditsKeepParagraphsContiguous(t *testing.T) {
	d := NewDocumentFromText("abc", DefaultTextDecoration())
	d.Decorate(Undefined, 0, ParagraphDecoration{Alignment: AlignCenter})
	if n := d.Insert(1, "x\ny", DefaultTextDecoration()); n != 3 {
		t.Fatalf("inserted %d runes", n)
	}
	ps := d.Paragraphs()
	if diff := cmp.Diff([][2]int{{0, 3}, {3, 6}}, bounds(ps)); diff != "" {
		t.Fatalf("paragraphs (-want +got):\n%s", diff)
	}
	if ps[1].Decoration.Alignment != AlignCenter {
		t.Fatalf("split paragraph lost its decoration")
	}
	if got := d.Delete(2, 3); got != "\n" {
		t.Fatalf("deleted %q", got)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate after join: %v", err)
	}
	if d.String() != "axybc" || len(d.Paragraphs()) != 1 {
		t.Fatalf("document = %q", d.String())
	}
	if d.Insert(0, "", DefaultTextDecoration()) != 0 || d.Insert(0, "\xff", DefaultTextDecoration()) != 0 {
		t.Fatalf("empty or invalid text inserted")
	}
}

func TestFragmentsSplitOnDecoration(t *testing.T) {
	d := NewDocumentFromText("abcd", DefaultTextDecoration())
	bold := DefaultTextDecoration()
	bold.Bold = true
	d.Decorate(NewSelection(2, 4), 0, bold)
	d.InsertImage(4, ImageDecoration{Source: "x.png", Width: 4, Height: 4})
	frags := d.Fragments(d.Paragraphs()[0])
	var texts []string
	for _, f := range frags {
		texts = append(texts, f.Text)
		if f.Cell.Valid() {
			t.Fatalf("plain paragraph fragment has a cell: %+v", f)
		}
	}
	if diff := cmp.Diff([]string{"ab", "cd", string(ObjectReplace)}, texts); diff != "" {
		t.Fatalf("fragments (-want +got):\n%s", diff)
	}
	if !frags[2].IsImage() || frags[1].IsImage() {
		t.Fatalf("image fragment not detected")
	}
}

func TestTableFragmentsCarryCells(t *testing.T) {
	d := NewDocument()
	p := d.InsertTable(0, 2, 2)
	if !p.Decoration.HasTable() || p.Start != 0 || p.End != 4 {
		t.Fatalf("table paragraph = %+v", p)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, d.CellPositions(p)); diff != "" {
		t.Fatalf("cell positions (-want +got):\n%s", diff)
	}
	var cells []Cell
	for _, f := range d.Fragments(p) {
		cells = append(cells, f.Cell)
	}
	want := []Cell{{0, 0, 0}, {1, 0, 1}, {2, 1, 0}, {3, 1, 1}}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Fatalf("cells (-want +got):\n%s", diff)
	}
	if last := d.Paragraphs()[1]; last.Decoration.HasTable() {
		t.Fatalf("paragraph after a table inherited it")
	}
}

func TestInsertTableSplitsParagraph(t *testing.T) {
	d := NewDocumentFromText("abcd", DefaultTextDecoration())
	p := d.InsertTable(2, 1, 3)
	if p.Start != 3 || p.End != 6 {
		t.Fatalf("table paragraph = [%d,%d)", p.Start, p.End)
	}
	if diff := cmp.Diff([][2]int{{0, 3}, {3, 6}, {6, 8}}, bounds(d.Paragraphs())); diff != "" {
		t.Fatalf("paragraphs (-want +got):\n%s", diff)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestWordAt(t *testing.T) {
	d := NewDocumentFromText("hello world\nnext", DefaultTextDecoration())
	cases := []struct {
		offset     int
		start, end int
	}{
		{2, 0, 5},
		{7, 6, 11},
		{11, 6, 11},
		{14, 12, 16},
	}
	for _, tc := range cases {
		s, e := d.WordAt(tc.offset)
		if s != tc.start || e != tc.end {
			t.Fatalf("WordAt(%d) = [%d,%d), want [%d,%d)", tc.offset, s, e, tc.start, tc.end)
		}
	}
}

func TestDecorateRestore(t *testing.T) {
	d := NewDocumentFromText("one\ntwo", DefaultTextDecoration())
	before := d.Clone()
	red := DefaultTextDecoration()
	red.Foreground = RGBA(0xFF, 0, 0, 0xFF)
	snap := d.Decorate(NewSelection(1, 5), 0, red)
	if d.Equal(before) {
		t.Fatalf("decoration had no effect")
	}
	if got := d.DecorationAt(2); got.Foreground != red.Foreground {
		t.Fatalf("decoration at 2 = %+v", got)
	}
	d.Restore(snap)
	if !d.Equal(before) {
		t.Fatalf("restore did not bring the document back")
	}

	// A text decoration without a selection changes nothing.
	version := d.Version()
	d.Decorate(Undefined, 2, red)
	if d.Version() != version {
		t.Fatalf("empty selection bumped the version")
	}
}

func TestDecorateImageInsertsAtCaret(t *testing.T) {
	d := NewDocumentFromText("ab", DefaultTextDecoration())
	img := ImageDecoration{Source: "a.png", Width: 10, Height: 10}
	d.Decorate(Undefined, 1, img)
	if d.String() != "a"+string(ObjectReplace)+"b" {
		t.Fatalf("document = %q", d.String())
	}
	bigger := img
	bigger.Width = 20
	d.Decorate(Undefined, 0, bigger)
	if d.Len() != 3 {
		t.Fatalf("restyle inserted another image")
	}
	frags := d.Fragments(d.Paragraphs()[0])
	if got := frags[1].Decoration.(ImageDecoration); got.Width != 20 {
		t.Fatalf("image not restyled: %+v", got)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0000")
	if err != nil || c != RGBA(0xFF, 0, 0, 0xFF) {
		t.Fatalf("ParseColor = %s, %v", c.Hex(), err)
	}
	c, err = ParseColor(" #00ff0080 ")
	if err != nil || c.NRGBA().A != 0x80 || c.NRGBA().G != 0xFF {
		t.Fatalf("ParseColor with alpha = %s, %v", c.Hex(), err)
	}
	if _, err := ParseColor("red"); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	white := RGBA(0xFF, 0xFF, 0xFF, 0x40)
	if got := white.Blend(RGBA(0, 0, 0, 0xFF), 0); got != white {
		t.Fatalf("zero blend changed the color: %s", got.Hex())
	}
}

func TestSelection(t *testing.T) {
	if s := NewSelection(5, 2); s != (Selection{Start: 2, End: 5}) {
		t.Fatalf("NewSelection = %+v", s)
	}
	for _, s := range []Selection{NewSelection(3, 3), NewSelection(-1, 4), Undefined} {
		if s.IsDefined() || s.Len() != 0 || s.Contains(3) {
			t.Fatalf("%+v should be undefined", s)
		}
	}
	s := NewSelection(2, 9).Clamp(6)
	if s != (Selection{Start: 2, End: 6}) {
		t.Fatalf("clamp = %+v", s)
	}
	if got := s.Intersect(6, 10); got.IsDefined() {
		t.Fatalf("intersect = %+v", got)
	}
	if got := s.Intersect(0, 4); got != (Selection{Start: 2, End: 4}) {
		t.Fatalf("intersect = %+v", got)
	}
}
