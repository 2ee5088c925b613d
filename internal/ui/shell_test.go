package ui

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/basicfont"

	"richtext/internal/config"
	"richtext/internal/render"
)

func TestComputeLayoutKeepsPageInsideWindow(t *testing.T) {
	l := ComputeLayout(1200, 800, DefaultTheme(), 1)
	want := Layout{
		Scale:   1,
		Title:   image.Rect(0, 0, 1200, 30),
		Toolbar: image.Rect(0, 30, 1200, 72),
		Canvas:  image.Rect(0, 72, 1200, 772),
		Page:    image.Rect(150, 96, 1050, 748),
		Content: image.Rect(168, 122, 1032, 734),
		Status:  image.Rect(0, 772, 1200, 800),
		Scroll:  image.Rect(1039, 122, 1043, 734),
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Fatalf("layout (-want +got):\n%s", diff)
	}
	if !l.Content.In(l.Page) || !l.Scroll.In(l.Page) {
		t.Fatalf("content or scroll track outside page: %+v", l)
	}
}

func TestComputeLayoutScales(t *testing.T) {
	small := ComputeLayout(2000, 1600, DefaultTheme(), 1)
	big := ComputeLayout(2000, 1600, DefaultTheme(), 2)
	if big.Toolbar.Dy() != 2*small.Toolbar.Dy() {
		t.Fatalf("toolbar height %d at 2x, %d at 1x", big.Toolbar.Dy(), small.Toolbar.Dy())
	}
	if big.Content.Dx() != 2*small.Content.Dx() {
		t.Fatalf("content width %d at 2x, %d at 1x", big.Content.Dx(), small.Content.Dx())
	}
}

func TestComputeLayoutSmallWindowKeepsMinimumPage(t *testing.T) {
	l := ComputeLayout(200, 150, DefaultTheme(), 1)
	if l.Page.Dx() != 320 || l.Page.Dy() != 200 {
		t.Fatalf("page = %v, want 320x200", l.Page)
	}
	if l.Status.Min.Y < l.Toolbar.Max.Y {
		t.Fatalf("status %v overlaps toolbar %v", l.Status, l.Toolbar)
	}
}

func TestToolbarSlots(t *testing.T) {
	l := ComputeLayout(1200, 800, DefaultTheme(), 1)
	got := l.ToolbarSlots([]int{10, 50})
	want := []image.Rectangle{image.Rect(150, 36, 180, 66), image.Rect(184, 36, 234, 66)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slots (-want +got):\n%s", diff)
	}
}

func TestScrollThumb(t *testing.T) {
	l := ComputeLayout(1200, 800, DefaultTheme(), 1)
	if r := l.ScrollThumb(0, 100); !r.Empty() {
		t.Fatalf("thumb for fitting text = %v", r)
	}
	cases := []struct {
		offset int
		want   image.Rectangle
	}{
		{0, image.Rect(1039, 122, 1043, 428)},
		{612, image.Rect(1039, 428, 1043, 734)},
		{5000, image.Rect(1039, 428, 1043, 734)},
		{-3, image.Rect(1039, 122, 1043, 428)},
	}
	for _, c := range cases {
		if got := l.ScrollThumb(c.offset, 1224); got != c.want {
			t.Fatalf("thumb at %d = %v, want %v", c.offset, got, c.want)
		}
	}
}

func TestElide(t *testing.T) {
	face := basicfont.Face7x13
	if got := Elide(face, "short", 100); got != "short" {
		t.Fatalf("fitting text changed to %q", got)
	}
	if got := Elide(face, "abcdefghij", 50); got != "abcd..." {
		t.Fatalf("elided = %q, want %q", got, "abcd...")
	}
}

func TestDrawShellPaintsPage(t *testing.T) {
	fb := render.NewFrameBuffer(1200, 800)
	theme := DefaultTheme()
	l := DrawShell(fb, theme, 1, basicfont.Face7x13, "")
	mid := l.Content.Min.Add(image.Pt(10, 10))
	if got := fb.At(mid.X, mid.Y); got != theme.Page {
		t.Fatalf("content pixel = %v, want page color", got)
	}
	if got := fb.At(5, l.Status.Min.Y+5); got != theme.StatusBar {
		t.Fatalf("status pixel = %v, want status color", got)
	}
}

func TestThemeFromConfig(t *testing.T) {
	c := config.Default().Theme
	c.Caret = 0xFF0000FF
	th := ThemeFrom(c)
	if th.Caret.R != 0xFF || th.Caret.G != 0 {
		t.Fatalf("caret color = %v", th.Caret)
	}
	if th.Selection.A != 0x66 {
		t.Fatalf("selection alpha = %#x", th.Selection.A)
	}
	if th.Shadow == th.Canvas {
		t.Fatalf("shadow not derived from canvas")
	}
}
