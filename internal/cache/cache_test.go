package cache

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/font"

	"richtext/pkg/richtext"
)

type closer struct{ closed *int }

func (c closer) Close() error {
	*c.closed++
	return nil
}

func TestStoreSharesAndSweeps(t *testing.T) {
	s := NewStore[string, closer]()
	closed := 0
	builds := 0
	create := func(string) (closer, error) {
		builds++
		return closer{closed: &closed}, nil
	}
	for _, k := range []string{"a", "b", "a", "c"} {
		if _, err := s.Get(k, create); err != nil {
			t.Fatal(err)
		}
	}
	if builds != 3 || s.Len() != 3 {
		t.Fatalf("builds=%d len=%d", builds, s.Len())
	}
	evicted := s.Sweep(map[string]struct{}{"b": {}})
	less := func(a, b string) bool { return a < b }
	if diff := cmp.Diff([]string{"b"}, s.Keys(less)); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if len(evicted) != 2 || closed != 2 || s.Generation() != 1 {
		t.Fatalf("evicted=%v closed=%d generation=%d", evicted, closed, s.Generation())
	}
}

func TestStoreDoesNotCacheFailures(t *testing.T) {
	s := NewStore[int, int]()
	boom := errors.New("boom")
	if _, err := s.Get(1, func(int) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := s.Lookup(1); ok {
		t.Fatalf("failed value cached")
	}
}

func TestManagerSharesFontsAcrossDecorations(t *testing.T) {
	m := NewManager(WithLogger(zaptest.NewLogger(t)))
	d := richtext.DefaultTextDecoration()
	k1, _ := m.Face(d)
	d.Underline = true
	d.Foreground = richtext.RGBA(1, 2, 3, 0xFF)
	k2, _ := m.Face(d)
	if k1 != k2 || m.FontCount() != 1 {
		t.Fatalf("keys %v %v, count %d", k1, k2, m.FontCount())
	}
	d.Bold = true
	k3, _ := m.Face(d)
	if k3 == k1 || m.FontCount() != 2 {
		t.Fatalf("bold face shared with regular")
	}

	live := NewUsage()
	live.Fonts[k3] = struct{}{}
	m.Evict(live)
	if m.HasFont(k1) || !m.HasFont(k3) {
		t.Fatalf("eviction kept the wrong face")
	}
}

func TestManagerFallsBackOnFontError(t *testing.T) {
	failing := func(FontKey) (font.Face, error) { return nil, errors.New("no font") }
	m := NewManager(WithFontFactory(failing), WithLogger(zaptest.NewLogger(t)))
	_, face := m.Face(richtext.DefaultTextDecoration())
	if face == nil {
		t.Fatalf("no fallback face")
	}
	if m.FontCount() != 0 {
		t.Fatalf("failure cached")
	}
}

func TestManagerImagePlaceholderIsCached(t *testing.T) {
	loads := 0
	loader := func(string) (image.Image, error) {
		loads++
		return nil, os.ErrNotExist
	}
	m := NewManager(WithImageLoader(loader), WithLogger(zaptest.NewLogger(t)))
	deco := richtext.ImageDecoration{Source: "missing.png", Width: 12, Height: 8}
	key, img := m.Image(deco)
	_, again := m.Image(deco)
	if loads != 1 || img != again {
		t.Fatalf("loads=%d", loads)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Fatalf("placeholder bounds = %v", b)
	}
	m.Evict(NewUsage())
	if m.HasImage(key) || m.ImageCount() != 0 {
		t.Fatalf("unused image survived eviction")
	}
}

func TestUsageMerge(t *testing.T) {
	a, b := NewUsage(), NewUsage()
	a.Fonts[FontKey{Size: 1}] = struct{}{}
	b.Fonts[FontKey{Size: 2}] = struct{}{}
	b.Images["x"] = struct{}{}
	a.Merge(b)
	if len(a.Fonts) != 2 || len(a.Images) != 1 {
		t.Fatalf("merged = %+v", a)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 0xFF, A: 0xFF})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadImageSources(t *testing.T) {
	raw := pngBytes(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	img, err := LoadImage(uri)
	if err != nil {
		t.Fatalf("data uri: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}

	path := filepath.Join(t.TempDir(), "dot.png")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{path, "file://" + path} {
		if _, err := LoadImage(src); err != nil {
			t.Fatalf("%s: %v", src, err)
		}
	}

	if _, err := LoadImage("https://example.com/a.png"); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("remote source err = %v", err)
	}
	if _, err := LoadImage("data:text/plain,hello"); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("plain data uri err = %v", err)
	}
}

func TestImageKeyDigestsDataURIs(t *testing.T) {
	uri := "data:image/png;base64," + strings.Repeat("A", 4096)
	k := ImageKeyFor(uri)
	if !strings.HasPrefix(string(k), "blake2b:") || len(k) != len("blake2b:")+64 {
		t.Fatalf("key = %q", k)
	}
	if k != ImageKeyFor(uri) {
		t.Fatalf("digest not stable")
	}
	if ImageKeyFor("a.png") != "a.png" {
		t.Fatalf("path keys are kept as is")
	}
}

func TestPlaceholderDefaults(t *testing.T) {
	if b := Placeholder(0, -3).Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestGoFonts(t *testing.T) {
	factory, err := GoFonts()
	if err != nil {
		t.Fatal(err)
	}
	regular, err := factory(FontKeyFor(richtext.DefaultTextDecoration(), 1))
	if err != nil {
		t.Fatal(err)
	}
	d := richtext.DefaultTextDecoration()
	d.FontSize = 28
	large, err := factory(FontKeyFor(d, 1))
	if err != nil {
		t.Fatal(err)
	}
	if large.Metrics().Height <= regular.Metrics().Height {
		t.Fatalf("28pt face is not taller than 14pt")
	}
	scaled, err := factory(FontKeyFor(richtext.DefaultTextDecoration(), 2))
	if err != nil {
		t.Fatal(err)
	}
	if scaled.Metrics().Height <= regular.Metrics().Height {
		t.Fatalf("scale ignored")
	}
}
