package geom

import (
	"image"
	"sort"
)

type Op uint8

const (
	MoveTo Op = iota
	LineTo
	ClosePath
)

type Element struct {
	Op Op
	Pt image.Point
}

// Path is an outline in integer pixels. Range shapes are closed rectangles,
// caret shapes a single vertical segment.
type Path struct {
	Elements []Element
}

func (p *Path) MoveTo(x, y int) {
	p.Elements = append(p.Elements, Element{Op: MoveTo, Pt: image.Pt(x, y)})
}

func (p *Path) LineTo(x, y int) {
	p.Elements = append(p.Elements, Element{Op: LineTo, Pt: image.Pt(x, y)})
}

func (p *Path) Close() { p.Elements = append(p.Elements, Element{Op: ClosePath}) }

func (p *Path) Clear() { p.Elements = p.Elements[:0] }

func (p Path) Empty() bool { return len(p.Elements) == 0 }

// AddRect appends r as a closed rectangle.
func (p *Path) AddRect(r image.Rectangle) {
	if r.Empty() {
		return
	}
	p.MoveTo(r.Min.X, r.Min.Y)
	p.LineTo(r.Max.X, r.Min.Y)
	p.LineTo(r.Max.X, r.Max.Y)
	p.LineTo(r.Min.X, r.Max.Y)
	p.Close()
}

// Bounds covers every point of the path, including degenerate segments.
func (p Path) Bounds() image.Rectangle {
	first := true
	var b image.Rectangle
	for _, e := range p.Elements {
		if e.Op == ClosePath {
			continue
		}
		if first {
			b = image.Rectangle{Min: e.Pt, Max: e.Pt}
			first = false
			continue
		}
		b.Min.X = min(b.Min.X, e.Pt.X)
		b.Min.Y = min(b.Min.Y, e.Pt.Y)
		b.Max.X = max(b.Max.X, e.Pt.X)
		b.Max.Y = max(b.Max.Y, e.Pt.Y)
	}
	return b
}

// Origin is the first MoveTo point.
func (p Path) Origin() (image.Point, bool) {
	for _, e := range p.Elements {
		if e.Op == MoveTo {
			return e.Pt, true
		}
	}
	return image.Point{}, false
}

func (p Path) Translate(d image.Point) Path {
	out := Path{Elements: make([]Element, len(p.Elements))}
	for i, e := range p.Elements {
		if e.Op != ClosePath {
			e.Pt = e.Pt.Add(d)
		}
		out.Elements[i] = e
	}
	return out
}

// Rects returns the bounding box of every closed subpath.
func (p Path) Rects() []image.Rectangle {
	var out []image.Rectangle
	var sub Path
	for _, e := range p.Elements {
		switch e.Op {
		case MoveTo:
			sub.Elements = sub.Elements[:0]
			sub.Elements = append(sub.Elements, e)
		case LineTo:
			sub.Elements = append(sub.Elements, e)
		case ClosePath:
			if r := sub.Bounds(); !r.Empty() {
				out = append(out, r)
			}
			sub.Elements = sub.Elements[:0]
		}
	}
	return out
}

// Union merges the rectangles of every path. Rectangles on the same band that
// overlap or touch are fused, so two overlapping ranges give one region.
func Union(paths ...Path) Path {
	var rects []image.Rectangle
	for _, p := range paths {
		rects = append(rects, p.Rects()...)
	}
	rects = mergeRects(rects)
	var out Path
	for _, r := range rects {
		out.AddRect(r)
	}
	return out
}

func mergeRects(rects []image.Rectangle) []image.Rectangle {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(rects) && !merged; i++ {
			for j := i + 1; j < len(rects); j++ {
				if u, ok := fuse(rects[i], rects[j]); ok {
					rects[i] = u
					rects = append(rects[:j], rects[j+1:]...)
					merged = true
					break
				}
			}
		}
	}
	sort.Slice(rects, func(i, j int) bool {
		if rects[i].Min.Y == rects[j].Min.Y {
			return rects[i].Min.X < rects[j].Min.X
		}
		return rects[i].Min.Y < rects[j].Min.Y
	})
	return rects
}

// fuse joins a and b when their union is still exactly a rectangle.
func fuse(a, b image.Rectangle) (image.Rectangle, bool) {
	switch {
	case b.In(a):
		return a, true
	case a.In(b):
		return b, true
	case a.Min.Y == b.Min.Y && a.Max.Y == b.Max.Y && a.Min.X <= b.Max.X && b.Min.X <= a.Max.X:
		return a.Union(b), true
	case a.Min.X == b.Min.X && a.Max.X == b.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y:
		return a.Union(b), true
	}
	return image.Rectangle{}, false
}

// Regions counts the connected areas of the path. Rectangles that overlap or
// share an edge belong to the same region.
func (p Path) Regions() int {
	rects := p.Rects()
	parent := make([]int, len(rects))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if touches(rects[i], rects[j]) {
				parent[find(i)] = find(j)
			}
		}
	}
	n := 0
	for i := range parent {
		if find(i) == i {
			n++
		}
	}
	return n
}

func touches(a, b image.Rectangle) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		(a.Overlaps(b) || a.Min.X < b.Max.X && b.Min.X < a.Max.X || a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y)
}
