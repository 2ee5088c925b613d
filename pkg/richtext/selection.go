package richtext

// Selection is a half-open range of document offsets.
type Selection struct {
	Start int
	End   int
}

// Undefined is the selection used when nothing is selected.
var Undefined = Selection{Start: -1, End: -1}

// NewSelection orders its endpoints. An empty or negative range is Undefined.
func NewSelection(a, b int) Selection {
	if a > b {
		a, b = b, a
	}
	if a < 0 || a == b {
		return Undefined
	}
	return Selection{Start: a, End: b}
}

func (s Selection) IsDefined() bool {
	return s.Start >= 0 && s.Start < s.End
}

func (s Selection) Len() int {
	if !s.IsDefined() {
		return 0
	}
	return s.End - s.Start
}

func (s Selection) Contains(offset int) bool {
	return s.IsDefined() && s.Start <= offset && offset < s.End
}

// Clamp limits s to [0, n].
func (s Selection) Clamp(n int) Selection {
	if !s.IsDefined() {
		return Undefined
	}
	return NewSelection(clamp(s.Start, 0, n), clamp(s.End, 0, n))
}

// Intersect returns the part of s inside [start, end).
func (s Selection) Intersect(start, end int) Selection {
	if !s.IsDefined() {
		return Undefined
	}
	return NewSelection(max(s.Start, start), min(s.End, end))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
