package tile

import (
	"slices"

	"richtext/internal/geom"
	"richtext/pkg/richtext"
)

// Reconcile diffs the painted background shapes against the wanted ones.
// toAdd holds new colors and colors whose shape moved; toRemove the colors
// no longer wanted. Unchanged colors appear in neither.
func Reconcile(old, next map[richtext.Color]geom.Path) (toAdd map[richtext.Color]geom.Path, toRemove []richtext.Color) {
	toAdd = map[richtext.Color]geom.Path{}
	for c := range old {
		if _, ok := next[c]; !ok {
			toRemove = append(toRemove, c)
		}
	}
	slices.Sort(toRemove)
	for c, p := range next {
		if prev, ok := old[c]; ok && slices.Equal(prev.Elements, p.Elements) {
			continue
		}
		toAdd[c] = p
	}
	return toAdd, toRemove
}
