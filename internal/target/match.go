// Package target implements the Target hierarchy (Image/Text/Pattern/Chain)
// and the Match record produced by a Finder. See spec.md §3 and §4.D.
package target

// Match is a rectangle in haystack coordinates with a center offset and a
// similarity score. A Finder never mutates a Match after returning it; an
// enclosing Region (out of scope of this module) may translate it from
// sub-region to screen coordinates via Translated.
type Match struct {
	X, Y, W, H int
	DX, DY     int
	Similarity float64
}

// Translated returns a copy of m with its origin shifted by (dx, dy),
// leaving width, height, center offset, and similarity untouched.
func (m Match) Translated(dx, dy int) Match {
	m.X += dx
	m.Y += dy
	return m
}

// Center returns the click target: the geometric center of the match
// rectangle plus the configured center offset.
func (m Match) Center() (x, y int) {
	return m.X + m.W/2 + m.DX, m.Y + m.H/2 + m.DY
}

// ByDescendingSimilarity sorts a slice of Match best-first, the post-
// condition required of every Finder that reports similarity (spec.md §4.E).
type ByDescendingSimilarity []Match

func (s ByDescendingSimilarity) Len() int      { return len(s) }
func (s ByDescendingSimilarity) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByDescendingSimilarity) Less(i, j int) bool {
	return s[i].Similarity > s[j].Similarity
}
