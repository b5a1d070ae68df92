// Package shape reduces small subsets of unit-sphere points to sortable
// shape descriptors and provides k-d tree indexes over descriptors and over
// the points themselves. Descriptors are the scale-comparable fingerprints
// the matcher uses to find candidate counterpart patterns.
package shape

import (
	"fmt"
	"sort"

	"github.com/banshee-data/skymatch/internal/sphere"
)

// Pattern is an ordered subset of points from a brightness-sorted PointSet:
// one center (anchor) point plus size-1 spoke points. The descriptor is the
// list of Euclidean chord lengths from the center to each spoke, sorted
// ascending, so two patterns are comparable independent of spoke labelling.
type Pattern struct {
	// Center is the index of the anchor point in the source PointSet.
	Center int

	// Spokes holds the indices of the spoke points, ordered by ascending
	// chord length from the center. Spokes[i] corresponds to Lengths[i].
	Spokes []int

	// Lengths is the shape descriptor: chord lengths sorted ascending.
	Lengths []float64
}

// Size returns the total number of points in the pattern.
func (p Pattern) Size() int { return len(p.Spokes) + 1 }

// Build constructs the pattern formed by size consecutive brightness-ranked
// points of set starting at start. The first point of the window is the
// center; the remaining size-1 points are spokes. Construction is fully
// deterministic: the spoke sort breaks length ties by point index.
func Build(set sphere.PointSet, start, size int) (Pattern, error) {
	if size < 2 {
		return Pattern{}, fmt.Errorf("pattern size %d too small (need at least 2 points)", size)
	}
	if start < 0 || start+size > len(set) {
		return Pattern{}, fmt.Errorf("pattern window [%d,%d) outside point set of %d points",
			start, start+size, len(set))
	}
	return BuildFrom(set, start, indexRange(start+1, start+size)), nil
}

// BuildFrom constructs a pattern with an explicit center index and spoke
// point indices. The matcher uses this to slide alternate spoke selections
// across a wider attempt window.
func BuildFrom(set sphere.PointSet, center int, spokes []int) Pattern {
	p := Pattern{
		Center:  center,
		Spokes:  make([]int, len(spokes)),
		Lengths: make([]float64, len(spokes)),
	}
	copy(p.Spokes, spokes)
	for i, s := range p.Spokes {
		p.Lengths[i] = sphere.Chord(set[center].Unit, set[s].Unit)
	}
	sort.Sort(bySpokeLength{p})
	return p
}

// indexRange returns the integers [lo, hi).
func indexRange(lo, hi int) []int {
	idx := make([]int, hi-lo)
	for i := range idx {
		idx[i] = lo + i
	}
	return idx
}

// bySpokeLength sorts spokes and lengths together by ascending length,
// breaking ties by spoke index so the result is deterministic even for
// coincident points.
type bySpokeLength struct{ p Pattern }

func (b bySpokeLength) Len() int { return len(b.p.Spokes) }

func (b bySpokeLength) Less(i, j int) bool {
	if b.p.Lengths[i] != b.p.Lengths[j] {
		return b.p.Lengths[i] < b.p.Lengths[j]
	}
	return b.p.Spokes[i] < b.p.Spokes[j]
}

func (b bySpokeLength) Swap(i, j int) {
	b.p.Lengths[i], b.p.Lengths[j] = b.p.Lengths[j], b.p.Lengths[i]
	b.p.Spokes[i], b.p.Spokes[j] = b.p.Spokes[j], b.p.Spokes[i]
}
