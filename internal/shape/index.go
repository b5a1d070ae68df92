package shape

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/skymatch/internal/sphere"
)

// descriptor is a k-d tree node holding one pattern's sorted spoke lengths
// plus the brightness rank of the window it was built from. Distance is the
// squared Euclidean distance in descriptor space.
type descriptor struct {
	vec   []float64
	start int
}

func (d descriptor) Compare(c kdtree.Comparable, dim kdtree.Dim) float64 {
	q := c.(descriptor)
	return d.vec[dim] - q.vec[dim]
}

func (d descriptor) Dims() int { return len(d.vec) }

func (d descriptor) Distance(c kdtree.Comparable) float64 {
	q := c.(descriptor)
	var sum float64
	for i, v := range d.vec {
		dv := v - q.vec[i]
		sum += dv * dv
	}
	return sum
}

// descriptors implements kdtree.Interface over a slice of descriptor nodes.
type descriptors []descriptor

func (s descriptors) Index(i int) kdtree.Comparable { return s[i] }
func (s descriptors) Len() int                      { return len(s) }
func (s descriptors) Pivot(d kdtree.Dim) int {
	return descriptorPlane{Dim: d, descriptors: s}.Pivot()
}
func (s descriptors) Slice(start, end int) kdtree.Interface { return s[start:end] }

// descriptorPlane is the sort plane used during tree construction.
type descriptorPlane struct {
	kdtree.Dim
	descriptors
}

func (p descriptorPlane) Less(i, j int) bool {
	return p.descriptors[i].vec[p.Dim] < p.descriptors[j].vec[p.Dim]
}
func (p descriptorPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p descriptorPlane) Slice(start, end int) kdtree.SortSlicer {
	p.descriptors = p.descriptors[start:end]
	return p
}
func (p descriptorPlane) Swap(i, j int) {
	p.descriptors[i], p.descriptors[j] = p.descriptors[j], p.descriptors[i]
}

// DescriptorIndex is a static nearest-neighbour structure over the shape
// descriptors of every consecutive brightness window of a point set. It is
// read-only after construction and safe to share across calls as long as the
// underlying point set does not change.
type DescriptorIndex struct {
	tree  *kdtree.Tree
	nodes descriptors
	size  int
}

// NewDescriptorIndex builds descriptors for every consecutive window of
// patternSize points across set and indexes them. set must contain at least
// patternSize points.
func NewDescriptorIndex(set sphere.PointSet, patternSize int) (*DescriptorIndex, error) {
	if patternSize < 2 {
		return nil, fmt.Errorf("pattern size %d too small (need at least 2 points)", patternSize)
	}
	if len(set) < patternSize {
		return nil, fmt.Errorf("point set of %d points cannot form %d-point patterns",
			len(set), patternSize)
	}
	n := len(set) - patternSize + 1
	nodes := make(descriptors, n)
	for start := 0; start < n; start++ {
		p, err := Build(set, start, patternSize)
		if err != nil {
			return nil, err
		}
		nodes[start] = descriptor{vec: p.Lengths, start: start}
	}
	// The tree construction permutes its input, so index a copy and keep
	// the original slice ordered by window start for direct access.
	treeNodes := make(descriptors, n)
	copy(treeNodes, nodes)
	return &DescriptorIndex{
		tree:  kdtree.New(treeNodes, false),
		nodes: nodes,
		size:  patternSize,
	}, nil
}

// PatternSize returns the pattern size the index was built for.
func (x *DescriptorIndex) PatternSize() int { return x.size }

// Len returns the number of indexed windows.
func (x *DescriptorIndex) Len() int { return len(x.nodes) }

// Descriptor returns the sorted spoke lengths of the window beginning at
// start. The returned slice must not be modified.
func (x *DescriptorIndex) Descriptor(start int) []float64 { return x.nodes[start].vec }

// Within returns the window start indices of all indexed descriptors lying
// within radius (descriptor-space Euclidean distance) of vec, ordered by
// ascending distance with index as tie-break so results are deterministic.
func (x *DescriptorIndex) Within(vec []float64, radius float64) []int {
	keep := kdtree.NewDistKeeper(radius * radius)
	x.tree.NearestSet(keep, descriptor{vec: vec, start: -1})

	type hit struct {
		start int
		dist  float64
	}
	hits := make([]hit, 0, keep.Heap.Len())
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		d := c.Comparable.(descriptor)
		hits = append(hits, hit{start: d.start, dist: c.Dist})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].start < hits[j].start
	})
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.start
	}
	return out
}

// nearestOther returns the descriptor-space distance from the window at
// start to its nearest distinct neighbour.
func (x *DescriptorIndex) nearestOther(start int) (float64, bool) {
	keep := kdtree.NewNKeeper(2)
	x.tree.NearestSet(keep, x.nodes[start])
	best := math.Inf(1)
	found := false
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		d := c.Comparable.(descriptor)
		if d.start == start {
			continue
		}
		if dist := math.Sqrt(c.Dist); dist < best {
			best = dist
			found = true
		}
	}
	return best, found
}

// EstimateTolerance derives a default match-distance tolerance from the
// self-similarity of patterns within a single catalog. Every consecutive
// brightness window of patternSize points becomes a descriptor; the
// tolerance is the smallest nearest-neighbour distance observed between two
// distinct descriptors, converted to an average per-spoke angular tolerance
// in arcseconds. This measures how similar two different same-size patterns
// can be purely by chance at this catalog's point density.
func EstimateTolerance(set sphere.PointSet, patternSize int) (float64, error) {
	index, err := NewDescriptorIndex(set, patternSize)
	if err != nil {
		return 0, err
	}
	if index.Len() < 2 {
		return 0, fmt.Errorf("point set of %d points yields %d pattern(s); need at least 2 to estimate tolerance",
			len(set), index.Len())
	}
	best := math.Inf(1)
	for start := 0; start < index.Len(); start++ {
		if d, ok := index.nearestOther(start); ok && d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0, fmt.Errorf("no distinct descriptor pairs found across %d patterns", index.Len())
	}
	arcsec := best * 180 / math.Pi * 3600 / float64(patternSize-1)
	return arcsec, nil
}

// vertex is a k-d tree node for a single unit vector with its point index.
type vertex struct {
	vec [3]float64
	idx int
}

func (v vertex) Compare(c kdtree.Comparable, dim kdtree.Dim) float64 {
	q := c.(vertex)
	return v.vec[dim] - q.vec[dim]
}

func (v vertex) Dims() int { return 3 }

func (v vertex) Distance(c kdtree.Comparable) float64 {
	q := c.(vertex)
	var sum float64
	for i := range v.vec {
		d := v.vec[i] - q.vec[i]
		sum += d * d
	}
	return sum
}

type vertices []vertex

func (s vertices) Index(i int) kdtree.Comparable { return s[i] }
func (s vertices) Len() int                      { return len(s) }
func (s vertices) Pivot(d kdtree.Dim) int {
	return vertexPlane{Dim: d, vertices: s}.Pivot()
}
func (s vertices) Slice(start, end int) kdtree.Interface { return s[start:end] }

type vertexPlane struct {
	kdtree.Dim
	vertices
}

func (p vertexPlane) Less(i, j int) bool {
	return p.vertices[i].vec[p.Dim] < p.vertices[j].vec[p.Dim]
}
func (p vertexPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	p.vertices = p.vertices[start:end]
	return p
}
func (p vertexPlane) Swap(i, j int) {
	p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
}

// PointIndex is a static 3-D nearest-neighbour structure over the unit
// vectors of a point set, used for full-catalog verification of candidate
// transforms. Read-only after construction.
type PointIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewPointIndex indexes the unit vectors of set.
func NewPointIndex(set sphere.PointSet) (*PointIndex, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("cannot index an empty point set")
	}
	nodes := make(vertices, len(set))
	for i, p := range set {
		nodes[i] = vertex{vec: p.Unit, idx: i}
	}
	return &PointIndex{tree: kdtree.New(nodes, false), n: len(set)}, nil
}

// Len returns the number of indexed points.
func (x *PointIndex) Len() int { return x.n }

// Nearest returns the index of the point closest to vec and the chord
// distance to it.
func (x *PointIndex) Nearest(vec [3]float64) (int, float64) {
	c, dist := x.tree.Nearest(vertex{vec: vec, idx: -1})
	return c.(vertex).idx, math.Sqrt(dist)
}
