package bvh

import (
	"time"

	"github.com/taigrr/lumen/pkg/log"
)

// splitCandidates is the number of evenly spaced split planes tried per axis.
const splitCandidates = 16

// noSplit is the cost reported when no candidate plane is usable.
const noSplit = 1e30

// BVH is a built hierarchy. It is immutable after Build and safe for
// concurrent queries.
type BVH struct {
	// Nodes is the node arena; the root is Nodes[0].
	Nodes []Node
	// Index maps permuted positions to the caller's primitive indices.
	// Leaf primitives are Index[First : First+Count].
	Index []int

	// bounds is the caller's bounds, permuted alongside Index.
	bounds []Bounds
}

// Stats summarises the shape of a hierarchy.
type Stats struct {
	Nodes       int
	Leaves      int
	MaxDepth    int
	LargestLeaf int
	Primitives  int
}

type builder struct {
	bvh  *BVH
	used int
}

var logger = log.New("bvh")

// Build constructs a hierarchy over bounds using surface area heuristic
// splits. The slice is copied. An empty slice yields a single empty leaf
// that every query misses.
func Build(bounds []Bounds) *BVH {
	start := time.Now()
	n := len(bounds)

	b := &BVH{
		Index:  make([]int, n),
		bounds: make([]Bounds, n),
	}
	copy(b.bounds, bounds)
	for i := range b.Index {
		b.Index[i] = i
	}

	if n == 0 {
		b.Nodes = []Node{{}}
		return b
	}

	b.Nodes = make([]Node, 2*n-1)
	b.Nodes[0] = Node{First: 0, Count: n}
	b.refit(0)

	bld := &builder{bvh: b, used: 1}
	// Children are appended behind the cursor, so walking the arena in
	// order visits every node exactly once, level by level.
	for i := 0; i < bld.used; i++ {
		bld.subdivide(i)
	}
	b.Nodes = b.Nodes[:bld.used:bld.used]

	s := b.Stats()
	logger.Debugf("built %d primitives in %v: %d nodes, %d leaves, depth %d, largest leaf %d",
		n, time.Since(start), s.Nodes, s.Leaves, s.MaxDepth, s.LargestLeaf)
	return b
}

// subdivide splits node idx in two if the best split beats leaving it whole.
func (bld *builder) subdivide(idx int) {
	b := bld.bvh
	node := &b.Nodes[idx]
	if node.Count < 2 {
		return
	}

	axis, pos, cost := bld.divisionPlane(node)
	if cost >= float64(node.Count)*Area(node.Min, node.Max) {
		return
	}

	i := node.First
	j := i + node.Count - 1
	for i <= j {
		if b.bounds[i].Centroid.Axis(axis) < pos {
			i++
		} else {
			b.swap(i, j)
			j--
		}
	}

	leftCount := i - node.First
	if leftCount == 0 || leftCount == node.Count {
		return
	}

	left, right := bld.used, bld.used+1
	bld.used += 2

	b.Nodes[left] = Node{First: node.First, Count: leftCount}
	b.Nodes[right] = Node{First: i, Count: node.Count - leftCount}
	node.First = left
	node.Count = 0

	b.refit(left)
	b.refit(right)
}

// divisionPlane returns the cheapest (axis, position, cost) among the
// candidate planes spread across each axis' centroid extent.
func (bld *builder) divisionPlane(node *Node) (int, float64, float64) {
	b := bld.bvh
	bestAxis, bestPos, bestCost := 0, 0.0, noSplit

	for axis := range 3 {
		lo, hi := 1e30, -1e30
		for _, bb := range b.bounds[node.First : node.First+node.Count] {
			c := bb.Centroid.Axis(axis)
			lo = min(lo, c)
			hi = max(hi, c)
		}
		if lo == hi {
			continue
		}

		step := (hi - lo) / splitCandidates
		for i := range splitCandidates {
			pos := lo + float64(i)*step
			cost := bld.evaluate(node, axis, pos)
			if cost < bestCost {
				bestAxis, bestPos, bestCost = axis, pos, cost
			}
		}
	}

	return bestAxis, bestPos, bestCost
}

// evaluate returns the SAH cost of splitting node at pos along axis.
func (bld *builder) evaluate(node *Node, axis int, pos float64) float64 {
	left, right := emptyBox(), emptyBox()
	var leftCount, rightCount int

	for _, bb := range bld.bvh.bounds[node.First : node.First+node.Count] {
		if bb.Centroid.Axis(axis) < pos {
			leftCount++
			left.grow(bb)
		} else {
			rightCount++
			right.grow(bb)
		}
	}

	var cost float64
	if leftCount > 0 {
		cost += float64(leftCount) * left.area()
	}
	if rightCount > 0 {
		cost += float64(rightCount) * right.area()
	}
	if cost > 0 {
		return cost
	}
	return noSplit
}

// refit recomputes node idx's box from its member bounds.
func (b *BVH) refit(idx int) {
	node := &b.Nodes[idx]
	if node.Count == 0 {
		return
	}
	bx := emptyBox()
	for _, bb := range b.bounds[node.First : node.First+node.Count] {
		bx.grow(bb)
	}
	node.Min, node.Max = bx.min, bx.max
}

func (b *BVH) swap(i, j int) {
	b.bounds[i], b.bounds[j] = b.bounds[j], b.bounds[i]
	b.Index[i], b.Index[j] = b.Index[j], b.Index[i]
}

// Len returns the number of primitives the hierarchy was built over.
func (b *BVH) Len() int {
	return len(b.Index)
}

// Leaf returns the caller's primitive indices held by a leaf node.
func (b *BVH) Leaf(n *Node) []int {
	return b.Index[n.First : n.First+n.Count]
}

// Stats walks the hierarchy and reports its shape.
func (b *BVH) Stats() Stats {
	s := Stats{Primitives: len(b.Index), Nodes: len(b.Nodes)}
	if len(b.Index) == 0 {
		return s
	}

	type item struct{ node, depth int }
	stack := []item{{0, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s.MaxDepth = max(s.MaxDepth, it.depth)
		n := &b.Nodes[it.node]
		if n.IsLeaf() {
			s.Leaves++
			s.LargestLeaf = max(s.LargestLeaf, n.Count)
			continue
		}
		stack = append(stack, item{n.First, it.depth + 1}, item{n.First + 1, it.depth + 1})
	}
	return s
}
