package bvh

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Primitive is anything the hierarchy can hand a ray to.
type Primitive interface {
	Intersect(r *math3d.Ray) (float64, bool)
}

type stackEntry struct {
	node int
	dist float64
}

// Traverse finds the closest primitive hit along r. test is called with the
// caller's primitive index for every primitive in every leaf the ray reaches
// and returns the hit distance. Traverse returns the index and distance of
// the nearest hit, or ok == false.
//
// Children are visited nearest entry first, and a subtree is skipped once its
// entry distance is not closer than the best hit found so far.
func (b *BVH) Traverse(r *math3d.Ray, test func(prim int) (float64, bool)) (prim int, t float64, ok bool) {
	prim, t = -1, math.Inf(1)
	if len(b.Index) == 0 {
		return prim, t, false
	}

	var buf [64]stackEntry
	stack := buf[:0]
	stack = append(stack, stackEntry{0, math.Inf(-1)})

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.dist >= t {
			continue
		}

		node := &b.Nodes[e.node]
		if node.IsLeaf() {
			for _, idx := range b.Index[node.First : node.First+node.Count] {
				if d, hit := test(idx); hit && d < t {
					prim, t = idx, d
				}
			}
			continue
		}

		near, far := node.First, node.First+1
		dNear := b.Nodes[near].Distance(r)
		dFar := b.Nodes[far].Distance(r)
		if dNear > dFar {
			near, far = far, near
			dNear, dFar = dFar, dNear
		}

		// The far child is pushed first so the near one is popped next.
		if dFar < t {
			stack = append(stack, stackEntry{far, dFar})
		}
		if dNear < t {
			stack = append(stack, stackEntry{near, dNear})
		}
	}

	return prim, t, prim >= 0
}

// Intersect is Traverse over a slice of primitives stored by value.
func Intersect[T any, P interface {
	*T
	Primitive
}](b *BVH, r *math3d.Ray, prims []T) (int, float64, bool) {
	return b.Traverse(r, func(i int) (float64, bool) {
		return P(&prims[i]).Intersect(r)
	})
}

// IntersectBrute tests every primitive without the hierarchy. It is the
// reference the accelerated query must agree with.
func IntersectBrute[T any, P interface {
	*T
	Primitive
}](r *math3d.Ray, prims []T) (int, float64, bool) {
	best, bestT := -1, math.Inf(1)
	for i := range prims {
		if d, hit := P(&prims[i]).Intersect(r); hit && d < bestT {
			best, bestT = i, d
		}
	}
	return best, bestT, best >= 0
}
