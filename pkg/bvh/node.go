package bvh

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// edgeEpsilon is how close a point may sit to a face before that face is
// ignored by DistanceToEdge.
const edgeEpsilon = 0.00001

// Node is one entry of the node arena.
type Node struct {
	Min, Max math3d.Vec3

	// First is the left child index for internal nodes and the offset into
	// the index permutation for leaves.
	First int
	// Count is zero for internal nodes.
	Count int
}

// IsLeaf reports whether the node holds primitives.
func (n *Node) IsLeaf() bool {
	return n.Count > 0
}

// Bounds returns the node's box as partitionable bounds.
func (n *Node) Bounds() Bounds {
	return BoxBounds(n.Min, n.Max)
}

// slab returns the entry and exit distances of r against the node's box.
// Zero direction components produce infinities (or NaN when the origin lies
// on a face); fmin and fmax drop the NaN so the remaining axes decide.
func (n *Node) slab(r *math3d.Ray) (tmin, tmax float64) {
	t1 := (n.Min.X - r.Origin.X) * r.InvDirection.X
	t2 := (n.Max.X - r.Origin.X) * r.InvDirection.X
	t3 := (n.Min.Y - r.Origin.Y) * r.InvDirection.Y
	t4 := (n.Max.Y - r.Origin.Y) * r.InvDirection.Y
	t5 := (n.Min.Z - r.Origin.Z) * r.InvDirection.Z
	t6 := (n.Max.Z - r.Origin.Z) * r.InvDirection.Z

	tmin = fmax(fmax(fmin(t1, t2), fmin(t3, t4)), fmin(t5, t6))
	tmax = fmin(fmin(fmax(t1, t2), fmax(t3, t4)), fmax(t5, t6))
	return tmin, tmax
}

// Hit reports whether r enters the box in front of its origin.
func (n *Node) Hit(r *math3d.Ray) bool {
	tmin, tmax := n.slab(r)
	return tmax >= tmin && tmax > 0
}

// Distance returns the entry distance of r into the box, or +Inf on a miss.
// The entry distance is negative when the origin is inside the box.
func (n *Node) Distance(r *math3d.Ray) float64 {
	tmin, tmax := n.slab(r)
	if tmax >= tmin && tmax > 0 {
		return tmin
	}
	return math.Inf(1)
}

// Intersect treats the box as a solid primitive: it returns the nearest
// non-negative crossing of the box surface, which is the exit distance when
// the origin is inside.
func (n *Node) Intersect(r *math3d.Ray) (float64, bool) {
	tmin, tmax := n.slab(r)
	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// DistanceToEdge returns how far p is from the nearest box edge, measured
// along the faces p does not lie on. Used to outline boxes in the debug view.
func (n *Node) DistanceToEdge(p math3d.Vec3) float64 {
	dx := faceDistance(p.X, n.Min.X, n.Max.X)
	dy := faceDistance(p.Y, n.Min.Y, n.Max.Y)
	dz := faceDistance(p.Z, n.Min.Z, n.Max.Z)
	return math.Min(math.Min(dx, dy), dz)
}

func faceDistance(p, lo, hi float64) float64 {
	a := p - lo
	if math.Abs(a) < edgeEpsilon {
		a = math.MaxFloat64
	}
	b := p - hi
	if math.Abs(b) < edgeEpsilon {
		b = math.MaxFloat64
	}
	return math.Min(math.Abs(a), math.Abs(b))
}

func fmin(a, b float64) float64 {
	if a < b || b != b {
		return a
	}
	return b
}

func fmax(a, b float64) float64 {
	if a > b || b != b {
		return a
	}
	return b
}
