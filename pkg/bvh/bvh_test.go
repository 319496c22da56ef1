package bvh

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
)

// tri is a minimal Möller-Trumbore triangle for exercising the hierarchy.
type tri struct {
	a, b, c math3d.Vec3
}

func (t *tri) Intersect(r *math3d.Ray) (float64, bool) {
	e1 := t.b.Sub(t.a)
	e2 := t.c.Sub(t.a)
	h := r.Direction.Cross(e2)
	det := e1.Dot(h)
	f := 1 / det
	s := r.Origin.Sub(t.a)
	u := f * s.Dot(h)
	if !(u >= 0 && u <= 1) {
		return 0, false
	}
	q := s.Cross(e1)
	v := f * r.Direction.Dot(q)
	if !(v >= 0 && u+v <= 1) {
		return 0, false
	}
	d := f * e2.Dot(q)
	return d, d > 1e-7
}

func randVec(rng *rand.Rand, scale float64) math3d.Vec3 {
	return math3d.V3(
		(rng.Float64()*2-1)*scale,
		(rng.Float64()*2-1)*scale,
		(rng.Float64()*2-1)*scale,
	)
}

func triangleSoup(rng *rand.Rand, n int) []tri {
	tris := make([]tri, n)
	for i := range tris {
		center := randVec(rng, 10)
		tris[i] = tri{
			a: center.Add(randVec(rng, 0.5)),
			b: center.Add(randVec(rng, 0.5)),
			c: center.Add(randVec(rng, 0.5)),
		}
	}
	return tris
}

func boundsOf(tris []tri) []Bounds {
	out := make([]Bounds, len(tris))
	for i, t := range tris {
		out[i] = TriangleBounds(t.a, t.b, t.c)
	}
	return out
}

func TestSlabHit(t *testing.T) {
	n := Node{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}
	r := math3d.NewRay(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1))

	if !n.Hit(&r) {
		t.Fatal("expected ray to hit the unit box")
	}
	if d := n.Distance(&r); d <= 3.9 || d >= 4.1 {
		t.Errorf("Distance = %v, want in (3.9, 4.1)", d)
	}
	if d, ok := n.Intersect(&r); !ok || d <= 3.9 || d >= 4.1 {
		t.Errorf("Intersect = %v, %v", d, ok)
	}
}

func TestSlabEdgeCases(t *testing.T) {
	n := Node{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}

	tests := []struct {
		name     string
		origin   math3d.Vec3
		dir      math3d.Vec3
		hit      bool
		distance float64
	}{
		{"behind", math3d.V3(0, 0, 5), math3d.V3(0, 0, 1), false, math.Inf(1)},
		{"parallel outside", math3d.V3(2, 0, -5), math3d.V3(0, 0, 1), false, math.Inf(1)},
		{"origin on face plane", math3d.V3(1, 0, -5), math3d.V3(0, 0, 1), false, math.Inf(1)},
		{"inside", math3d.V3(0, 0, 0), math3d.V3(0, 1, 0), true, -1},
		{"diagonal", math3d.V3(-5, -5, -5), math3d.V3(1, 1, 1), true, 4 * math.Sqrt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := math3d.NewRay(tt.origin, tt.dir)
			if got := n.Hit(&r); got != tt.hit {
				t.Errorf("Hit = %v, want %v", got, tt.hit)
			}
			d := n.Distance(&r)
			if math.IsInf(tt.distance, 1) {
				if !math.IsInf(d, 1) {
					t.Errorf("Distance = %v, want +Inf", d)
				}
			} else if math.Abs(d-tt.distance) > 1e-9 {
				t.Errorf("Distance = %v, want %v", d, tt.distance)
			}
		})
	}
}

func TestNodeIntersectFromInside(t *testing.T) {
	n := Node{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}
	r := math3d.NewRay(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0))
	d, ok := n.Intersect(&r)
	if !ok || math.Abs(d-1) > 1e-9 {
		t.Errorf("Intersect from inside = %v, %v; want exit distance 1", d, ok)
	}
}

func TestDistanceToEdge(t *testing.T) {
	n := Node{Min: math3d.V3(0, 0, 0), Max: math3d.V3(1, 1, 1)}
	// On the z=0 face, 0.25 from the x=0 edge.
	if d := n.DistanceToEdge(math3d.V3(0.25, 0.5, 0)); math.Abs(d-0.25) > 1e-9 {
		t.Errorf("DistanceToEdge = %v, want 0.25", d)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := Build(nil)
	if len(b.Nodes) != 1 || b.Nodes[0].Count != 0 {
		t.Fatalf("empty build nodes = %+v", b.Nodes)
	}
	if len(b.Index) != 0 {
		t.Errorf("empty build index = %v", b.Index)
	}

	r := math3d.NewRay(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1))
	var prims []tri
	if _, _, ok := Intersect(b, &r, prims); ok {
		t.Error("empty hierarchy reported a hit")
	}
	if got := b.AtDepth(0); len(got) != 0 {
		t.Errorf("AtDepth on empty = %v", got)
	}
}

func TestBuildSingle(t *testing.T) {
	tris := []tri{{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0)}}
	b := Build(boundsOf(tris))
	if len(b.Nodes) != 1 || b.Nodes[0].Count != 1 {
		t.Fatalf("single primitive should be one leaf, got %+v", b.Nodes)
	}
	r := math3d.NewRay(math3d.V3(0, 0, -5), math3d.V3(0, 0, 1))
	i, d, ok := Intersect(b, &r, tris)
	if !ok || i != 0 || math.Abs(d-5) > 1e-9 {
		t.Errorf("Intersect = %d, %v, %v", i, d, ok)
	}
}

func TestBuildDuplicateCentroids(t *testing.T) {
	bounds := make([]Bounds, 50)
	for i := range bounds {
		bounds[i] = BoxBounds(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	}
	b := Build(bounds)
	if len(b.Nodes) != 1 || b.Nodes[0].Count != 50 {
		t.Errorf("shared centroids should give one leaf, got %d nodes", len(b.Nodes))
	}
}

func checkContainment(t *testing.T, b *BVH, bounds []Bounds) {
	t.Helper()
	if len(b.Index) == 0 {
		return
	}
	for i := range b.Nodes {
		n := &b.Nodes[i]
		parent := n.Bounds()
		if n.IsLeaf() {
			for _, idx := range b.Leaf(n) {
				if !parent.Contains(bounds[idx]) {
					t.Fatalf("leaf %d does not contain primitive %d", i, idx)
				}
			}
			continue
		}
		for _, c := range []int{n.First, n.First + 1} {
			if c <= i {
				t.Fatalf("child %d of node %d is not after its parent", c, i)
			}
			child := b.Nodes[c].Bounds()
			if !parent.Contains(child) {
				t.Fatalf("node %d does not contain child %d", i, c)
			}
		}
	}
}

func checkBijection(t *testing.T, b *BVH, n int) {
	t.Helper()
	if len(b.Index) != n {
		t.Fatalf("index length = %d, want %d", len(b.Index), n)
	}
	seen := make([]bool, n)
	for _, idx := range b.Index {
		if idx < 0 || idx >= n || seen[idx] {
			t.Fatalf("index is not a permutation: %v", idx)
		}
		seen[idx] = true
	}
}

func TestBuildInvariants(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 17, 100, 1000} {
		rng := rand.New(rand.NewSource(int64(n) + 1))
		tris := triangleSoup(rng, n)
		bounds := boundsOf(tris)
		b := Build(bounds)

		checkBijection(t, b, n)
		checkContainment(t, b, bounds)
		if n > 0 && len(b.Nodes) > 2*n-1 {
			t.Errorf("n=%d: %d nodes exceeds 2n-1", n, len(b.Nodes))
		}

		s := b.Stats()
		leafTotal := 0
		for i := range b.Nodes {
			if b.Nodes[i].IsLeaf() {
				leafTotal += b.Nodes[i].Count
			}
		}
		if n > 0 && leafTotal != n {
			t.Errorf("n=%d: leaves cover %d primitives", n, leafTotal)
		}
		if n > 0 && s.Leaves*2-1 != s.Nodes {
			t.Errorf("n=%d: %d leaves for %d nodes in a binary tree", n, s.Leaves, s.Nodes)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bounds := boundsOf(triangleSoup(rng, 500))

	a := Build(bounds)
	b := Build(bounds)
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Error("node arrays differ between builds")
	}
	if !reflect.DeepEqual(a.Index, b.Index) {
		t.Error("permutations differ between builds")
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bounds := boundsOf(triangleSoup(rng, 64))
	orig := append([]Bounds(nil), bounds...)
	Build(bounds)
	if !reflect.DeepEqual(bounds, orig) {
		t.Error("Build reordered the caller's bounds")
	}
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	for _, n := range []int{1, 2, 100, 10000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(n)))
			tris := triangleSoup(rng, n)
			b := Build(boundsOf(tris))

			rays := 500
			if n == 10000 {
				rays = 200
			}
			for range rays {
				origin := randVec(rng, 15)
				// Aim roughly at a primitive so most rays hit something.
				target := tris[rng.Intn(n)].a.Add(randVec(rng, 0.3))
				r := math3d.NewRay(origin, target.Sub(origin))

				wi, wt, wok := IntersectBrute(&r, tris)
				gi, gt, gok := Intersect(b, &r, tris)
				if wok != gok {
					t.Fatalf("n=%d: hit mismatch, brute %v bvh %v", n, wok, gok)
				}
				if !wok {
					continue
				}
				if math.Abs(wt-gt) > 1e-9 {
					t.Fatalf("n=%d: t mismatch, brute %v (prim %d) bvh %v (prim %d)", n, wt, wi, gt, gi)
				}
			}
		})
	}
}

func TestAxisAlignedRays(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tris := triangleSoup(rng, 300)
	b := Build(boundsOf(tris))

	dirs := []math3d.Vec3{
		math3d.V3(1, 0, 0), math3d.V3(-1, 0, 0),
		math3d.V3(0, 1, 0), math3d.V3(0, -1, 0),
		math3d.V3(0, 0, 1), math3d.V3(0, 0, -1),
	}
	for _, d := range dirs {
		for range 100 {
			r := math3d.NewRay(randVec(rng, 12), d)
			_, wt, wok := IntersectBrute(&r, tris)
			_, gt, gok := Intersect(b, &r, tris)
			if wok != gok || (wok && math.Abs(wt-gt) > 1e-9) {
				t.Fatalf("dir %v: brute (%v, %v) bvh (%v, %v)", d, wt, wok, gt, gok)
			}
		}
	}
}

func TestAtDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	b := Build(boundsOf(triangleSoup(rng, 200)))

	root := b.AtDepth(0)
	if len(root) != 1 || root[0] != b.Nodes[0] {
		t.Fatalf("AtDepth(0) = %v", root)
	}
	if !b.Nodes[0].IsLeaf() {
		if got := b.AtDepth(1); len(got) != 2 {
			t.Errorf("AtDepth(1) returned %d nodes, want 2", len(got))
		}
	}
	if got := b.AtDepth(b.Depth() + 1); len(got) != 0 {
		t.Errorf("below the deepest leaf should be empty, got %d", len(got))
	}
}

func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	bounds := boundsOf(triangleSoup(rng, 10000))

	for b.Loop() {
		_ = Build(bounds)
	}
}

func BenchmarkIntersect(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	tris := triangleSoup(rng, 10000)
	h := Build(boundsOf(tris))
	r := math3d.NewRay(math3d.V3(0, 0, -20), math3d.V3(0.01, 0.02, 1))

	for b.Loop() {
		_, _, _ = Intersect(h, &r, tris)
	}
}
