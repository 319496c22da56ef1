package scene

import (
	"math"

	"github.com/taigrr/lumen/pkg/bvh"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/pcg"
)

// minHitDistance rejects hits at the ray origin.
const minHitDistance = 1e-7

// Triangle is the only primitive the tracer renders.
type Triangle struct {
	V  [3]math3d.Vec3
	N  [3]math3d.Vec3
	UV [3]math3d.Vec2

	// FaceNormal is fixed at construction.
	FaceNormal math3d.Vec3
	Material   *Material
}

// NewTriangle creates a flat-shaded triangle. Vertex normals start equal to
// the face normal.
func NewTriangle(a, b, c math3d.Vec3, m *Material) Triangle {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return Triangle{
		V:          [3]math3d.Vec3{a, b, c},
		N:          [3]math3d.Vec3{n, n, n},
		FaceNormal: n,
		Material:   m,
	}
}

// Intersect returns the distance along r to the triangle.
func (t *Triangle) Intersect(r *math3d.Ray) (float64, bool) {
	d, _, _, ok := t.IntersectUV(r)
	return d, ok
}

// IntersectUV is the Möller–Trumbore test. It also returns the barycentric
// coordinates of the hit relative to V[1] and V[2]. Parallel rays and
// degenerate triangles produce infinite or NaN coordinates and fail the
// range checks.
func (t *Triangle) IntersectUV(r *math3d.Ray) (dist, u, v float64, ok bool) {
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	h := r.Direction.Cross(e2)
	f := 1 / e1.Dot(h)

	s := r.Origin.Sub(t.V[0])
	u = f * s.Dot(h)
	if !(u >= 0 && u <= 1) {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = f * r.Direction.Dot(q)
	if !(v >= 0 && u+v <= 1) {
		return 0, 0, 0, false
	}

	dist = f * e2.Dot(q)
	if !(dist > minHitDistance) {
		return 0, 0, 0, false
	}
	return dist, u, v, true
}

// Normal returns the interpolated vertex normal at (u, v), flipped to face
// against dir.
func (t *Triangle) Normal(u, v float64, dir math3d.Vec3) math3d.Vec3 {
	w := 1 - u - v
	n := t.N[0].Scale(w).Add(t.N[1].Scale(u)).Add(t.N[2].Scale(v)).Normalize()
	if n.LenSq() == 0 {
		n = t.FaceNormal
	}
	if n.Dot(dir) > 0 {
		return n.Negate()
	}
	return n
}

// TexCoord returns the interpolated texture coordinate at (u, v).
func (t *Triangle) TexCoord(u, v float64) math3d.Vec2 {
	return math3d.Barycentric(t.UV[0], t.UV[1], t.UV[2], u, v)
}

// Bounds returns the box and centroid used to build the hierarchy.
func (t *Triangle) Bounds() bvh.Bounds {
	return bvh.TriangleBounds(t.V[0], t.V[1], t.V[2])
}

// Area returns the surface area.
func (t *Triangle) Area() float64 {
	return 0.5 * t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0])).Len()
}

// SamplePoint returns a uniformly distributed point on the surface,
// advancing seed twice.
func (t *Triangle) SamplePoint(seed *uint32) math3d.Vec3 {
	a := pcg.Float(seed)
	b := pcg.Float(seed)
	if a+b > 1 {
		a, b = 1-a, 1-b
	}
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	return t.V[0].Add(e1.Scale(a)).Add(e2.Scale(b))
}

// IsDegenerate reports whether the triangle has no area.
func (t *Triangle) IsDegenerate() bool {
	a := t.Area()
	return a == 0 || math.IsNaN(a)
}
