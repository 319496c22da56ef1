// Package bvh builds and queries a bounding volume hierarchy over any set of
// primitives that can report an axis-aligned box and a ray intersection.
//
// Nodes live in a flat array. An internal node stores the index of its left
// child in First and its right child sits at First+1; a leaf stores an offset
// into the primitive index permutation and a nonzero Count.
package bvh

import "github.com/taigrr/lumen/pkg/math3d"

// Bounds is the box and centroid the builder partitions on.
type Bounds struct {
	Centroid math3d.Vec3
	Min      math3d.Vec3
	Max      math3d.Vec3
}

// TriangleBounds returns the bounds of a triangle. The centroid is the
// vertex mean.
func TriangleBounds(a, b, c math3d.Vec3) Bounds {
	return Bounds{
		Centroid: a.Add(b).Add(c).Scale(1.0 / 3.0),
		Min:      a.Min(b).Min(c),
		Max:      a.Max(b).Max(c),
	}
}

// BoxBounds returns the bounds of an existing box, centred on its midpoint.
func BoxBounds(min, max math3d.Vec3) Bounds {
	return Bounds{
		Centroid: min.Add(max).Scale(0.5),
		Min:      min,
		Max:      max,
	}
}

// Contains reports whether o lies entirely inside b.
func (b Bounds) Contains(o Bounds) bool {
	return o.Min.X >= b.Min.X && o.Min.Y >= b.Min.Y && o.Min.Z >= b.Min.Z &&
		o.Max.X <= b.Max.X && o.Max.Y <= b.Max.Y && o.Max.Z <= b.Max.Z
}

// Area returns half the surface area of the box. The builder only ever
// compares areas against each other, so the factor of two is left out on
// every side of the comparison.
func Area(min, max math3d.Vec3) float64 {
	e := max.Sub(min)
	return e.X*e.Y + e.Y*e.Z + e.Z*e.X
}

// box accumulates an AABB. The zero value is not empty; use emptyBox.
type box struct {
	min, max math3d.Vec3
}

func emptyBox() box {
	return box{
		min: math3d.Splat(1e30),
		max: math3d.Splat(-1e30),
	}
}

func (b *box) grow(o Bounds) {
	b.min = b.min.Min(o.Min)
	b.max = b.max.Max(o.Max)
}

func (b box) area() float64 {
	return Area(b.min, b.max)
}
