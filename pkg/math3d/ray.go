package math3d

// Ray is a half-line with a cached reciprocal direction for slab tests.
// Direction is kept unit length by NewRay and SetDirection.
type Ray struct {
	Origin       Vec3
	Direction    Vec3
	InvDirection Vec3
}

// NewRay creates a ray, normalizing dir.
func NewRay(origin, dir Vec3) Ray {
	r := Ray{Origin: origin}
	r.SetDirection(dir)
	return r
}

// SetDirection replaces the direction and refreshes InvDirection.
func (r *Ray) SetDirection(dir Vec3) {
	r.Direction = dir.Normalize()
	r.InvDirection = r.Direction.Inv()
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}
