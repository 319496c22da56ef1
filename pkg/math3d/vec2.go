package math3d

// Vec2 represents a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns the vector sum a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Scale returns the scalar product a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Barycentric interpolates three values with weights (1-u-v, u, v).
func Barycentric(a, b, c Vec2, u, v float64) Vec2 {
	w := 1 - u - v
	return Vec2{
		a.X*w + b.X*u + c.X*v,
		a.Y*w + b.Y*u + c.Y*v,
	}
}
