package scene

import "github.com/taigrr/lumen/pkg/math3d"

// Hit is the nearest intersection of a ray with the scene.
type Hit struct {
	T      float64
	Point  math3d.Vec3
	Normal math3d.Vec3 // faces against the incoming ray
	UV     math3d.Vec2

	Triangle *Triangle
}

// Material returns the material of the hit triangle.
func (h *Hit) Material() *Material {
	return h.Triangle.Material
}
