// Package scene holds the renderable world: triangles with shared materials,
// the hierarchy built over them, the emissive subset used for light
// sampling, and the loaders that produce all of it from model and scene
// description files.
package scene

import (
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

// Material describes how a surface scatters and emits light. Materials are
// shared between triangles and must not change while a frame is drawn.
type Material struct {
	Name      string
	Albedo    math3d.Vec3
	Emission  math3d.Vec3
	Roughness float64 // 0 is a mirror, 1 is Lambertian

	// Texture, when set, modulates Albedo at the hit's UV.
	Texture *render.Texture
}

// DefaultMaterial returns a rough mid grey.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Albedo:    math3d.Splat(0.8),
		Roughness: 1,
	}
}

// AlbedoAt returns the albedo at texture coordinate uv.
func (m *Material) AlbedoAt(uv math3d.Vec2) math3d.Vec3 {
	if m.Texture == nil {
		return m.Albedo
	}
	return m.Albedo.Mul(m.Texture.Sample(uv.X, uv.Y))
}

// Emissive reports whether the material gives off light.
func (m *Material) Emissive() bool {
	return m.Emission.MaxComponent() > 0
}

// Lambertian reports whether the surface scatters purely diffusely.
func (m *Material) Lambertian() bool {
	return m.Roughness >= 1
}

