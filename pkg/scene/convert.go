package scene

import (
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

// FromMesh converts a loaded mesh into triangles. Each mesh material becomes
// one shared Material; faces without a material get a default grey.
// fallback, if non-nil, textures every material that has no texture of its
// own.
func FromMesh(mesh *models.Mesh, fallback *render.Texture) []Triangle {
	mats := make([]*Material, len(mesh.Materials))
	for i := range mesh.Materials {
		mats[i] = convertMaterial(&mesh.Materials[i], fallback)
	}
	def := DefaultMaterial()
	def.Texture = fallback

	tris := make([]Triangle, 0, len(mesh.Faces))
	for _, f := range mesh.Faces {
		m := def
		if f.Material >= 0 && f.Material < len(mats) {
			m = mats[f.Material]
		}

		a, b, c := mesh.Vertices[f.V[0]], mesh.Vertices[f.V[1]], mesh.Vertices[f.V[2]]
		t := NewTriangle(a.Position, b.Position, c.Position, m)
		for i, v := range [3]models.MeshVertex{a, b, c} {
			if v.Normal.LenSq() > 0 {
				t.N[i] = v.Normal
			}
			t.UV[i] = v.UV
		}
		tris = append(tris, t)
	}
	return tris
}

func convertMaterial(m *models.Material, fallback *render.Texture) *Material {
	out := &Material{
		Name:      m.Name,
		Albedo:    math3d.V3(m.BaseColor[0], m.BaseColor[1], m.BaseColor[2]),
		Emission:  m.Emission,
		Roughness: m.Roughness,
		Texture:   fallback,
	}
	if m.HasTexture && m.BaseMap != nil {
		out.Texture = render.TextureFromImage(m.BaseMap)
	}
	return out
}
