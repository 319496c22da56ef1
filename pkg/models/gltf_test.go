package models

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
	if !loader.LoadTextures {
		t.Error("LoadTextures should default to true")
	}
}

// writeQuadGLB writes a one-quad GLB whose node is translated along X and
// whose material is emissive.
func writeQuadGLB(t *testing.T) string {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
	})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	rough := 0.25
	metal := 0.0
	doc.Materials = []*gltf.Material{{
		Name:           "lamp",
		EmissiveFactor: [3]float64{1, 2, 3},
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{0.5, 0.25, 1, 1},
			RoughnessFactor: &rough,
			MetallicFactor:  &metal,
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{{
		Name:        "moved",
		Mesh:        gltf.Index(0),
		Translation: [3]float64{10, 0, 0},
	}}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "quad.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("save glb: %v", err)
	}
	return path
}

func TestLoadGLBQuad(t *testing.T) {
	mesh, err := LoadGLB(writeQuadGLB(t))
	if err != nil {
		t.Fatalf("LoadGLB: %v", err)
	}

	if mesh.TriangleCount() != 2 {
		t.Fatalf("triangles = %d, want 2", mesh.TriangleCount())
	}
	if mesh.VertexCount() != 4 {
		t.Errorf("vertices = %d, want 4", mesh.VertexCount())
	}

	// Node translation is baked into the vertices.
	if math.Abs(mesh.BoundsMin.X-9) > 1e-6 || math.Abs(mesh.BoundsMax.X-11) > 1e-6 {
		t.Errorf("bounds X = [%v, %v], want [9, 11]", mesh.BoundsMin.X, mesh.BoundsMax.X)
	}

	// Normals are generated when the file has none.
	n := mesh.Vertices[0].Normal
	if math.Abs(math.Abs(n.Z)-1) > 1e-6 {
		t.Errorf("generated normal = %v, want ±Z", n)
	}

	if got := mesh.Faces[0].Material; got != 0 {
		t.Fatalf("face material = %d, want 0", got)
	}
	m := mesh.Materials[0]
	if m.Name != "lamp" {
		t.Errorf("material name = %q", m.Name)
	}
	if m.Emission.X != 1 || m.Emission.Y != 2 || m.Emission.Z != 3 {
		t.Errorf("emission = %v", m.Emission)
	}
	if m.BaseColor != [4]float64{0.5, 0.25, 1, 1} {
		t.Errorf("base color = %v", m.BaseColor)
	}
	if m.Roughness != 0.25 {
		t.Errorf("roughness = %v, want 0.25", m.Roughness)
	}
}
