package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMaterial(t *testing.T) {
	m := DefaultMaterial()
	if m.BaseColor != [4]float64{0.8, 0.8, 0.8, 1} {
		t.Errorf("BaseColor = %v, want 0.8 grey", m.BaseColor)
	}
	if m.Roughness != 1 {
		t.Errorf("roughness = %v, want 1", m.Roughness)
	}
	if m.Emission.LenSq() != 0 {
		t.Errorf("default material emits %v", m.Emission)
	}
	if m.HasTexture || m.BaseMap != nil {
		t.Error("default material has a texture")
	}
}

// Materials an MTL file declares but leaves partly unset keep the defaults
// for the missing fields.
func TestMTLPartialMaterial(t *testing.T) {
	dir := t.TempDir()
	mtl := "newmtl lamp\nKe 4 4 4\nnewmtl mirror\nPr 0\nd 0.5\n"
	obj := "mtllib scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl mirror\nf 1 2 3\nusemtl lamp\nf 1 3 2\n"
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scene.obj")
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}

	mesh, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if mesh.MaterialCount() != 2 {
		t.Fatalf("MaterialCount = %d, want 2", mesh.MaterialCount())
	}

	lamp, mirror := mesh.Materials[0], mesh.Materials[1]
	if lamp.Name != "lamp" || lamp.Emission.X != 4 || lamp.Roughness != 1 {
		t.Errorf("lamp = %+v", lamp)
	}
	if lamp.BaseColor != DefaultMaterial().BaseColor {
		t.Errorf("lamp base color = %v, want the default", lamp.BaseColor)
	}
	if mirror.Roughness != 0 || mirror.BaseColor[3] != 0.5 {
		t.Errorf("mirror = %+v", mirror)
	}

	if mesh.Faces[0].Material != 1 || mesh.Faces[1].Material != 0 {
		t.Errorf("face materials = %d, %d, want 1, 0", mesh.Faces[0].Material, mesh.Faces[1].Material)
	}
}

func TestAppendKeepsMaterials(t *testing.T) {
	a := NewMesh("a")
	a.Materials = []Material{{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}}}
	b := NewMesh("b")
	b.Materials = []Material{
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
		{Name: "blue", BaseColor: [4]float64{0, 0, 1, 1}},
	}
	b.Vertices = make([]MeshVertex, 3)
	b.Faces = []Face{{V: [3]int{0, 1, 2}, Material: 1}}

	a.Append(b)

	if a.MaterialCount() != 3 {
		t.Fatalf("MaterialCount = %d, want 3", a.MaterialCount())
	}
	if got := a.Materials[a.Faces[0].Material].Name; got != "blue" {
		t.Errorf("appended face material = %q, want blue", got)
	}
}
