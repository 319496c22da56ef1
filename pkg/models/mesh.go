// Package models loads triangle meshes and their materials from glTF/GLB and
// Wavefront OBJ files.
package models

import (
	"image"
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Mesh represents a 3D mesh with vertices, faces, and materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face represents a triangle face with vertex indices and material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is a surface description shared by the glTF and OBJ loaders.
type Material struct {
	Name       string
	BaseColor  [4]float64  // Linear RGBA in 0-1 range
	Emission   math3d.Vec3 // Emitted radiance, zero for non-lights
	Roughness  float64     // 0 = mirror, 1 = fully diffuse
	BaseMap    image.Image // Optional base color texture (sRGB)
	HasTexture bool
}

// DefaultMaterial is used for faces that reference no material.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		BaseColor: [4]float64{0.8, 0.8, 0.8, 1},
		Roughness: 1,
	}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Vertices:  make([]MeshVertex, 0),
		Faces:     make([]Face, 0),
		BoundsMin: math3d.V3(0, 0, 0),
		BoundsMax: math3d.V3(0, 0, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals computes face normals and assigns them to vertices.
// This is a simple flat-shading approach; for smooth shading, normals
// should be averaged per-vertex.
func (m *Mesh) CalculateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		normal := edge1.Cross(edge2).Normalize()

		// Assign to vertices (flat shading - each face has its own normal)
		m.Vertices[f.V[0]].Normal = normal
		m.Vertices[f.V[1]].Normal = normal
		m.Vertices[f.V[2]].Normal = normal
	}
}

// CalculateSmoothNormals computes averaged normals for smooth shading.
func (m *Mesh) CalculateSmoothNormals() {
	// Reset all normals
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	// Accumulate face normals per vertex
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		normal := edge1.Cross(edge2) // Don't normalize yet

		m.Vertices[f.V[0]].Normal = m.Vertices[f.V[0]].Normal.Add(normal)
		m.Vertices[f.V[1]].Normal = m.Vertices[f.V[1]].Normal.Add(normal)
		m.Vertices[f.V[2]].Normal = m.Vertices[f.V[2]].Normal.Add(normal)
	}

	// Normalize all accumulated normals
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// Transform applies a transformation matrix to all vertices. Normals go
// through the inverse transpose so non-uniform scales keep them
// perpendicular.
func (m *Mesh) Transform(mat math3d.Mat4) {
	nm := mat.NormalMatrix()
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = nm.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Fit centers the mesh on the origin and scales it so its largest dimension
// equals size.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	center := m.Center()
	ext := m.Size()
	maxDim := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if maxDim <= 0 {
		return
	}
	scale := size / maxDim
	m.Transform(math3d.ScaleUniform(scale).Mul(math3d.Translate(center.Negate())))
}

// Append adds other's vertices, faces and materials to m, remapping indices.
func (m *Mesh) Append(other *Mesh) {
	baseVertex := len(m.Vertices)
	baseMaterial := len(m.Materials)

	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Materials = append(m.Materials, other.Materials...)
	for _, f := range other.Faces {
		nf := Face{V: [3]int{f.V[0] + baseVertex, f.V[1] + baseVertex, f.V[2] + baseVertex}, Material: -1}
		if f.Material >= 0 {
			nf.Material = f.Material + baseMaterial
		}
		m.Faces = append(m.Faces, nf)
	}
	m.CalculateBounds()
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}
