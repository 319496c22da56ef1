package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/lumen/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadTextures     bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadTextures:     true,
	}
}

// LoadGLB loads a binary GLTF (.glb) or JSON (.gltf) file.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh with node transforms
// applied and one Material per document material.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))

	mesh.Materials = make([]Material, len(doc.Materials))
	for i, m := range doc.Materials {
		mesh.Materials[i] = l.material(doc, m, filepath.Dir(path))
	}

	roots := sceneRoots(doc)
	if roots == nil {
		// No scene graph: every mesh at the origin.
		for i, m := range doc.Meshes {
			if err := l.processMesh(doc, m, math3d.Identity(), mesh); err != nil {
				return nil, fmt.Errorf("process mesh %d %q: %w", i, m.Name, err)
			}
		}
	} else {
		for _, n := range roots {
			if err := l.processNode(doc, n, math3d.Identity(), mesh, 0); err != nil {
				return nil, err
			}
		}
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}

	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()

	return mesh, nil
}

// sceneRoots returns the root nodes of the default scene, or nil when the
// document has no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	idx := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		idx = *doc.Scene
	}
	return doc.Scenes[idx].Nodes
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

func (l *GLTFLoader) processNode(doc *gltf.Document, idx int, parent math3d.Mat4, mesh *Mesh, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	node := doc.Nodes[idx]
	world := parent.Mul(nodeMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", idx, *node.Mesh)
		}
		m := doc.Meshes[*node.Mesh]
		if err := l.processMesh(doc, m, world, mesh); err != nil {
			return fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	for _, child := range node.Children {
		if err := l.processNode(doc, child, world, mesh, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform. An explicit matrix wins
// over translation/rotation/scale; zero-valued fields take glTF defaults.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	m := math3d.Mat4(n.Matrix)
	if m != (math3d.Mat4{}) && m != math3d.Identity() {
		return m
	}
	r := n.Rotation
	if r == ([4]float64{}) {
		r = [4]float64{0, 0, 0, 1}
	}
	s := n.Scale
	if s == ([3]float64{}) {
		s = [3]float64{1, 1, 1}
	}
	t := n.Translation
	return math3d.TRS(
		math3d.V3(t[0], t[1], t[2]),
		r,
		math3d.V3(s[0], s[1], s[2]),
	)
}

// processMesh extracts geometry from a GLTF mesh, transformed by world.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, world math3d.Mat4, mesh *Mesh) error {
	normalMat := world.NormalMatrix()

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, strips)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		baseVertex := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{
				Position: world.MulVec3(math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))),
			}
			if i < len(normals) {
				n := normals[i]
				v.Normal = normalMat.MulVec3Dir(math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))).Normalize()
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(float64(uvs[i][0]), 1.0-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return fmt.Errorf("index out of range in triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{baseVertex + a, baseVertex + b, baseVertex + c},
				Material: material,
			})
		}
	}

	return nil
}

// material converts a document material. Missing factors take the glTF
// defaults (white, roughness 1).
func (l *GLTFLoader) material(doc *gltf.Document, m *gltf.Material, dir string) Material {
	out := Material{
		Name:      m.Name,
		BaseColor: [4]float64{1, 1, 1, 1},
		Roughness: 1,
		Emission:  math3d.V3(m.EmissiveFactor[0], m.EmissiveFactor[1], m.EmissiveFactor[2]),
	}

	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return out
	}
	out.BaseColor = pbr.BaseColorFactorOrDefault()
	out.Roughness = pbr.RoughnessFactorOrDefault()

	if l.LoadTextures && pbr.BaseColorTexture != nil {
		if img, err := textureImage(doc, pbr.BaseColorTexture.Index, dir); err == nil {
			out.BaseMap = img
			out.HasTexture = true
		}
	}
	return out
}

// textureImage decodes the image behind texture index idx.
func textureImage(doc *gltf.Document, idx int, dir string) (image.Image, error) {
	if idx < 0 || idx >= len(doc.Textures) || doc.Textures[idx].Source == nil {
		return nil, fmt.Errorf("texture %d has no source", idx)
	}
	src := *doc.Textures[idx].Source
	if src >= len(doc.Images) {
		return nil, fmt.Errorf("image %d out of range", src)
	}

	data, err := imageData(doc, doc.Images[src], dir)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %d: %w", src, err)
	}
	return img, nil
}

// imageData returns the encoded bytes of an image stored in a buffer view,
// a data URI, or a file next to the document.
func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		end := bv.ByteOffset + bv.ByteLength
		if buf.Data == nil || end > len(buf.Data) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		return buf.Data[bv.ByteOffset:end], nil
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		data, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("image has no data")
	}
}
