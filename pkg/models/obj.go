package models

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
)

// OBJLoader loads Wavefront OBJ files and their MTL material libraries.
type OBJLoader struct {
	SmoothNormals bool
	LoadTextures  bool
}

// NewOBJLoader creates an OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{SmoothNormals: true, LoadTextures: true}
}

// LoadOBJ loads an OBJ file with default options.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().Load(path)
}

// Load reads path and any material libraries it references.
func (l *OBJLoader) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	p := &objParser{
		loader: l,
		dir:    filepath.Dir(path),
		mesh:   NewMesh(filepath.Base(path)),
		byName: make(map[string]int),
		cache:  make(map[objKey]int),
		mat:    -1,
	}
	if err := p.parse(f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if !p.hasNormals {
		if l.SmoothNormals {
			p.mesh.CalculateSmoothNormals()
		} else {
			p.mesh.CalculateNormals()
		}
	}
	p.mesh.CalculateBounds()
	return p.mesh, nil
}

// objKey identifies a unique position/uv/normal combination.
type objKey struct{ v, vt, vn int }

type objParser struct {
	loader *OBJLoader
	dir    string
	mesh   *Mesh

	positions []math3d.Vec3
	uvs       []math3d.Vec2
	normals   []math3d.Vec3

	byName map[string]int
	cache  map[objKey]int
	mat    int

	hasNormals bool
}

func (p *objParser) parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v math3d.Vec3
			v, err = parseVec3(fields[1:])
			p.positions = append(p.positions, v)
		case "vt":
			var v math3d.Vec2
			v, err = parseVec2(fields[1:])
			p.uvs = append(p.uvs, v)
		case "vn":
			var v math3d.Vec3
			v, err = parseVec3(fields[1:])
			p.normals = append(p.normals, v.Normalize())
		case "f":
			err = p.face(fields[1:])
		case "usemtl":
			p.mat = -1
			if len(fields) > 1 {
				if idx, ok := p.byName[fields[1]]; ok {
					p.mat = idx
				}
			}
		case "mtllib":
			for _, name := range fields[1:] {
				if err = p.loadMTL(filepath.Join(p.dir, name)); err != nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// face fan-triangulates a polygon.
func (p *objParser) face(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(refs))
	}
	idx := make([]int, len(refs))
	for i, ref := range refs {
		v, err := p.vertex(ref)
		if err != nil {
			return err
		}
		idx[i] = v
	}
	for i := 1; i+1 < len(idx); i++ {
		p.mesh.Faces = append(p.mesh.Faces, Face{
			V:        [3]int{idx[0], idx[i], idx[i+1]},
			Material: p.mat,
		})
	}
	return nil
}

// vertex resolves a v, v/vt, v//vn or v/vt/vn reference to a mesh vertex,
// reusing vertices already emitted for the same triple.
func (p *objParser) vertex(ref string) (int, error) {
	parts := strings.Split(ref, "/")
	key := objKey{-1, -1, -1}

	var err error
	if key.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return 0, fmt.Errorf("vertex %q: %w", ref, err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return 0, fmt.Errorf("uv %q: %w", ref, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return 0, fmt.Errorf("normal %q: %w", ref, err)
		}
	}

	if i, ok := p.cache[key]; ok {
		return i, nil
	}

	v := MeshVertex{Position: p.positions[key.v]}
	if key.vt >= 0 {
		v.UV = p.uvs[key.vt]
	}
	if key.vn >= 0 {
		v.Normal = p.normals[key.vn]
		p.hasNormals = true
	}
	p.mesh.Vertices = append(p.mesh.Vertices, v)
	i := len(p.mesh.Vertices) - 1
	p.cache[key] = i
	return i, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range (have %d)", s, n)
	}
	return i, nil
}

// loadMTL appends the materials of an MTL file. Unset fields default to a
// fully rough grey.
func (p *objParser) loadMTL(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mtl: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var cur *Material
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			m := DefaultMaterial()
			if len(fields) > 1 {
				m.Name = fields[1]
			}
			p.mesh.Materials = append(p.mesh.Materials, m)
			p.byName[m.Name] = len(p.mesh.Materials) - 1
			cur = &p.mesh.Materials[len(p.mesh.Materials)-1]
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch fields[0] {
		case "Kd":
			var c math3d.Vec3
			c, err = parseVec3(fields[1:])
			cur.BaseColor = [4]float64{c.X, c.Y, c.Z, cur.BaseColor[3]}
		case "Ke":
			cur.Emission, err = parseVec3(fields[1:])
		case "Pr":
			cur.Roughness, err = parseFloat(fields[1:])
		case "d":
			cur.BaseColor[3], err = parseFloat(fields[1:])
		case "map_Kd":
			if p.loader.LoadTextures && len(fields) > 1 {
				// Options before the file name are ignored.
				if img, ierr := loadImage(filepath.Join(dir, fields[len(fields)-1])); ierr == nil {
					cur.BaseMap = img
					cur.HasTexture = true
				}
			}
		}
		if err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
	}
	return sc.Err()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseFloat(fields []string) (float64, error) {
	if len(fields) < 1 {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(fields[0], 64)
}

func parseVec2(fields []string) (math3d.Vec2, error) {
	if len(fields) < 2 {
		return math3d.Vec2{}, fmt.Errorf("need 2 values, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	return math3d.V2(x, y), nil
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("need 3 values, got %d", len(fields))
	}
	var v [3]float64
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		v[i] = f
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}
