package scene

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
)

// Options control how files are turned into scenes.
type Options struct {
	// Texture is applied to materials that have no texture of their own.
	Texture *render.Texture
	// Fit, if positive, centers the geometry on the origin and scales it so
	// its largest dimension equals Fit.
	Fit float64
}

// Load reads a model (.glb, .gltf, .obj) or a scene description (.rts) and
// returns a built scene. Model files get a camera framing the geometry.
func Load(path string, opts Options) (*Scene, error) {
	if strings.EqualFold(filepath.Ext(path), ".rts") {
		return LoadDescription(path, opts)
	}

	mesh, err := LoadMesh(path)
	if err != nil {
		return nil, err
	}
	if opts.Fit > 0 {
		mesh.Fit(opts.Fit)
	}
	s := New(FromMesh(mesh, opts.Texture))
	s.Build()
	s.Camera = s.FrameCamera()
	return s, nil
}

// LoadMesh loads a model file by extension.
func LoadMesh(path string) (*models.Mesh, error) {
	var (
		mesh *models.Mesh
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		mesh, err = models.LoadGLB(path)
	case ".obj":
		mesh, err = models.LoadOBJ(path)
	default:
		return nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	logger.Infof("loaded %s: %d triangles, %d materials", filepath.Base(path), mesh.TriangleCount(), mesh.MaterialCount())
	return mesh, nil
}

// FrameCamera returns a camera looking at the scene's bounds from +Z, far
// enough back to see all of it.
func (s *Scene) FrameCamera() *render.Camera {
	cam := render.NewCamera()
	if s.bvh == nil || len(s.Triangles) == 0 {
		return cam
	}
	root := s.bvh.Nodes[0]
	center := root.Min.Add(root.Max).Scale(0.5)
	radius := root.Max.Sub(root.Min).Len() / 2
	dist := radius/math.Sin(cam.FOV/2) + radius*0.1

	cam.SetPosition(center.Add(math3d.V3(0, 0, dist)))
	cam.LookAt(center)
	return cam
}

// Description is a parsed scene description file.
type Description struct {
	Models []string // resolved against the file's directory
	Camera *render.Camera
	Sky    string
}

// defaultDescriptionCamera matches an unset camera block: one unit up,
// three back, looking down -Z with a 70 degree field of view.
func defaultDescriptionCamera() *render.Camera {
	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0, 1, 3))
	cam.SetFOV(70 * math.Pi / 180)
	return cam
}

// LoadDescription loads a scene description file and every model it lists.
func LoadDescription(path string, opts Options) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	desc, err := ParseDescription(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	all := models.NewMesh(filepath.Base(path))
	for _, m := range desc.Models {
		mesh, err := LoadMesh(m)
		if err != nil {
			return nil, err
		}
		all.Append(mesh)
	}
	if opts.Fit > 0 {
		all.Fit(opts.Fit)
	}

	s := New(FromMesh(all, opts.Texture))
	s.Camera = desc.Camera
	s.Sky = desc.Sky
	s.Build()
	return s, nil
}

// ParseDescription reads the line format:
//
//	# comment
//	model[
//	path/to/model.obj
//	]model
//	camera[
//	p x y z      position
//	r x y z      rotation in degrees (pitch, yaw, roll); yaw 180 looks down -Z
//	f degrees    vertical field of view
//	]camera
//	sky path/to/environment.png
//
// Block markers are case-insensitive. Unknown lines are ignored. Relative
// paths are resolved against dir.
func ParseDescription(r io.Reader, dir string) (*Description, error) {
	desc := &Description{Camera: defaultDescriptionCamera()}

	var inModel, inCamera bool
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		switch strings.ToLower(text) {
		case "model[":
			inModel = true
			continue
		case "]model":
			inModel = false
			continue
		case "camera[":
			inCamera = true
			continue
		case "]camera":
			inCamera = false
			continue
		}

		fields := strings.Fields(text)
		switch {
		case inModel:
			desc.Models = append(desc.Models, resolve(dir, text))
		case inCamera:
			if err := parseCameraLine(desc.Camera, fields); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case fields[0] == "sky" && len(fields) > 1:
			desc.Sky = resolve(dir, strings.TrimSpace(text[len("sky"):]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return desc, nil
}

func parseCameraLine(cam *render.Camera, fields []string) error {
	switch fields[0] {
	case "p":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return fmt.Errorf("camera position: %w", err)
		}
		cam.SetPosition(v)
	case "r":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return fmt.Errorf("camera rotation: %w", err)
		}
		cam.SetRotation(radians(v.X), radians(v.Y)-math.Pi, radians(v.Z))
	case "f":
		if len(fields) < 2 {
			return nil
		}
		deg, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("camera fov: %w", err)
		}
		cam.SetFOV(radians(deg))
	}
	return nil
}

// parseVec3 parses up to three numbers. Missing components are zero.
func parseVec3(fields []string) (math3d.Vec3, error) {
	var out [3]float64
	for i := 0; i < len(fields) && i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		out[i] = f
	}
	return math3d.V3(out[0], out[1], out[2]), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
