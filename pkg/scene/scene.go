package scene

import (
	"github.com/taigrr/lumen/pkg/bvh"
	"github.com/taigrr/lumen/pkg/log"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

// shadowEpsilon is how much shorter than the segment an occluder must be to
// block it. It keeps the target surface from shadowing itself.
const shadowEpsilon = 1e-4

var logger = log.New("scene")

// Scene is a triangle soup and the hierarchy over it. After Build the
// triangles and hierarchy are read-only and safe for concurrent Cast calls.
// The debug hierarchy is replaced by SetDebugDepth, which callers must
// serialise with drawing.
type Scene struct {
	Triangles []Triangle

	// Camera is the initial view from a scene file, or nil.
	Camera *render.Camera
	// Sky is an environment image path from a scene file, or empty.
	Sky string

	bvh    *bvh.BVH
	lights []int

	debug      *bvh.BVH
	debugNodes []bvh.Node
	debugDepth int
}

// New returns a scene over tris. Call Build before casting rays.
func New(tris []Triangle) *Scene {
	return &Scene{Triangles: tris}
}

// Add appends a triangle. The hierarchy is stale until the next Build.
func (s *Scene) Add(t Triangle) *Triangle {
	s.Triangles = append(s.Triangles, t)
	return &s.Triangles[len(s.Triangles)-1]
}

// Build constructs the hierarchy and collects the emissive triangles. It
// also rebuilds the debug hierarchy at the current debug depth.
func (s *Scene) Build() {
	bounds := make([]bvh.Bounds, len(s.Triangles))
	s.lights = s.lights[:0]
	for i := range s.Triangles {
		t := &s.Triangles[i]
		bounds[i] = t.Bounds()
		if t.Material != nil && t.Material.Emissive() && !t.IsDegenerate() {
			s.lights = append(s.lights, i)
		}
	}
	s.bvh = bvh.Build(bounds)
	s.SetDebugDepth(s.debugDepth)

	logger.Infof("scene: %d triangles, %d emissive", len(s.Triangles), len(s.lights))
}

// BVH returns the hierarchy, or nil before Build.
func (s *Scene) BVH() *bvh.BVH {
	return s.bvh
}

// Lights returns the indices of emissive triangles.
func (s *Scene) Lights() []int {
	return s.lights
}

// Cast returns the nearest hit along r.
func (s *Scene) Cast(r *math3d.Ray) (Hit, bool) {
	if s.bvh == nil {
		return Hit{}, false
	}
	idx, dist, ok := bvh.Intersect(s.bvh, r, s.Triangles)
	if !ok {
		return Hit{}, false
	}

	tri := &s.Triangles[idx]
	_, u, v, _ := tri.IntersectUV(r)
	return Hit{
		T:        dist,
		Point:    r.At(dist),
		Normal:   tri.Normal(u, v, r.Direction),
		UV:       tri.TexCoord(u, v),
		Triangle: tri,
	}, true
}

// Visible reports whether nothing blocks the segment from a to b.
func (s *Scene) Visible(a, b math3d.Vec3) bool {
	if s.bvh == nil {
		return true
	}
	d := b.Sub(a)
	dist := d.Len()
	r := math3d.NewRay(a, d)
	_, t, ok := bvh.Intersect(s.bvh, &r, s.Triangles)
	return !ok || t >= dist*(1-shadowEpsilon)
}

// SetDebugDepth rebuilds the debug hierarchy over the nodes depth levels
// below the root and returns the depth used. depth is clamped to the
// hierarchy's range.
func (s *Scene) SetDebugDepth(depth int) int {
	if s.bvh == nil {
		s.debugDepth = max(depth, 0)
		return s.debugDepth
	}
	depth = min(max(depth, 0), s.bvh.Depth())
	s.debugDepth = depth
	s.debugNodes = s.bvh.AtDepth(depth)

	bounds := make([]bvh.Bounds, len(s.debugNodes))
	for i := range s.debugNodes {
		bounds[i] = s.debugNodes[i].Bounds()
	}
	s.debug = bvh.Build(bounds)
	logger.Debugf("debug view: depth %d, %d boxes", depth, len(s.debugNodes))
	return depth
}

// DebugDepth returns the depth shown by the debug view.
func (s *Scene) DebugDepth() int {
	return s.debugDepth
}

// CastDebug returns the nearest box of the debug view along r and the
// distance to it. A ray starting inside a box reports the exit distance.
func (s *Scene) CastDebug(r *math3d.Ray) (bvh.Node, float64, bool) {
	if s.debug == nil {
		return bvh.Node{}, 0, false
	}
	idx, dist, ok := bvh.Intersect(s.debug, r, s.debugNodes)
	if !ok {
		return bvh.Node{}, 0, false
	}
	return s.debugNodes[idx], dist, true
}
