// Package tracer estimates the light reaching the camera by Monte Carlo path
// tracing, accumulates the estimates progressively into an image, and runs
// that accumulation on a background worker the display loop can pause.
package tracer

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/pcg"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

const (
	// DefaultMaxBounces is the path length used when none is configured.
	DefaultMaxBounces = 3

	// surfaceOffset lifts continuation rays off the surface they leave.
	surfaceOffset = 0.001

	// minThroughput ends paths that can no longer carry visible light.
	minThroughput = 1e-4
)

// Environment is the light arriving from outside the scene.
type Environment interface {
	Radiance(dir math3d.Vec3) math3d.Vec3
}

// EnvironmentFunc adapts a function to Environment.
type EnvironmentFunc func(dir math3d.Vec3) math3d.Vec3

func (f EnvironmentFunc) Radiance(dir math3d.Vec3) math3d.Vec3 {
	return f(dir)
}

// ConstantEnvironment is a uniform ambient colour.
type ConstantEnvironment struct {
	Color math3d.Vec3
}

func (e ConstantEnvironment) Radiance(math3d.Vec3) math3d.Vec3 {
	return e.Color
}

// TextureEnvironment looks up an equirectangular image.
type TextureEnvironment struct {
	Texture *render.Texture
}

// NewTextureEnvironment wraps tex, clamping lookups at the poles and seam
// and filtering between texels.
func NewTextureEnvironment(tex *render.Texture) TextureEnvironment {
	tex.WrapU = render.WrapClamp
	tex.WrapV = render.WrapClamp
	tex.FilterMode = render.FilterBilinear
	return TextureEnvironment{Texture: tex}
}

func (e TextureEnvironment) Radiance(dir math3d.Vec3) math3d.Vec3 {
	u, v := render.SphereUV(dir)
	return e.Texture.Sample(u, v)
}

// Integrator traces single light paths. It holds no per-path state and may
// be shared by any number of goroutines.
type Integrator struct {
	MaxBounces int

	// LightSampling enables next event estimation toward emissive
	// triangles at fully rough vertices. Emission found by the ray leaving
	// such a vertex is skipped, since the direct estimate already covers
	// it. Glossier vertices bounce as usual and count emission in full.
	LightSampling bool

	Env Environment
}

// NewIntegrator returns an integrator with the default path length.
func NewIntegrator(env Environment) *Integrator {
	if env == nil {
		env = ConstantEnvironment{}
	}
	return &Integrator{MaxBounces: DefaultMaxBounces, Env: env}
}

// Trace returns the radiance carried back along r. The result depends only
// on its arguments.
func (in *Integrator) Trace(r math3d.Ray, sc *scene.Scene, seed uint32) math3d.Vec3 {
	throughput := math3d.One3()
	var light math3d.Vec3

	nee := in.LightSampling && len(sc.Lights()) > 0
	sampled := false // the previous vertex estimated direct light

	for range in.MaxBounces {
		seed = pcg.Hash(seed)

		hit, ok := sc.Cast(&r)
		if !ok {
			light = light.Add(in.Env.Radiance(r.Direction).Mul(throughput))
			break
		}

		m := hit.Material()
		if !sampled {
			light = light.Add(m.Emission.Mul(throughput))
		}

		albedo := m.AlbedoAt(hit.UV)
		sampled = nee && m.Lambertian()
		if sampled {
			direct := in.direct(&hit, albedo, sc, &seed)
			light = light.Add(direct.Mul(throughput))
		}

		r.Origin = hit.Point.Add(hit.Normal.Scale(surfaceOffset))
		reflection := r.Direction.Reflect(hit.Normal)
		diffuse := hit.Normal.Add(pcg.Direction(&seed)).Normalize()
		r.SetDirection(reflection.Lerp(diffuse, m.Roughness))

		throughput = throughput.Mul(albedo)

		if throughput.MaxComponent() < minThroughput {
			break
		}
	}

	return light
}

// direct estimates the light reflected toward the incoming ray from one
// uniformly chosen emissive triangle, treating the surface as Lambertian.
func (in *Integrator) direct(hit *scene.Hit, albedo math3d.Vec3, sc *scene.Scene, seed *uint32) math3d.Vec3 {
	lights := sc.Lights()
	i := min(int(pcg.Float(seed)*float64(len(lights))), len(lights)-1)
	l := &sc.Triangles[lights[i]]
	p := l.SamplePoint(seed)
	if l == hit.Triangle {
		return math3d.Vec3{}
	}

	origin := hit.Point.Add(hit.Normal.Scale(surfaceOffset))
	d := p.Sub(origin)
	dist2 := d.LenSq()
	if dist2 == 0 {
		return math3d.Vec3{}
	}
	dir := d.Scale(1 / math.Sqrt(dist2))

	cosSurface := hit.Normal.Dot(dir)
	cosLight := math.Abs(l.FaceNormal.Dot(dir))
	if cosSurface <= 0 || cosLight == 0 {
		return math3d.Vec3{}
	}
	if !sc.Visible(origin, p) {
		return math3d.Vec3{}
	}

	// Inverse of the solid-angle pdf of picking this point.
	weight := l.Area() * float64(len(lights)) * cosSurface * cosLight / dist2
	return albedo.Scale(1 / math.Pi).Mul(l.Material.Emission).Scale(weight)
}
