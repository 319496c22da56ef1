package tracer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/lumen/pkg/log"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/pcg"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

const (
	// InitialSeed is the frame seed after a reset.
	InitialSeed uint32 = 153544

	// DebugSamples caps accumulation while the hierarchy view is on.
	DebugSamples = 16
)

var (
	debugBackground = math3d.Splat(0.005)
	debugEdge       = math3d.Splat(0.9)
)

var logger = log.New("tracer")

// Renderer accumulates one sample per pixel per Draw into Buffer. Buffer
// holds the running mean of every sample drawn since the last Reset.
type Renderer struct {
	Width, Height int

	// Buffer is linear radiance, row-major with the top row first.
	Buffer []math3d.Vec3

	Integrator *Integrator

	// MaxSamples stops accumulation once reached; 0 means unlimited.
	MaxSamples int

	// Workers bounds the rows drawn in parallel; 0 means GOMAXPROCS.
	Workers int

	// Debug draws the hierarchy boxes at the scene's debug depth instead
	// of shaded geometry.
	Debug bool

	frames int
	seed   uint32
}

// NewRenderer returns a renderer with an empty width x height buffer.
func NewRenderer(width, height int, in *Integrator) *Renderer {
	r := &Renderer{Integrator: in}
	r.Resize(width, height)
	return r
}

// Resize reallocates the buffer and resets accumulation.
func (r *Renderer) Resize(width, height int) {
	r.Width, r.Height = max(width, 0), max(height, 0)
	r.Buffer = make([]math3d.Vec3, r.Width*r.Height)
	r.Reset()
}

// Reset discards accumulated samples.
func (r *Renderer) Reset() {
	r.frames = 0
	r.seed = InitialSeed
	clear(r.Buffer)
}

// Frames returns the number of samples accumulated per pixel.
func (r *Renderer) Frames() int {
	return r.frames
}

// SampleCap returns the active sample cap, 0 for none.
func (r *Renderer) SampleCap() int {
	if r.Debug {
		return DebugSamples
	}
	return r.MaxSamples
}

// Done reports whether the sample cap has been reached.
func (r *Renderer) Done() bool {
	limit := r.SampleCap()
	return limit > 0 && r.frames >= limit
}

// Draw adds one sample to every pixel and reports whether it did. It does
// nothing once Done. Pixels are independent; rows are spread over Workers
// goroutines and Draw returns when all are finished.
func (r *Renderer) Draw(sc *scene.Scene, cam *render.Camera) bool {
	if r.Done() || len(r.Buffer) == 0 {
		return false
	}

	r.seed = pcg.Hash(r.seed)
	weight := 1 / float64(r.frames+1)
	frameSeed := r.seed

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for y := range r.Height {
		g.Go(func() error {
			row := r.Buffer[y*r.Width : (y+1)*r.Width]
			for x := range row {
				seed := PixelSeed(x, y, frameSeed)
				px := float64(x) + pcg.Float(&seed)
				py := float64(y) + pcg.Float(&seed)
				ray := cam.Ray(px, py, r.Width, r.Height)

				var sample math3d.Vec3
				if r.Debug {
					sample = debugSample(sc, &ray)
				} else {
					sample = r.Integrator.Trace(ray, sc, seed)
				}
				if !sample.IsFinite() {
					sample = math3d.Vec3{}
				}
				row[x] = row[x].Lerp(sample, weight)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Errorf("draw frame: %v", err)
	}

	r.frames++
	if r.Done() {
		logger.Infof("sample cap of %d reached", r.SampleCap())
	}
	return true
}

// Render draws until the sample cap, checking ctx between frames. progress,
// if non-nil, is called after every frame.
func (r *Renderer) Render(ctx context.Context, sc *scene.Scene, cam *render.Camera, progress func(frames int)) error {
	if r.SampleCap() <= 0 {
		return errors.New("render: a sample cap is required")
	}
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render stopped after %d samples: %w", r.frames, err)
		}
		r.Draw(sc, cam)
		if progress != nil {
			progress(r.frames)
		}
	}
	return nil
}

// Snapshot copies the buffer into dst, growing it if needed.
func (r *Renderer) Snapshot(dst []math3d.Vec3) []math3d.Vec3 {
	if cap(dst) < len(r.Buffer) {
		dst = make([]math3d.Vec3, len(r.Buffer))
	}
	dst = dst[:len(r.Buffer)]
	copy(dst, r.Buffer)
	return dst
}

// PixelSeed derives the random stream of pixel (x, y) for one frame.
// Coordinates are scrambled by large odd multipliers and hashed before the
// frame seed is mixed in, so neighbouring pixels and swapped coordinates get
// unrelated streams.
func PixelSeed(x, y int, frameSeed uint32) uint32 {
	h := pcg.Hash(uint32(x)*0x9E3779B9 ^ uint32(y)*0x85EBCA6B)
	return pcg.Hash(h ^ frameSeed)
}

// debugSample shades the nearest hierarchy box along ray with a colour
// unique to the box and bright edges.
func debugSample(sc *scene.Scene, ray *math3d.Ray) math3d.Vec3 {
	node, t, ok := sc.CastDebug(ray)
	if !ok {
		return debugBackground
	}
	seed := uint32(node.First + node.Count)
	box := pcg.Vec3(&seed)
	edge := math.Max(0, math.Min(1, node.DistanceToEdge(ray.At(t))*15))
	box = debugEdge.Lerp(box, edge)
	return debugBackground.Lerp(box, 0.3)
}
