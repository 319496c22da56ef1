package render

import (
	"image/color"
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// DefaultGamma is the display gamma used for output.
const DefaultGamma = 2.2

// DefaultLUTSize is the number of table entries used by the viewer and the
// headless renderer.
const DefaultLUTSize = 1024

// GammaLUT approximates x^(1/gamma) on [0, 1] with a piecewise linear table.
type GammaLUT struct {
	xs, ys   []float64
	maxIndex int
}

// NewGammaLUT builds a table with resolution entries (at least 2).
func NewGammaLUT(resolution int, gamma float64) *GammaLUT {
	resolution = max(resolution, 2)
	l := &GammaLUT{
		xs:       make([]float64, resolution),
		ys:       make([]float64, resolution),
		maxIndex: resolution - 1,
	}
	for i := range resolution {
		x := float64(i) / float64(resolution-1)
		l.xs[i] = x
		l.ys[i] = math.Pow(x, 1/gamma)
	}
	return l
}

// Get returns the gamma-encoded value of x. Inputs are clamped to [0, 1].
func (l *GammaLUT) Get(x float64) float64 {
	if !(x > 0) {
		return l.ys[0]
	}
	if x >= 1 {
		return l.ys[l.maxIndex]
	}
	lo := int(x * float64(l.maxIndex))
	if lo >= l.maxIndex {
		return l.ys[l.maxIndex]
	}
	hi := lo + 1
	dx := l.xs[hi] - l.xs[lo]
	dy := l.ys[hi] - l.ys[lo]
	return l.ys[lo] + (x-l.xs[lo])*dy/dx
}

// RGBA encodes a linear color as an opaque 8-bit display color.
func (l *GammaLUT) RGBA(c math3d.Vec3) color.RGBA {
	return color.RGBA{
		R: uint8(l.Get(c.X)*255 + 0.5),
		G: uint8(l.Get(c.Y)*255 + 0.5),
		B: uint8(l.Get(c.Z)*255 + 0.5),
		A: 255,
	}
}
