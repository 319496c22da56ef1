package render

import (
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
)

func TestGammaLUT(t *testing.T) {
	lut := NewGammaLUT(1024, DefaultGamma)

	tests := []float64{0, 0.001, 0.1, 0.18, 0.5, 0.9, 1}
	for _, x := range tests {
		want := math.Pow(x, 1/DefaultGamma)
		if got := lut.Get(x); math.Abs(got-want) > 0.01 {
			t.Errorf("Get(%v) = %v, want %v", x, got, want)
		}
	}

	if got := lut.Get(-1); got != 0 {
		t.Errorf("negative input = %v, want 0", got)
	}
	if got := lut.Get(7); got != 1 {
		t.Errorf("over-range input = %v, want 1", got)
	}
	if got := lut.Get(math.NaN()); got != 0 {
		t.Errorf("NaN input = %v, want 0", got)
	}
	if got := lut.Get(math.Inf(1)); got != 1 {
		t.Errorf("+Inf input = %v, want 1", got)
	}
}

func TestGammaRGBA(t *testing.T) {
	lut := NewGammaLUT(256, DefaultGamma)
	got := lut.RGBA(math3d.V3(0, 1, 2))
	if got != (color.RGBA{0, 255, 255, 255}) {
		t.Errorf("RGBA = %v", got)
	}
}

func TestFramebufferResolve(t *testing.T) {
	fb := NewFramebuffer(2, 1)
	lut := NewGammaLUT(256, DefaultGamma)
	fb.Resolve([]math3d.Vec3{math3d.V3(1, 1, 1), math3d.V3(0, 0, 0)}, lut)

	if fb.GetPixel(0, 0) != RGB(255, 255, 255) {
		t.Errorf("white pixel = %v", fb.GetPixel(0, 0))
	}
	if fb.GetPixel(1, 0) != RGB(0, 0, 0) {
		t.Errorf("black pixel = %v", fb.GetPixel(1, 0))
	}
	if fb.GetPixel(5, 5) != (color.RGBA{}) {
		t.Error("out of bounds read should be transparent")
	}
}

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Clear(RGB(10, 20, 30))
	fb.SetPixel(1, 1, RGB(200, 0, 0))
	fb.SetPixel(2, 1, RGB(200, 0, 0))

	path := filepath.Join(t.TempDir(), "out.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
	r, _, _, _ := img.At(2, 1).RGBA()
	if r>>8 != 200 {
		t.Errorf("rect pixel red = %d, want 200", r>>8)
	}
}

func TestSavePNGBadPath(t *testing.T) {
	fb := NewFramebuffer(1, 1)
	if err := fb.SavePNG(filepath.Join(t.TempDir(), "missing", "x.png")); err == nil {
		t.Error("expected error for missing directory")
	}
}
