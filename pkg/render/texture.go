// Package render turns the tracer's linear radiance into something a person
// can look at: camera rays in, textures and environment lookups, and
// gamma-corrected pixels out to PNG files or the terminal.
package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/taigrr/lumen/pkg/math3d"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture holds a 2D image of linear RGB values.
type Texture struct {
	Width      int
	Height     int
	Pixels     []math3d.Vec3 // Row-major, top row first
	WrapU      WrapMode      // Horizontal wrap mode
	WrapV      WrapMode      // Vertical wrap mode
	FilterMode FilterMode    // Sampling filter mode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:      width,
		Height:     height,
		Pixels:     make([]math3d.Vec3, width*height),
		WrapU:      WrapRepeat,
		WrapV:      WrapRepeat,
		FilterMode: FilterNearest,
	}
}

// LoadTexture loads a texture from an image file. 8-bit images are assumed
// to be sRGB encoded and are converted to linear values.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}

	return TextureFromImage(img), nil
}

// TextureFromImage creates a linear texture from an sRGB image.Image.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := NewTexture(width, height)

	for y := range height {
		for x := range width {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values
			tex.SetPixel(x, y, math3d.V3(
				SRGBToLinear(float64(r)/0xffff),
				SRGBToLinear(float64(g)/0xffff),
				SRGBToLinear(float64(b)/0xffff),
			))
		}
	}

	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 math3d.Vec3) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c math3d.Vec3) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y) with bounds checking.
func (t *Texture) GetPixel(x, y int) math3d.Vec3 {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return math3d.Vec3{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample samples the texture at UV coordinates (0-1 range).
func (t *Texture) Sample(u, v float64) math3d.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return math3d.Vec3{}
	}

	u = wrapCoord(u, t.WrapU)
	v = wrapCoord(v, t.WrapV)

	// Flip V coordinate (image Y=0 at top, UV V=0 at bottom)
	v = 1.0 - v

	switch t.FilterMode {
	case FilterBilinear:
		return t.sampleBilinear(u, v)
	default:
		return t.sampleNearest(u, v)
	}
}

// wrapCoord applies the wrap mode to a coordinate. NaN and infinities that
// cannot be wrapped map to 0.
func wrapCoord(coord float64, mode WrapMode) float64 {
	switch mode {
	case WrapRepeat:
		coord = coord - math.Floor(coord)
	case WrapClamp:
		coord = math.Max(0, math.Min(1, coord))
	}
	if coord != coord {
		return 0
	}
	return coord
}

// sampleNearest returns the nearest pixel.
func (t *Texture) sampleNearest(u, v float64) math3d.Vec3 {
	x := min(max(int(u*float64(t.Width)), 0), t.Width-1)
	y := min(max(int(v*float64(t.Height)), 0), t.Height-1)
	return t.Pixels[y*t.Width+x]
}

// sampleBilinear returns bilinearly interpolated color.
func (t *Texture) sampleBilinear(u, v float64) math3d.Vec3 {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixel(x0+1, t.Width, t.WrapU)
	y1 := wrapPixel(y0+1, t.Height, t.WrapV)
	x0 = wrapPixel(x0, t.Width, t.WrapU)
	y0 = wrapPixel(y0, t.Height, t.WrapV)

	top := t.GetPixel(x0, y0).Lerp(t.GetPixel(x1, y0), tx)
	bot := t.GetPixel(x0, y1).Lerp(t.GetPixel(x1, y1), tx)
	return top.Lerp(bot, ty)
}

func wrapPixel(x, size int, mode WrapMode) int {
	switch mode {
	case WrapRepeat:
		x %= size
		if x < 0 {
			x += size
		}
	case WrapClamp:
		x = min(max(x, 0), size-1)
	}
	return x
}

// SphereUV maps a unit direction to equirectangular texture coordinates.
// +Y maps to v = 1, the top row of the image.
func SphereUV(dir math3d.Vec3) (u, v float64) {
	u = 0.5 + math.Atan2(dir.Z, dir.X)/(2*math.Pi)
	v = 0.5 + math.Asin(math.Max(-1, math.Min(1, dir.Y)))/math.Pi
	return math.Max(u, 0), math.Max(v, 0)
}

// SRGBToLinear decodes one sRGB channel in [0, 1].
func SRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
