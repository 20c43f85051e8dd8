// Package render turns tracer output into images: it derives tracer cameras
// from a look-at pose, resolves linear radiance into 8-bit pixels, writes
// PNG files and draws to the terminal.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Framebuffer is a 2D array of pixels with row 0 at the top. When drawn to
// the terminal each cell shows two rows using half-block characters (▀).
type Framebuffer struct {
	Width  int          // Width in pixels (same as terminal columns)
	Height int          // Height in pixels (2x terminal rows due to half-blocks)
	Pixels []color.RGBA // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// Resolve fills the framebuffer from a tracer pixel buffer of the same size.
// Radiance is multiplied by exposure and clamped to [0, 1]. Tracer row 0 is
// the bottom of the image, so rows are flipped.
func (fb *Framebuffer) Resolve(pixels []math3d.Vec4, exposure float64) error {
	if len(pixels) != fb.Width*fb.Height {
		return fmt.Errorf("resolve %d pixels into %dx%d framebuffer: size mismatch", len(pixels), fb.Width, fb.Height)
	}
	for y := range fb.Height {
		src := pixels[(fb.Height-1-y)*fb.Width:]
		dst := fb.Pixels[y*fb.Width:]
		for x := range fb.Width {
			dst[x] = toRGBA(src[x].Vec3().Scale(exposure))
		}
	}
	return nil
}

// toRGBA quantizes linear radiance. NaN channels become black.
func toRGBA(c math3d.Vec3) color.RGBA {
	return color.RGBA{R: channel(c.X), G: channel(c.Y), B: channel(c.Z), A: 255}
}

func channel(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// Accumulator averages successive tracer frames of the same size, for
// progressive display.
type Accumulator struct {
	sum    []math3d.Vec3
	avg    []math3d.Vec4
	frames int
}

// NewAccumulator creates an accumulator for n pixels.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		sum: make([]math3d.Vec3, n),
		avg: make([]math3d.Vec4, n),
	}
}

// Add folds one frame into the running mean and returns the mean. The
// returned slice is owned by the accumulator and overwritten by the next
// call.
func (a *Accumulator) Add(frame []math3d.Vec4) ([]math3d.Vec4, error) {
	if len(frame) != len(a.sum) {
		return nil, fmt.Errorf("accumulate %d pixels into %d: size mismatch", len(frame), len(a.sum))
	}
	a.frames++
	inv := 1 / float64(a.frames)
	for i, p := range frame {
		a.sum[i] = a.sum[i].Add(p.Vec3())
		a.avg[i] = math3d.V4FromV3(a.sum[i].Scale(inv), 1)
	}
	return a.avg, nil
}

// Frames returns how many frames the mean covers.
func (a *Accumulator) Frames() int {
	return a.frames
}

// Reset discards all accumulated frames.
func (a *Accumulator) Reset() {
	clear(a.sum)
	a.frames = 0
}
