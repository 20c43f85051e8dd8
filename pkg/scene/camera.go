package scene

import (
	"fmt"
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Camera is the per-pass view description the tracer consumes. The inverse
// matrices are derived elsewhere from field of view, aspect and pose.
type Camera struct {
	Position      math3d.Vec3
	InvProjection math3d.Mat4
	InvView       math3d.Mat4

	Width           uint32
	Height          uint32
	SamplesPerPixel uint32
	MaxBounces      uint32
}

// Pixels returns Width*Height.
func (c Camera) Pixels() int {
	return int(c.Width) * int(c.Height)
}

// Validate checks that the camera describes at least one pixel and sample
// and that its matrices are finite.
func (c Camera) Validate() error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%dx%d image: %w", c.Width, c.Height, ErrInvalidCamera)
	}
	if c.SamplesPerPixel == 0 {
		return fmt.Errorf("zero samples per pixel: %w", ErrInvalidCamera)
	}
	for i := range 16 {
		if !finite(c.InvProjection[i]) || !finite(c.InvView[i]) {
			return fmt.Errorf("non-finite matrix: %w", ErrInvalidCamera)
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
