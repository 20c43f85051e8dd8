// Package trace is the per-pixel path tracing kernel and its parallel
// dispatcher.
//
// A Kernel is a read-only bundle of scene, camera and settings. Pixel is the
// only entry point the dispatcher needs: it derives the pixel coordinate
// from a linear index, seeds a private generator from seeds[i], averages
// SamplesPerPixel traced paths and writes pixels[i]. Workers share nothing
// but the Kernel itself.
package trace

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/rng"
	"github.com/taigrr/lumen/pkg/scene"
)

var (
	// ErrSeedCount is returned when the seed slice does not hold one seed
	// per pixel.
	ErrSeedCount = errors.New("seed count does not match pixel count")
	// ErrPixelCount is returned when the output buffer is not Width*Height.
	ErrPixelCount = errors.New("pixel buffer size does not match image size")
)

// Settings are the numeric tunables of the integrator and dispatcher.
type Settings struct {
	// TMin and TMax bound every intersection query.
	TMin float64
	TMax float64
	// Epsilon offsets each bounce origin along the new direction.
	Epsilon float64
	// EmissiveScale multiplies every emissive contribution.
	EmissiveScale float64
	// BatchSize is the number of consecutive pixels per dispatched task.
	BatchSize int
	// Workers caps concurrent tasks. Zero means GOMAXPROCS.
	Workers int
}

// DefaultSettings returns the settings used by the CLI.
func DefaultSettings() Settings {
	return Settings{
		TMin:          1e-4,
		TMax:          math.MaxFloat64,
		Epsilon:       1e-4,
		EmissiveScale: 1,
		BatchSize:     64,
	}
}

// Kernel traces pixels of one camera view of one scene.
type Kernel struct {
	scene    *scene.Scene
	camera   scene.Camera
	settings Settings
}

// NewKernel validates its inputs and returns a Kernel ready for Pixel.
func NewKernel(s *scene.Scene, cam scene.Camera, settings Settings) (*Kernel, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate scene: %w", err)
	}
	if err := cam.Validate(); err != nil {
		return nil, fmt.Errorf("validate camera: %w", err)
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultSettings().BatchSize
	}
	return &Kernel{scene: s, camera: cam, settings: settings}, nil
}

// Camera returns the camera the kernel renders.
func (k *Kernel) Camera() scene.Camera {
	return k.camera
}

// PrimaryRay returns the camera ray through normalized image coordinates
// (u, v) in [0, 1]. v = 0 is the bottom of the image.
func (k *Kernel) PrimaryRay(u, v float64) geom.Ray {
	clip := math3d.V4(2*u-1, 2*v-1, 1, 1)
	eye := k.camera.InvProjection.MulVec4(clip).PerspectiveDivide().Normalize()
	dir := k.camera.InvView.MulVec3Dir(eye).Normalize()
	return geom.Ray{Origin: k.camera.Position, Direction: dir}
}

// JitteredRay returns a primary ray through pixel (x, y) offset by a normal
// deviate on each axis, clamped to half a pixel.
func (k *Kernel) JitteredRay(x, y uint32, st rng.State) (geom.Ray, rng.State) {
	var jx, jy float64
	jx, st = st.Normal()
	jy, st = st.Normal()
	jx = min(max(jx, -0.5), 0.5)
	jy = min(max(jy, -0.5), 0.5)
	u := (float64(x) + jx) / float64(k.camera.Width)
	v := (float64(y) + jy) / float64(k.camera.Height)
	return k.PrimaryRay(u, v), st
}

// Trace follows one path from r for at most MaxBounces+1 surface hits and
// returns the gathered radiance. A miss ends the path and adds nothing.
func (k *Kernel) Trace(r geom.Ray, st rng.State) (math3d.Vec3, rng.State) {
	c, st, _ := k.trace(r, st)
	return c, st
}

// trace is Trace plus the number of intersection queries issued.
func (k *Kernel) trace(r geom.Ray, st rng.State) (math3d.Vec3, rng.State, int) {
	throughput := math3d.Splat(1)
	var radiance math3d.Vec3
	rays := 0
	for range k.camera.MaxBounces + 1 {
		rays++
		h := k.scene.Intersect(r, k.settings.TMin, k.settings.TMax)
		if !h.OK {
			break
		}
		mat := k.scene.Materials[h.Triangle.Material]
		n := k.scene.Normals[h.Triangle.Normal]

		var d math3d.Vec3
		d, st = st.Direction()
		dir := n.Add(d).Normalize()
		if dir.IsZero() {
			dir = n
		}
		r = geom.Ray{Origin: h.Point.Add(dir.Scale(k.settings.Epsilon)), Direction: dir}

		radiance = radiance.Add(mat.Emissive.Mul(throughput).Scale(k.settings.EmissiveScale))
		throughput = throughput.Mul(mat.Diffuse)
	}
	return radiance, st, rays
}

// Sample averages SamplesPerPixel jittered paths through pixel (x, y).
func (k *Kernel) Sample(x, y uint32, st rng.State) (math3d.Vec3, rng.State) {
	c, st, _ := k.sample(x, y, st)
	return c, st
}

func (k *Kernel) sample(x, y uint32, st rng.State) (math3d.Vec3, rng.State, int) {
	var sum math3d.Vec3
	rays := 0
	for range k.camera.SamplesPerPixel {
		var r geom.Ray
		r, st = k.JitteredRay(x, y, st)
		c, next, n := k.trace(r, st)
		st = next
		sum = sum.Add(c)
		rays += n
	}
	return sum.Scale(1 / float64(k.camera.SamplesPerPixel)), st, rays
}

// Pixel computes pixel i = y*Width + x from seeds[i] and stores the averaged
// colour with opacity 1 in pixels[i]. It returns the number of intersection
// queries it issued.
func (k *Kernel) Pixel(i int, seeds []uint32, pixels []math3d.Vec4) int {
	w := k.camera.Width
	x, y := uint32(i)%w, uint32(i)/w
	// One advance up front scrambles dense sequential seeds.
	st := rng.State(seeds[i]).Advance()
	c, _, rays := k.sample(x, y, st)
	pixels[i] = math3d.V4FromV3(c, 1)
	return rays
}
