package render

import (
	"math"

	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/scene"
)

// Camera is a look-at camera. It derives the inverse matrices the tracer
// needs from a pose and a perspective projection.
type Camera struct {
	// Position in world space
	Position math3d.Vec3
	// Target is the point the camera looks at.
	Target math3d.Vec3
	// Up is the approximate up direction; it must not be parallel to the
	// view direction.
	Up math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix math3d.Mat4
	projMatrix math3d.Mat4
	viewDirty  bool
	projDirty  bool
}

// NewCamera creates a camera at (0, 0, 5) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		Target:      math3d.Vec3{},
		Up:          math3d.Up(),
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1e4,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetTarget sets the point the camera looks at.
func (c *Camera) SetTarget(target math3d.Vec3) {
	c.Target = target
	c.viewDirty = true
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target, c.Up)
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Orbit places the camera on a sphere around Target. Yaw turns about +Y
// starting from +Z, pitch raises the camera toward +Y and is clamped short
// of the poles.
func (c *Camera) Orbit(yaw, pitch, distance float64) {
	const maxPitch = math.Pi/2 - 0.01
	pitch = max(-maxPitch, min(maxPitch, pitch))
	offset := math3d.V3(
		math.Cos(pitch)*math.Sin(yaw),
		math.Sin(pitch),
		math.Cos(pitch)*math.Cos(yaw),
	)
	c.SetPosition(c.Target.Add(offset.Scale(distance)))
}

// OrbitAngles returns the yaw, pitch and distance that Orbit would need to
// reproduce the current position.
func (c *Camera) OrbitAngles() (yaw, pitch, distance float64) {
	d := c.Position.Sub(c.Target)
	distance = d.Len()
	if distance == 0 {
		return 0, 0, 0
	}
	return math.Atan2(d.X, d.Z), math.Asin(d.Y / distance), distance
}

// Frame points the camera at the center of box from far enough along +Z
// that the box's bounding sphere fits the vertical field of view.
func (c *Camera) Frame(box geom.AABB) {
	center := box.Center()
	radius := box.Size().Len() * 0.5
	if radius == 0 {
		radius = 1
	}
	distance := radius / math.Sin(c.FOV/2)
	c.SetTarget(center)
	c.SetPosition(center.Add(math3d.V3(0, 0, distance)))
}

// TraceCamera derives the tracer's per-pass camera for a width x height
// image. The aspect ratio is taken from the image size.
func (c *Camera) TraceCamera(width, height, samples, bounces int) scene.Camera {
	c.SetAspectRatio(float64(width) / float64(height))
	return scene.Camera{
		Position:        c.Position,
		InvProjection:   c.ProjectionMatrix().Inverse(),
		InvView:         c.ViewMatrix().Inverse(),
		Width:           uint32(width),
		Height:          uint32(height),
		SamplesPerPixel: uint32(samples),
		MaxBounces:      uint32(bounces),
	}
}
