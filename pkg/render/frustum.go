package render

import (
	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/scene"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point,
// positive on the side the normal points to.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six planes of a view volume with normals pointing
// inward, indexed by the Frustum* constants.
type Frustum struct {
	Planes [6]Plane
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts the planes of a view-projection matrix
// (Gribb/Hartmann): each plane is the last row plus or minus one of the
// first three.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	// Row i of a column-major matrix is m[i], m[i+4], m[i+8], m[i+12].
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	w, wd := row(3)

	var f Frustum
	for i := range 3 {
		r, rd := row(i)
		f.Planes[2*i] = Plane{Normal: w.Add(r), D: wd + rd}
		f.Planes[2*i+1] = Plane{Normal: w.Sub(r), D: wd - rd}
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// Only the corner furthest along each plane normal is tested, so boxes near
// frustum corners can be reported visible when they are not.
func (f Frustum) IntersectAABB(box geom.AABB) bool {
	for _, plane := range f.Planes {
		far := box.Min
		if plane.Normal.X >= 0 {
			far.X = box.Max.X
		}
		if plane.Normal.Y >= 0 {
			far.Y = box.Max.Y
		}
		if plane.Normal.Z >= 0 {
			far.Z = box.Max.Z
		}
		if plane.DistanceToPoint(far) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// Frustum returns the current view frustum of the camera.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// VisibleObjects counts the objects of s whose boxes intersect f.
func VisibleObjects(s *scene.Scene, f Frustum) int {
	n := 0
	for _, o := range s.Objects {
		if f.IntersectAABB(s.AABBs[o.AABB]) {
			n++
		}
	}
	return n
}
