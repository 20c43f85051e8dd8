package geom

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// ParallelEpsilon is the determinant magnitude below which a ray is treated
// as parallel to a triangle's plane.
const ParallelEpsilon = 1e-5

// Entry runs the slab test and returns the parametric entry distance, clamped
// to tMin, and whether the ray overlaps the box anywhere in [tMin, tMax].
//
// A zero direction component yields an infinite inverse, so that axis
// contributes (-Inf, +Inf) when the origin lies strictly inside the slab and
// an empty interval otherwise. A NaN from an origin lying exactly on a slab
// plane is ignored by the reductions.
func (b AABB) Entry(r Ray, tMin, tMax float64) (float64, bool) {
	inv := r.Direction.Recip()
	t0 := b.Min.Sub(r.Origin).Mul(inv)
	t1 := b.Max.Sub(r.Origin).Mul(inv)

	enter, exit := tMin, tMax
	for _, ax := range [3][2]float64{{t0.X, t1.X}, {t0.Y, t1.Y}, {t0.Z, t1.Z}} {
		lo, hi := ax[0], ax[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo > enter {
			enter = lo
		}
		if hi < exit {
			exit = hi
		}
	}
	return enter, exit >= enter
}

// Hit reports whether the ray overlaps the box within [tMin, tMax].
func (b AABB) Hit(r Ray, tMin, tMax float64) bool {
	_, ok := b.Entry(r, tMin, tMax)
	return ok
}

// IntersectTriangle runs the Möller–Trumbore test against the triangle
// (v0, v1, v2). It returns the ray parameter of the hit and true, or 0 and
// false when the ray is near-parallel to the plane, the barycentric
// coordinates fall outside the triangle, or t lies outside [tMin, tMax].
// Both windings are accepted.
func IntersectTriangle(r Ray, v0, v1, v2 math3d.Vec3, tMin, tMax float64) (float64, bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < ParallelEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(v0)
	u := s.Dot(p) * invDet
	// Negated comparisons so NaN rejects.
	if !(u >= 0 && u <= 1) {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Direction.Dot(q) * invDet
	if !(v >= 0 && u+v <= 1) {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	if !(t >= tMin && t <= tMax) {
		return 0, false
	}
	return t, true
}
