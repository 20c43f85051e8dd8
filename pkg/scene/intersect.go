package scene

import "github.com/taigrr/lumen/pkg/geom"

// IntersectTriangle tests one triangle and fills in the hit point and the
// triangle record on success.
func (s *Scene) IntersectTriangle(r geom.Ray, tri Triangle, tMin, tMax float64) Hit {
	t, ok := geom.IntersectTriangle(r,
		s.Positions[tri.V[0]], s.Positions[tri.V[1]], s.Positions[tri.V[2]],
		tMin, tMax)
	if !ok {
		return Hit{}
	}
	return Hit{OK: true, Distance: t, Point: r.At(t), Triangle: tri}
}

// IntersectObject returns the nearest hit among the object's triangles, or
// a miss without touching any triangle if the ray misses the object's box.
func (s *Scene) IntersectObject(r geom.Ray, o Object, tMin, tMax float64) Hit {
	if !s.AABBs[o.AABB].Hit(r, tMin, tMax) {
		return Hit{}
	}
	var best Hit
	for _, tri := range s.Triangles[o.Start : o.Start+o.Count] {
		if h := s.IntersectTriangle(r, tri, tMin, tMax); h.OK && (!best.OK || h.Distance < best.Distance) {
			best = h
			tMax = h.Distance
		}
	}
	return best
}

// Intersect returns the nearest hit in the scene. Objects are visited in
// index order and a later hit replaces the current one only if it is
// strictly closer, so ties resolve to the first object.
func (s *Scene) Intersect(r geom.Ray, tMin, tMax float64) Hit {
	var best Hit
	for _, o := range s.Objects {
		if h := s.IntersectObject(r, o, tMin, tMax); h.OK && (!best.OK || h.Distance < best.Distance) {
			best = h
			tMax = h.Distance
		}
	}
	return best
}
