// Package scene defines the flat, index-linked scene arrays the tracer reads
// and the nearest-hit queries over them.
//
// Triangles, objects and materials refer to each other only through indices
// into the Scene's slices. A Scene is built once, validated, and then shared
// read-only by every worker for the length of a render.
package scene

import (
	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
)

// Material is a diffuse albedo plus an emitted radiance. Emissive components
// above 1 describe light sources.
type Material struct {
	Diffuse  math3d.Vec3
	Emissive math3d.Vec3
}

// Triangle indexes three positions, one geometric normal and one material.
type Triangle struct {
	V        [3]uint32
	Normal   uint32
	Material uint32
}

// Object is a culling unit: one bounding box and a contiguous run of
// triangles [Start, Start+Count).
type Object struct {
	AABB  uint32
	Start uint32
	Count uint32
}

// Scene holds every array the tracer consumes. Normals are unit length.
type Scene struct {
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	Triangles []Triangle
	Materials []Material
	AABBs     []geom.AABB
	Objects   []Object

	// Names labels each object for diagnostics. It may be nil.
	Names []string
}

// Hit is the result of an intersection query. Callers must check OK; a miss
// carries a zero Distance.
type Hit struct {
	OK       bool
	Distance float64
	Point    math3d.Vec3
	Triangle Triangle
}

// Bounds returns the union of all object boxes.
func (s *Scene) Bounds() geom.AABB {
	if len(s.Objects) == 0 {
		return geom.AABB{}
	}
	b := s.AABBs[s.Objects[0].AABB]
	for _, o := range s.Objects[1:] {
		b = b.Union(s.AABBs[o.AABB])
	}
	return b
}

// Emitters counts the triangles whose material emits light.
func (s *Scene) Emitters() int {
	n := 0
	for _, t := range s.Triangles {
		if !s.Materials[t.Material].Emissive.IsZero() {
			n++
		}
	}
	return n
}
